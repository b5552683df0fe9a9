package invoke

import (
	"go.dedis.ch/stela"
	"go.dedis.ch/stela/contract"
	"go.dedis.ch/stela/execution"
	"go.dedis.ch/stela/ledger"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// timestampStep is the number of seconds the ledger clock advances for a
// sandbox execution.
const timestampStep = 5

// Sandbox runs invocations locally against a snapshot file.
type Sandbox struct {
	// Path is the location of the snapshot file.
	Path string

	// Hosts creates the execution host of a call.
	Hosts execution.HostFactory
}

// Invoke runs the call against the snapshot and commits the resulting state.
// The call runs in the successor of the persisted ledger: the sequence number
// is bumped by one and the clock advances. Any failure leaves the snapshot
// file untouched.
func (sb Sandbox) Invoke(call Call) (Outcome, error) {
	snap, err := ledger.ReadSnapshot(sb.Path)
	if err != nil {
		return Outcome{}, xerrors.Errorf("couldn't read ledger file: %v", err)
	}

	bytecode := call.Bytecode
	if bytecode != nil {
		entry := xdr.LedgerEntry{
			LastModified: snap.Info.Sequence,
			Data:         xdr.BytesValue(bytecode),
		}

		err = snap.Put(xdr.ContractCodeKey(call.Contract), entry)
		if err != nil {
			return Outcome{}, xerrors.Errorf("couldn't install bytecode: %v", err)
		}
	} else {
		bytecode, err = readBytecode(snap, call.Contract)
		if err != nil {
			return Outcome{}, err
		}
	}

	params, err := contract.BuildParams(call.Contract, bytecode, call.Function, call.Args)
	if err != nil {
		return Outcome{}, err
	}

	rec := ledger.NewRecorder(snap)

	host := sb.Hosts(rec)
	host.SetSourceAccount(call.Source)

	info := snap.Info
	info.Sequence++
	info.Timestamp += timestampStep
	host.SetLedgerInfo(info)

	value, err := host.Invoke(xdr.HostFunctionInvokeContract, params)
	if err != nil {
		return Outcome{}, xerrors.Errorf("execution failed: %v", err)
	}

	budget, events, err := host.Finish()
	if err != nil {
		return Outcome{}, xerrors.Errorf("couldn't finish host: %v", err)
	}

	snap.Info = info

	err = ledger.WriteSnapshot(sb.Path, snap)
	if err != nil {
		return Outcome{}, xerrors.Errorf("couldn't commit ledger file: %v", err)
	}

	stela.Logger.Debug().
		Uint32("sequence", info.Sequence).
		Uint64("cpu", budget.CPUInstructions).
		Msg("sandbox invocation committed")

	return Outcome{
		Value:     value,
		Budget:    budget,
		Events:    events,
		Footprint: rec.Footprint(),
	}, nil
}

// readBytecode resolves the contract module from the code entry of the
// snapshot.
func readBytecode(storage ledger.Storage, id xdr.ContractID) ([]byte, error) {
	entry, found, err := storage.Get(xdr.ContractCodeKey(id))
	if err != nil {
		return nil, xerrors.Errorf("couldn't read code entry: %v", err)
	}

	if !found {
		return nil, xerrors.Errorf("contract '%x' not found in the ledger", id[:])
	}

	if entry.Data.Kind != xdr.KindBytes {
		return nil, xerrors.New("code entry is not a byte-string")
	}

	return entry.Data.Bytes, nil
}
