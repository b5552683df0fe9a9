package token

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

// Sandbox creates tokens in a local snapshot file.
type Sandbox struct {
	// Path is the location of the snapshot file.
	Path string

	// Hosts creates the execution host of a creation.
	Hosts execution.HostFactory
}

// Create deploys and initializes a token in a single host session and
// commits the resulting state. The salt is used verbatim, and a nil
// administrator defaults to the zero account. Any failure leaves the
// snapshot file untouched.
func (sb Sandbox) Create(c Creation) (xdr.ContractID, error) {
	err := c.validate()
	if err != nil {
		return xdr.ContractID{}, err
	}

	admin := contract.ZeroAccount
	if c.Admin != nil {
		admin = *c.Admin
	}

	snap, err := ledger.ReadSnapshot(sb.Path)
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't read ledger file: %v", err)
	}

	rec := ledger.NewRecorder(snap)

	host := sb.Hosts(rec)
	host.SetSourceAccount(admin)

	info := snap.Info
	info.Sequence++
	info.Timestamp += timestampStep
	host.SetLedgerInfo(info)

	res, err := host.Invoke(xdr.HostFunctionCreateTokenContract, xdr.Params{
		xdr.BytesValue(c.Salt[:]),
	})
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't deploy: %v", err)
	}

	id, err := contractID(res)
	if err != nil {
		return xdr.ContractID{}, err
	}

	params, err := initParams(id, admin, c.Name, c.Symbol, c.Decimals)
	if err != nil {
		return xdr.ContractID{}, err
	}

	_, err = host.Invoke(xdr.HostFunctionInvokeContract, params)
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't initialize: %v", err)
	}

	_, _, err = host.Finish()
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't finish host: %v", err)
	}

	snap.Info = info

	err = ledger.WriteSnapshot(sb.Path, snap)
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't commit ledger file: %v", err)
	}

	stela.Logger.Debug().
		Hex("contract", id[:]).
		Str("symbol", c.Symbol).
		Msg("token created in sandbox")

	return id, nil
}
