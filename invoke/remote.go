package invoke

import (
	"context"
	"encoding/hex"
	"strconv"

	"go.dedis.ch/stela"
	"go.dedis.ch/stela/client"
	"go.dedis.ch/stela/contract"
	"go.dedis.ch/stela/crypto"
	"go.dedis.ch/stela/execution"
	"go.dedis.ch/stela/txn"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// Endpoint is the server surface the remote backend talks to. It is
// implemented by client.Client.
type Endpoint interface {
	GetAccount(ctx context.Context, address string) (client.AccountDetails, error)

	GetContractData(ctx context.Context, contractID string,
		key xdr.Value) (client.ContractDataResult, error)

	SimulateTransaction(ctx context.Context,
		env xdr.Envelope) (client.SimulationResult, error)

	SendTransaction(ctx context.Context, env xdr.Envelope) (client.SendResult, error)
}

// Remote builds a signed transaction for the call and submits it to an RPC
// server.
type Remote struct {
	// Endpoint is the server to talk to.
	Endpoint Endpoint

	// KeyPair signs the transactions. Its public key is the source account.
	KeyPair *crypto.KeyPair

	// Passphrase is the network passphrase mixed into the signature payload.
	Passphrase string

	// Fee is the transaction fee. Zero means the default fee.
	Fee uint32
}

// Invoke submits the call to the server. The transaction is first signed with
// an empty footprint and simulated, then rebuilt with the resolved footprint,
// signed again and sent. Submission is fire and forget: the call returns once
// the server acknowledges the transaction, without waiting for a ledger to
// include it.
func (r Remote) Invoke(ctx context.Context, call Call) (Outcome, error) {
	pub := r.KeyPair.GetPublicKey()

	details, err := r.Endpoint.GetAccount(ctx, pub.Address())
	if err != nil {
		return Outcome{}, xerrors.Errorf("couldn't fetch account: %v", err)
	}

	seq, err := strconv.ParseInt(details.Sequence, 10, 64)
	if err != nil {
		return Outcome{}, xerrors.Errorf("couldn't parse sequence number: %v", err)
	}

	bytecode := call.Bytecode
	if bytecode == nil {
		bytecode, err = r.fetchBytecode(ctx, call.Contract)
		if err != nil {
			return Outcome{}, err
		}
	}

	params, err := contract.BuildParams(call.Contract, bytecode, call.Function, call.Args)
	if err != nil {
		return Outcome{}, err
	}

	fee := r.Fee
	if fee == 0 {
		fee = txn.DefaultFee
	}

	// The first envelope carries an empty footprint: it only exists for the
	// server to resolve the actual one.
	probe := txn.New(pub.AccountID(), seq+1, fee,
		txn.NewInvokeOperation(xdr.HostFunctionInvokeContract, params, xdr.Footprint{}))

	env, err := txn.Sign(probe, r.Passphrase, r.KeyPair)
	if err != nil {
		return Outcome{}, err
	}

	sim, err := r.Endpoint.SimulateTransaction(ctx, env)
	if err != nil {
		return Outcome{}, xerrors.Errorf("couldn't simulate: %v", err)
	}

	footprint, err := xdr.FootprintFromBase64(sim.Footprint)
	if err != nil {
		return Outcome{}, xerrors.Errorf("couldn't decode footprint: %v", err)
	}

	budget, err := parseCost(sim.Cost)
	if err != nil {
		return Outcome{}, err
	}

	final := txn.New(pub.AccountID(), seq+1, fee,
		txn.NewInvokeOperation(xdr.HostFunctionInvokeContract, params, footprint))

	env, err = txn.Sign(final, r.Passphrase, r.KeyPair)
	if err != nil {
		return Outcome{}, err
	}

	res, err := r.Endpoint.SendTransaction(ctx, env)
	if err != nil {
		return Outcome{}, xerrors.Errorf("couldn't send transaction: %v", err)
	}

	stela.Logger.Debug().
		Str("id", res.ID).
		Str("status", res.Status).
		Msg("transaction submitted")

	return Outcome{
		Budget:    budget,
		Footprint: footprint,
	}, nil
}

// fetchBytecode resolves the contract module from the code entry of the
// network ledger.
func (r Remote) fetchBytecode(ctx context.Context, id xdr.ContractID) ([]byte, error) {
	res, err := r.Endpoint.GetContractData(ctx, hex.EncodeToString(id[:]),
		xdr.StaticValue(xdr.StaticContractCode))
	if err != nil {
		return nil, xerrors.Errorf("couldn't fetch code entry: %v", err)
	}

	value, err := xdr.ValueFromBase64(res.XDR)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode code entry: %v", err)
	}

	if value.Kind != xdr.KindBytes {
		return nil, xerrors.New("code entry is not a byte-string")
	}

	return value.Bytes, nil
}

func parseCost(cost client.Cost) (execution.Budget, error) {
	budget := execution.Budget{}

	var err error

	if cost.CPUInstructions != "" {
		budget.CPUInstructions, err = strconv.ParseUint(cost.CPUInstructions, 10, 64)
		if err != nil {
			return execution.Budget{}, xerrors.Errorf("couldn't parse cpu cost: %v", err)
		}
	}

	if cost.MemoryBytes != "" {
		budget.MemoryBytes, err = strconv.ParseUint(cost.MemoryBytes, 10, 64)
		if err != nil {
			return execution.Budget{}, xerrors.Errorf("couldn't parse memory cost: %v", err)
		}
	}

	return budget, nil
}
