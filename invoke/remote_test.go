package invoke

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/stela/client"
	"go.dedis.ch/stela/contract"
	"go.dedis.ch/stela/crypto"
	"go.dedis.ch/stela/ledger"
	"go.dedis.ch/stela/txn"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// fakeEndpoint is a scripted RPC server recording the envelopes it receives.
//
// - implements invoke.Endpoint
type fakeEndpoint struct {
	sequence  string
	data      map[string]client.ContractDataResult
	footprint xdr.Footprint
	cost      client.Cost

	accountErr error
	sendErr    error

	simulated []xdr.Envelope
	sent      []xdr.Envelope
}

func (e *fakeEndpoint) GetAccount(ctx context.Context,
	address string) (client.AccountDetails, error) {

	if e.accountErr != nil {
		return client.AccountDetails{}, e.accountErr
	}

	return client.AccountDetails{ID: address, Sequence: e.sequence}, nil
}

func (e *fakeEndpoint) GetContractData(ctx context.Context, contractID string,
	key xdr.Value) (client.ContractDataResult, error) {

	res, found := e.data[contractID]
	if !found {
		return client.ContractDataResult{}, xerrors.New("no such entry")
	}

	return res, nil
}

func (e *fakeEndpoint) SimulateTransaction(ctx context.Context,
	env xdr.Envelope) (client.SimulationResult, error) {

	e.simulated = append(e.simulated, env)

	encoded, err := xdr.MarshalBase64(e.footprint)
	if err != nil {
		return client.SimulationResult{}, err
	}

	return client.SimulationResult{Footprint: encoded, Cost: e.cost}, nil
}

func (e *fakeEndpoint) SendTransaction(ctx context.Context,
	env xdr.Envelope) (client.SendResult, error) {

	if e.sendErr != nil {
		return client.SendResult{}, e.sendErr
	}

	e.sent = append(e.sent, env)

	return client.SendResult{ID: "txid", Status: "PENDING"}, nil
}

func makeRemote(t *testing.T, endpoint *fakeEndpoint) Remote {
	t.Helper()

	kp, err := crypto.NewKeyPairFromSeed([32]byte{1})
	require.NoError(t, err)

	return Remote{
		Endpoint:   endpoint,
		KeyPair:    kp,
		Passphrase: ledger.DefaultPassphrase,
	}
}

func makeCall(t *testing.T, id xdr.ContractID) Call {
	t.Helper()

	return Call{
		Contract: id,
		Function: "add",
		Args: []contract.Argument{
			contract.StringArg(0, "1"),
			contract.StringArg(1, "2"),
		},
		Bytecode: makeModule(t),
	}
}

func TestRemote_Invoke(t *testing.T) {
	id := xdr.ContractID{0xaa}

	endpoint := &fakeEndpoint{
		sequence:  "41",
		footprint: xdr.Footprint{ReadOnly: []xdr.LedgerKey{xdr.ContractCodeKey(id)}},
		cost:      client.Cost{CPUInstructions: "1234", MemoryBytes: "99"},
	}

	r := makeRemote(t, endpoint)

	outcome, err := r.Invoke(context.Background(), makeCall(t, id))
	require.NoError(t, err)
	require.Equal(t, uint64(1234), outcome.Budget.CPUInstructions)
	require.Equal(t, uint64(99), outcome.Budget.MemoryBytes)
	require.True(t, outcome.Footprint.Equal(endpoint.footprint))

	require.Len(t, endpoint.simulated, 1)
	require.Len(t, endpoint.sent, 1)

	// The probe envelope carries an empty footprint, the final one the
	// resolved footprint. Both use the sequence number after the account's.
	probe := endpoint.simulated[0]
	require.Empty(t, probe.Tx.Operations[0].Footprint.ReadOnly)
	require.Equal(t, int64(42), probe.Tx.SeqNum)

	final := endpoint.sent[0]
	require.True(t, final.Tx.Operations[0].Footprint.Equal(endpoint.footprint))
	require.Equal(t, int64(42), final.Tx.SeqNum)
	require.Equal(t, uint32(txn.DefaultFee), final.Tx.Fee)

	// Both envelopes are properly signed.
	pub := r.KeyPair.GetPublicKey()
	for _, env := range []xdr.Envelope{probe, final} {
		digest, err := txn.Hash(env.Tx, ledger.DefaultPassphrase)
		require.NoError(t, err)
		require.NoError(t, pub.Verify(digest[:], env.Signatures[0].Signature))
	}
}

func TestRemote_Invoke_FetchesBytecode(t *testing.T) {
	id := xdr.ContractID{0xbb}

	code, err := xdr.MarshalBase64(xdr.BytesValue(makeModule(t)))
	require.NoError(t, err)

	endpoint := &fakeEndpoint{
		sequence: "1",
		data: map[string]client.ContractDataResult{
			hex.EncodeToString(id[:]): {XDR: code},
		},
	}

	call := makeCall(t, id)
	call.Bytecode = nil

	_, err = makeRemote(t, endpoint).Invoke(context.Background(), call)
	require.NoError(t, err)
	require.Len(t, endpoint.sent, 1)
}

func TestRemote_Invoke_UnknownContract(t *testing.T) {
	endpoint := &fakeEndpoint{sequence: "1"}

	call := makeCall(t, xdr.ContractID{0xcc})
	call.Bytecode = nil

	_, err := makeRemote(t, endpoint).Invoke(context.Background(), call)
	require.EqualError(t, err, "couldn't fetch code entry: no such entry")
}

func TestRemote_Invoke_ArgumentMismatch(t *testing.T) {
	endpoint := &fakeEndpoint{sequence: "1"}

	call := makeCall(t, xdr.ContractID{0xdd})
	call.Args = call.Args[:1]

	_, err := makeRemote(t, endpoint).Invoke(context.Background(), call)
	require.EqualError(t, err,
		"unexpected number of arguments: 1 (function 'add' expects 2 argument(s))")

	// Nothing was simulated nor submitted.
	require.Empty(t, endpoint.simulated)
	require.Empty(t, endpoint.sent)
}

func TestRemote_Invoke_AccountFailures(t *testing.T) {
	endpoint := &fakeEndpoint{accountErr: xerrors.New("unknown account")}

	_, err := makeRemote(t, endpoint).Invoke(context.Background(),
		makeCall(t, xdr.ContractID{}))
	require.EqualError(t, err, "couldn't fetch account: unknown account")

	endpoint = &fakeEndpoint{sequence: "oops"}

	_, err = makeRemote(t, endpoint).Invoke(context.Background(),
		makeCall(t, xdr.ContractID{}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't parse sequence number")
}

func TestRemote_Invoke_BadCost(t *testing.T) {
	endpoint := &fakeEndpoint{
		sequence: "1",
		cost:     client.Cost{CPUInstructions: "oops"},
	}

	_, err := makeRemote(t, endpoint).Invoke(context.Background(),
		makeCall(t, xdr.ContractID{}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't parse cpu cost")
}

func TestRemote_Invoke_SendFailure(t *testing.T) {
	endpoint := &fakeEndpoint{
		sequence: "1",
		sendErr:  xerrors.New("rejected"),
	}

	_, err := makeRemote(t, endpoint).Invoke(context.Background(),
		makeCall(t, xdr.ContractID{}))
	require.EqualError(t, err, "couldn't send transaction: rejected")
}
