package native

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/stela/contract"
	"go.dedis.ch/stela/execution"
	"go.dedis.ch/stela/ledger"
	"go.dedis.ch/stela/xdr"
)

// echo is a trivial native contract returning its first argument.
//
// - implements native.Contract
type echo struct{}

func (echo) Invoke(call Call) (xdr.Value, error) {
	if len(call.Args) == 0 {
		return xdr.VoidValue(), nil
	}

	return call.Args[0], nil
}

func makeHost(t *testing.T, snap *ledger.Snapshot) execution.Host {
	t.Helper()

	reg := NewRegistry()
	reg.Set(TokenRef, Token{})
	reg.Set("echo", echo{})

	return reg.Factory()(snap)
}

func deployEcho(t *testing.T, h execution.Host) xdr.ContractID {
	t.Helper()

	salt := [32]byte{1}

	res, err := h.Invoke(xdr.HostFunctionCreateContract, xdr.Params{
		xdr.BytesValue([]byte("echo")),
		xdr.BytesValue(salt[:]),
	})
	require.NoError(t, err)
	require.Equal(t, xdr.KindBytes, res.Kind)

	id := xdr.ContractID{}
	copy(id[:], res.Bytes)

	return id
}

func TestRegistry_Set(t *testing.T) {
	reg := NewRegistry()
	reg.Set(TokenRef, Token{})

	require.PanicsWithError(t, "contract 'stela.Token' already registered", func() {
		reg.Set(TokenRef, Token{})
	})
}

func TestHost_InvokeContract(t *testing.T) {
	h := makeHost(t, ledger.NewSnapshot())
	id := deployEcho(t, h)

	res, err := h.Invoke(xdr.HostFunctionInvokeContract, xdr.Params{
		xdr.BytesValue(id[:]),
		xdr.SymbolValue("anything"),
		xdr.U32Value(42),
	})
	require.NoError(t, err)
	require.Equal(t, xdr.U32Value(42), res)
}

func TestHost_InvokeContract_Failures(t *testing.T) {
	h := makeHost(t, ledger.NewSnapshot())

	_, err := h.Invoke(xdr.HostFunctionInvokeContract, xdr.Params{})
	require.EqualError(t, err, "invoke expects at least 2 parameters, got 0")

	_, err = h.Invoke(xdr.HostFunctionInvokeContract, xdr.Params{
		xdr.U32Value(1),
		xdr.SymbolValue("fn"),
	})
	require.EqualError(t, err, "first parameter is not a contract identifier")

	id := xdr.ContractID{0xaa}

	_, err = h.Invoke(xdr.HostFunctionInvokeContract, xdr.Params{
		xdr.BytesValue(id[:]),
		xdr.U32Value(1),
	})
	require.EqualError(t, err, "second parameter is not a function symbol")

	_, err = h.Invoke(xdr.HostFunctionInvokeContract, xdr.Params{
		xdr.BytesValue(id[:]),
		xdr.SymbolValue("fn"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")

	_, err = h.Invoke(xdr.HostFunction(99), nil)
	require.EqualError(t, err, "unknown host function 99")
}

func TestHost_CreateTokenContract(t *testing.T) {
	snap := ledger.NewSnapshot()
	h := makeHost(t, snap)

	source := xdr.AccountID{7}
	h.SetSourceAccount(source)

	salt := [32]byte{2}

	res, err := h.Invoke(xdr.HostFunctionCreateTokenContract, xdr.Params{
		xdr.BytesValue(salt[:]),
	})
	require.NoError(t, err)

	// The returned identifier matches the deterministic derivation.
	expected, err := contract.DeriveID(source, salt)
	require.NoError(t, err)
	require.Equal(t, xdr.BytesValue(expected[:]), res)

	entry, found, err := snap.Get(xdr.ContractCodeKey(expected))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, xdr.BytesValue([]byte(TokenRef)), entry.Data)

	_, err = h.Invoke(xdr.HostFunctionCreateTokenContract, xdr.Params{
		xdr.U32Value(1),
	})
	require.EqualError(t, err, "salt parameter is not a 32-byte string")
}

func TestHost_Finish(t *testing.T) {
	h := makeHost(t, ledger.NewSnapshot())
	deployEcho(t, h)

	budget, events, err := h.Finish()
	require.NoError(t, err)
	require.Empty(t, events)
	require.True(t, budget.CPUInstructions > 0)
	require.True(t, budget.MemoryBytes > 0)

	_, _, err = h.Finish()
	require.EqualError(t, err, "host is finished")

	_, err = h.Invoke(xdr.HostFunctionInvokeContract, nil)
	require.EqualError(t, err, "host is finished")
}
