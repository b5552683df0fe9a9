package xdr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeOperation(t *testing.T) Operation {
	t.Helper()

	id := ContractID{0xaa}

	return Operation{
		Function: HostFunctionInvokeContract,
		Parameters: Params{
			BytesValue(id[:]),
			SymbolValue("transfer"),
			U64Value(100),
		},
		Footprint: Footprint{
			ReadOnly:  []LedgerKey{ContractCodeKey(id)},
			ReadWrite: []LedgerKey{ContractDataKey(id, SymbolValue("Balance"))},
		},
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	env := Envelope{
		Tx: Transaction{
			Source:     AccountID{1, 2, 3},
			Fee:        100,
			SeqNum:     42,
			Operations: []Operation{makeOperation(t)},
		},
		Signatures: []DecoratedSignature{
			{Hint: [4]byte{9, 9, 9, 9}, Signature: make([]byte, 64)},
		},
	}

	data, err := MarshalBase64(env)
	require.NoError(t, err)

	decoded, err := EnvelopeFromBase64(data)
	require.NoError(t, err)
	require.Equal(t, env, decoded)
}

func TestEnvelope_BadBase64(t *testing.T) {
	_, err := EnvelopeFromBase64("not base64!")
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't decode base64")
}

func TestTransaction_TooManyOperations(t *testing.T) {
	tx := Transaction{
		Operations: make([]Operation, MaxOperations+1),
	}

	_, err := Marshal(tx)
	require.EqualError(t, err,
		"couldn't encode message: number of operations 101 is above the limit 100")
}

func TestLedgerKey_Canonical(t *testing.T) {
	id := ContractID{0xbb}

	a := ContractDataKey(id, SymbolValue("Admin"))
	b := ContractDataKey(id, SymbolValue("Admin"))
	c := ContractDataKey(id, SymbolValue("Metadata"))

	require.Equal(t, a.Canonical(), b.Canonical())
	require.NotEqual(t, a.Canonical(), c.Canonical())

	require.PanicsWithError(t,
		"malformed ledger key: couldn't encode message: unknown ledger key type 9",
		func() {
			LedgerKey{Type: LedgerKeyType(9)}.Canonical()
		})
}

func TestFootprint_Equal(t *testing.T) {
	id := ContractID{0xcc}

	admin := ContractDataKey(id, SymbolValue("Admin"))
	meta := ContractDataKey(id, SymbolValue("Metadata"))
	code := ContractCodeKey(id)

	a := Footprint{ReadOnly: []LedgerKey{code}, ReadWrite: []LedgerKey{admin, meta}}
	b := Footprint{ReadOnly: []LedgerKey{code}, ReadWrite: []LedgerKey{meta, admin}}

	// Insertion order is not meaningful.
	require.True(t, a.Equal(b))
	require.True(t, b.Equal(a))

	c := Footprint{ReadWrite: []LedgerKey{admin}}
	require.False(t, a.Equal(c))

	d := Footprint{ReadOnly: []LedgerKey{code}, ReadWrite: []LedgerKey{admin, admin}}
	require.False(t, a.Equal(d))
}

func TestFootprint_RoundTrip(t *testing.T) {
	id := ContractID{0xdd}

	footprint := Footprint{
		ReadOnly:  []LedgerKey{AccountKey(AccountID{5})},
		ReadWrite: []LedgerKey{ContractDataKey(id, SymbolValue("Admin"))},
	}

	data, err := MarshalBase64(footprint)
	require.NoError(t, err)

	decoded, err := FootprintFromBase64(data)
	require.NoError(t, err)
	require.True(t, footprint.Equal(decoded))
}

func TestLedgerEntry_RoundTrip(t *testing.T) {
	entry := LedgerEntry{
		LastModified: 12,
		Data:         SymbolValue("token"),
	}

	data, err := Marshal(entry)
	require.NoError(t, err)

	decoded, err := LedgerEntryFromBytes(data)
	require.NoError(t, err)
	require.Equal(t, entry, decoded)
}
