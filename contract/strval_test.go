package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/stela/crypto"
	"go.dedis.ch/stela/xdr"
)

func TestParseValue_Scalars(t *testing.T) {
	value, err := ParseValue("42", Type{Kind: TypeU32})
	require.NoError(t, err)
	require.Equal(t, xdr.U32Value(42), value)

	value, err = ParseValue("-7", Type{Kind: TypeI64})
	require.NoError(t, err)
	require.Equal(t, xdr.I64Value(-7), value)

	value, err = ParseValue("true", Type{Kind: TypeBool})
	require.NoError(t, err)
	require.Equal(t, xdr.BoolValue(true), value)

	value, err = ParseValue("deadbeef", Type{Kind: TypeBytes})
	require.NoError(t, err)
	require.Equal(t, xdr.BytesValue([]byte{0xde, 0xad, 0xbe, 0xef}), value)

	value, err = ParseValue("transfer", Type{Kind: TypeSymbol})
	require.NoError(t, err)
	require.Equal(t, xdr.SymbolValue("transfer"), value)
}

func TestParseValue_Account(t *testing.T) {
	id := [32]byte{1, 2, 3}

	value, err := ParseValue(crypto.EncodeAddress(id), Type{Kind: TypeAccount})
	require.NoError(t, err)
	require.Equal(t, xdr.AccountValue(xdr.AccountID(id)), value)

	_, err = ParseValue("oops", Type{Kind: TypeAccount})
	require.Error(t, err)
}

func TestParseValue_Malformed(t *testing.T) {
	_, err := ParseValue("oops", Type{Kind: TypeU32})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid u32 literal")

	_, err = ParseValue("4294967296", Type{Kind: TypeU32})
	require.Error(t, err)

	_, err = ParseValue("maybe", Type{Kind: TypeBool})
	require.EqualError(t, err, "invalid boolean literal 'maybe'")

	_, err = ParseValue("xyz", Type{Kind: TypeBytes})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid byte-string literal")
}

func TestParseValue_Vec(t *testing.T) {
	value, err := ParseValue("[1,2,3]", Type{
		Kind: TypeVec,
		Elem: &Type{Kind: TypeU32},
	})
	require.NoError(t, err)
	require.Equal(t, xdr.VecValue(xdr.U32Value(1), xdr.U32Value(2), xdr.U32Value(3)), value)

	// Nested composition.
	value, err = ParseValue(`[["a"],["b","c"]]`, Type{
		Kind: TypeVec,
		Elem: &Type{Kind: TypeVec, Elem: &Type{Kind: TypeSymbol}},
	})
	require.NoError(t, err)
	require.Equal(t, xdr.VecValue(
		xdr.VecValue(xdr.SymbolValue("a")),
		xdr.VecValue(xdr.SymbolValue("b"), xdr.SymbolValue("c")),
	), value)

	_, err = ParseValue("[1,", Type{Kind: TypeVec, Elem: &Type{Kind: TypeU32}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid JSON literal")

	_, err = ParseValue(`{"a":1}`, Type{Kind: TypeVec, Elem: &Type{Kind: TypeU32}})
	require.Error(t, err)
}

func TestParseValue_Map(t *testing.T) {
	value, err := ParseValue(`{"balance":100,"age":30}`, Type{
		Kind: TypeMap,
		Key:  &Type{Kind: TypeSymbol},
		Val:  &Type{Kind: TypeU64},
	})
	require.NoError(t, err)
	require.Equal(t, xdr.KindMap, value.Kind)
	require.Len(t, value.Map, 2)

	// Entries are sorted by key encoding, shortest symbol first.
	require.Equal(t, xdr.SymbolValue("age"), value.Map[0].Key)
	require.Equal(t, xdr.U64Value(30), value.Map[0].Val)
	require.Equal(t, xdr.SymbolValue("balance"), value.Map[1].Key)

	_, err = ParseValue(`{"bad key":1}`, Type{
		Kind: TypeMap,
		Key:  &Type{Kind: TypeSymbol},
		Val:  &Type{Kind: TypeU64},
	})
	require.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	id := [32]byte{9}

	table := []struct {
		value    xdr.Value
		expected string
	}{
		{xdr.U32Value(1), "1"},
		{xdr.U64Value(18446744073709551615), "18446744073709551615"},
		{xdr.I32Value(-2), "-2"},
		{xdr.I64Value(-3), "-3"},
		{xdr.VoidValue(), "null"},
		{xdr.BoolValue(true), "true"},
		{xdr.BytesValue([]byte{0xca, 0xfe}), "cafe"},
		{xdr.SymbolValue("ok"), "ok"},
		{xdr.AccountValue(xdr.AccountID(id)), crypto.EncodeAddress(id)},
		{xdr.VecValue(xdr.U32Value(1), xdr.SymbolValue("a")), `[1,"a"]`},
	}

	for _, tc := range table {
		s, err := FormatValue(tc.value)
		require.NoError(t, err)
		require.Equal(t, tc.expected, s)
	}
}

func TestFormatValue_Map(t *testing.T) {
	value, err := xdr.MapValue([]xdr.MapEntry{
		{Key: xdr.SymbolValue("decimals"), Val: xdr.U32Value(7)},
		{Key: xdr.SymbolValue("name"), Val: xdr.BytesValue([]byte{0xab})},
	})
	require.NoError(t, err)

	s, err := FormatValue(value)
	require.NoError(t, err)
	require.Equal(t, `{"decimals":7,"name":"ab"}`, s)
}

func TestFormatValue_Unsupported(t *testing.T) {
	_, err := FormatValue(xdr.Value{Kind: xdr.ValueKind(77)})
	require.EqualError(t, err, "cannot render value of kind 77")

	_, err = FormatValue(xdr.StaticValue(xdr.StaticContractCode))
	require.EqualError(t, err, "cannot render static value 3")
}
