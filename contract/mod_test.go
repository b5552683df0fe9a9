package contract

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/stela/xdr"
)

func TestDeriveID_Deterministic(t *testing.T) {
	source := xdr.AccountID{1, 2, 3}

	// The all-zero salt sentinel derives like any other salt.
	a, err := DeriveID(source, ZeroSalt)
	require.NoError(t, err)

	b, err := DeriveID(source, ZeroSalt)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Len(t, a[:], 32)
}

func TestDeriveID_DependsOnInputs(t *testing.T) {
	source := xdr.AccountID{1}

	a, err := DeriveID(source, [32]byte{1})
	require.NoError(t, err)

	b, err := DeriveID(source, [32]byte{2})
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	c, err := DeriveID(xdr.AccountID{2}, [32]byte{1})
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestParseID(t *testing.T) {
	want := xdr.ContractID{0xaa, 0xbb}

	id, err := ParseID(hex.EncodeToString(want[:]))
	require.NoError(t, err)
	require.Equal(t, want, id)

	_, err = ParseID("abcd")
	require.EqualError(t, err, "cannot parse contract id 'abcd': expected 32 bytes, got 2")

	_, err = ParseID("zz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot parse contract id 'zz'")
}

func TestParseSalt(t *testing.T) {
	want := [32]byte{0x01, 0x02}

	salt, err := ParseSalt(hex.EncodeToString(want[:]))
	require.NoError(t, err)
	require.Equal(t, want, salt)

	_, err = ParseSalt("0102")
	require.EqualError(t, err, "cannot parse salt '0102': expected 32 bytes, got 2")
}
