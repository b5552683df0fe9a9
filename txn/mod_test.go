package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/stela/crypto"
	"go.dedis.ch/stela/ledger"
	"go.dedis.ch/stela/xdr"
)

func makeTx(t *testing.T, kp *crypto.KeyPair) xdr.Transaction {
	t.Helper()

	op := NewInvokeOperation(xdr.HostFunctionInvokeContract, xdr.Params{
		xdr.BytesValue(make([]byte, 32)),
		xdr.SymbolValue("add"),
		xdr.U32Value(1),
	}, xdr.Footprint{})

	return New(kp.GetPublicKey().AccountID(), 42, DefaultFee, op)
}

func TestHash_DomainSeparation(t *testing.T) {
	kp, err := crypto.NewKeyPairFromSeed([32]byte{1})
	require.NoError(t, err)

	tx := makeTx(t, kp)

	a, err := Hash(tx, ledger.DefaultPassphrase)
	require.NoError(t, err)

	b, err := Hash(tx, ledger.DefaultPassphrase)
	require.NoError(t, err)
	require.Equal(t, a, b)

	// A different passphrase yields a different signature payload, so an
	// envelope cannot be replayed across networks.
	c, err := Hash(tx, "Another Network ; August 2026")
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	tx.SeqNum++

	d, err := Hash(tx, ledger.DefaultPassphrase)
	require.NoError(t, err)
	require.NotEqual(t, a, d)
}

func TestSign(t *testing.T) {
	kp, err := crypto.NewKeyPairFromSeed([32]byte{2})
	require.NoError(t, err)

	tx := makeTx(t, kp)

	env, err := Sign(tx, ledger.DefaultPassphrase, kp)
	require.NoError(t, err)
	require.Equal(t, tx, env.Tx)
	require.Len(t, env.Signatures, 1)
	require.Equal(t, kp.GetPublicKey().Hint(), env.Signatures[0].Hint)

	digest, err := Hash(tx, ledger.DefaultPassphrase)
	require.NoError(t, err)

	err = kp.GetPublicKey().Verify(digest[:], env.Signatures[0].Signature)
	require.NoError(t, err)

	// The signature does not verify against another network's payload.
	other, err := Hash(tx, "Another Network ; August 2026")
	require.NoError(t, err)

	err = kp.GetPublicKey().Verify(other[:], env.Signatures[0].Signature)
	require.Error(t, err)
}

func TestSign_Twice(t *testing.T) {
	kp, err := crypto.NewKeyPairFromSeed([32]byte{3})
	require.NoError(t, err)

	tx := makeTx(t, kp)

	a, err := Sign(tx, ledger.DefaultPassphrase, kp)
	require.NoError(t, err)

	b, err := Sign(tx, ledger.DefaultPassphrase, kp)
	require.NoError(t, err)

	digest, err := Hash(tx, ledger.DefaultPassphrase)
	require.NoError(t, err)

	require.NoError(t, kp.GetPublicKey().Verify(digest[:], a.Signatures[0].Signature))
	require.NoError(t, kp.GetPublicKey().Verify(digest[:], b.Signatures[0].Signature))
}

func TestSign_EncodesToBase64(t *testing.T) {
	kp, err := crypto.NewKeyPairFromSeed([32]byte{4})
	require.NoError(t, err)

	env, err := Sign(makeTx(t, kp), ledger.DefaultPassphrase, kp)
	require.NoError(t, err)

	encoded, err := xdr.MarshalBase64(env)
	require.NoError(t, err)

	decoded, err := xdr.EnvelopeFromBase64(encoded)
	require.NoError(t, err)
	require.Equal(t, env.Tx.SeqNum, decoded.Tx.SeqNum)
	require.Equal(t, env.Signatures, decoded.Signatures)
}
