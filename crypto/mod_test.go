package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyPair_DeterministicFromSeed(t *testing.T) {
	seed := [32]byte{1, 2, 3}

	a, err := NewKeyPairFromSeed(seed)
	require.NoError(t, err)

	b, err := NewKeyPairFromSeed(seed)
	require.NoError(t, err)

	require.Equal(t, a.GetPublicKey().AccountID(), b.GetPublicKey().AccountID())

	other, err := NewKeyPairFromSeed([32]byte{4, 5, 6})
	require.NoError(t, err)
	require.NotEqual(t, a.GetPublicKey().AccountID(), other.GetPublicKey().AccountID())
}

func TestKeyPair_SignAndVerify(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)

	msg := []byte("deadbeef")

	// Both signatures of the same body must independently verify.
	sig1, err := kp.Sign(msg)
	require.NoError(t, err)

	sig2, err := kp.Sign(msg)
	require.NoError(t, err)

	pub := kp.GetPublicKey()
	require.NoError(t, pub.Verify(msg, sig1))
	require.NoError(t, pub.Verify(msg, sig2))

	err = pub.Verify([]byte("other"), sig1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "eddsa verify failed")
}

func TestKeyPair_FromSecret(t *testing.T) {
	seed := [32]byte{0xaa, 0xbb}

	kp, err := KeyPairFromSecret(EncodeSeed(seed))
	require.NoError(t, err)

	same, err := NewKeyPairFromSeed(seed)
	require.NoError(t, err)
	require.Equal(t, same.GetPublicKey().Address(), kp.GetPublicKey().Address())

	_, err = KeyPairFromSecret("oops")
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't decode secret")
}

func TestPublicKey_FromBytes(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)

	raw, err := kp.GetPublicKey().MarshalBinary()
	require.NoError(t, err)

	data := [32]byte{}
	copy(data[:], raw)

	pub, err := NewPublicKey(data)
	require.NoError(t, err)
	require.Equal(t, kp.GetPublicKey().AccountID(), pub.AccountID())

	sig, err := kp.Sign([]byte("ping"))
	require.NoError(t, err)
	require.NoError(t, pub.Verify([]byte("ping"), sig))
}

func TestPublicKey_Hint(t *testing.T) {
	kp, err := NewKeyPair()
	require.NoError(t, err)

	pub := kp.GetPublicKey()
	id := pub.AccountID()

	require.Equal(t, [4]byte{id[28], id[29], id[30], id[31]}, pub.Hint())
}

func TestStrKey_RoundTrip(t *testing.T) {
	key := [32]byte{0x42, 0x17}

	address := EncodeAddress(key)
	require.Len(t, address, 56)
	require.Equal(t, byte('G'), address[0])

	decoded, err := DecodeAddress(address)
	require.NoError(t, err)
	require.Equal(t, key, decoded)

	secret := EncodeSeed(key)
	require.Len(t, secret, 56)
	require.Equal(t, byte('S'), secret[0])

	decoded, err = DecodeSeed(secret)
	require.NoError(t, err)
	require.Equal(t, key, decoded)
}

func TestStrKey_Malformed(t *testing.T) {
	_, err := DecodeAddress("definitely not base32 at all")
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed address")

	_, err = DecodeAddress("AAAA")
	require.EqualError(t, err, "malformed address: invalid length 2")

	// Corrupt the checksum.
	address := []byte(EncodeAddress([32]byte{1}))
	if address[55] == 'A' {
		address[55] = 'B'
	} else {
		address[55] = 'A'
	}

	_, err = DecodeAddress(string(address))
	require.Error(t, err)

	// A seed is not an address.
	_, err = DecodeAddress(EncodeSeed([32]byte{1}))
	require.EqualError(t, err, "malformed address: unexpected version byte 0x90")
}

func TestRandomSalt(t *testing.T) {
	a, err := RandomSalt()
	require.NoError(t, err)

	b, err := RandomSalt()
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}
