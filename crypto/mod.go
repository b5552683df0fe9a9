// Package crypto provides the signing primitives of the module: ed25519
// keypairs derived from an encoded secret seed, and the text encoding of
// public identities and seeds.
//
// Keys only ever exist in process memory, they are never persisted.
package crypto

import (
	"crypto/rand"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/eddsa"
	"go.dedis.ch/kyber/v3/suites"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/kyber/v3/xof/blake2xb"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

var suite = suites.MustFind("Ed25519")

// PublicKey is the public part of a keypair.
//
// - implements encoding.BinaryMarshaler
type PublicKey struct {
	point kyber.Point
	data  [32]byte
}

// NewPublicKey returns the public key matching the raw bytes.
func NewPublicKey(data [32]byte) (PublicKey, error) {
	point := suite.Point()

	err := point.UnmarshalBinary(data[:])
	if err != nil {
		return PublicKey{}, xerrors.Errorf("couldn't unmarshal point: %v", err)
	}

	return PublicKey{point: point, data: data}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the raw bytes
// of the public key.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return append([]byte{}, pk.data[:]...), nil
}

// AccountID returns the public identity as an account identifier.
func (pk PublicKey) AccountID() xdr.AccountID {
	return xdr.AccountID(pk.data)
}

// Address returns the text encoding of the public identity.
func (pk PublicKey) Address() string {
	return EncodeAddress(pk.data)
}

// Hint returns the last four bytes of the public key, used to hint which key
// produced an envelope signature.
func (pk PublicKey) Hint() [4]byte {
	hint := [4]byte{}
	copy(hint[:], pk.data[28:])

	return hint
}

// Verify returns nil if the signature matches the message for this public
// key.
func (pk PublicKey) Verify(msg, sig []byte) error {
	err := eddsa.Verify(pk.point, msg, sig)
	if err != nil {
		return xerrors.Errorf("eddsa verify failed: %v", err)
	}

	return nil
}

// KeyPair holds the ed25519 key material used to sign transaction envelopes.
type KeyPair struct {
	ed  *eddsa.EdDSA
	pub PublicKey
}

// NewKeyPairFromSeed derives a keypair deterministically from the seed.
func NewKeyPairFromSeed(seed [32]byte) (*KeyPair, error) {
	return newKeyPair(eddsa.NewEdDSA(blake2xb.New(seed[:])))
}

// NewKeyPair generates a new random keypair.
func NewKeyPair() (*KeyPair, error) {
	return newKeyPair(eddsa.NewEdDSA(random.New()))
}

// KeyPairFromSecret parses the text encoding of a secret seed and derives the
// keypair from it.
func KeyPairFromSecret(secret string) (*KeyPair, error) {
	seed, err := DecodeSeed(secret)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode secret: %v", err)
	}

	return NewKeyPairFromSeed(seed)
}

func newKeyPair(ed *eddsa.EdDSA) (*KeyPair, error) {
	buffer, err := ed.Public.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal public key: %v", err)
	}

	pub := PublicKey{point: ed.Public}
	copy(pub.data[:], buffer)

	return &KeyPair{ed: ed, pub: pub}, nil
}

// GetPublicKey returns the public key of the keypair.
func (kp *KeyPair) GetPublicKey() PublicKey {
	return kp.pub
}

// Sign signs the message and returns the signature.
func (kp *KeyPair) Sign(msg []byte) ([]byte, error) {
	sig, err := kp.ed.Sign(msg)
	if err != nil {
		return nil, xerrors.Errorf("couldn't make eddsa signature: %v", err)
	}

	return sig, nil
}

// CryptographicRandomGenerator is a cryptographically secure random
// generator.
//
// - implements io.Reader
type CryptographicRandomGenerator struct{}

// Read implements io.Reader. It fills the given buffer at its capacity as
// long as no error occurred.
func (crg CryptographicRandomGenerator) Read(buffer []byte) (int, error) {
	return rand.Read(buffer)
}

// RandomSalt returns a salt filled with cryptographically secure random
// bytes.
func RandomSalt() ([32]byte, error) {
	salt := [32]byte{}

	_, err := CryptographicRandomGenerator{}.Read(salt[:])
	if err != nil {
		return [32]byte{}, xerrors.Errorf("couldn't read randomness: %v", err)
	}

	return salt, nil
}
