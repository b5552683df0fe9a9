// Package txn builds and signs the transactions submitted to a network.
//
// The signature payload of a transaction mixes in the hash of the network
// passphrase, so an envelope signed for one network can never be replayed on
// another one.
package txn

import (
	"crypto/sha256"

	"go.dedis.ch/stela/crypto"
	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// DefaultFee is the fee of a transaction when the caller does not override
// it, which is the minimum fee of a single-operation transaction.
const DefaultFee = 100

// NewInvokeOperation returns an operation running the host function with the
// parameters, authorized to touch the footprint.
func NewInvokeOperation(fn xdr.HostFunction, params xdr.Params,
	footprint xdr.Footprint) xdr.Operation {

	return xdr.Operation{
		Function:   fn,
		Parameters: params,
		Footprint:  footprint,
	}
}

// New returns a transaction from the source account with the given sequence
// number, fee and operations.
func New(source xdr.AccountID, seq int64, fee uint32,
	ops ...xdr.Operation) xdr.Transaction {

	return xdr.Transaction{
		Source:     source,
		Fee:        fee,
		SeqNum:     seq,
		Operations: ops,
	}
}

// Hash returns the signature payload of the transaction for the network
// identified by the passphrase: the hash of the network identifier, the
// envelope domain-separation tag and the encoded transaction.
func Hash(tx xdr.Transaction, passphrase string) ([32]byte, error) {
	data, err := xdr.Marshal(tx)
	if err != nil {
		return [32]byte{}, xerrors.Errorf("couldn't encode transaction: %v", err)
	}

	network := sha256.Sum256([]byte(passphrase))

	payload := sha256.New()
	payload.Write(network[:])

	tag := [4]byte{}
	tag[3] = xdr.EnvelopeTypeTx
	payload.Write(tag[:])

	payload.Write(data)

	digest := [32]byte{}
	copy(digest[:], payload.Sum(nil))

	return digest, nil
}

// Sign signs the transaction for the network identified by the passphrase and
// returns the envelope carrying the decorated signature.
func Sign(tx xdr.Transaction, passphrase string, kp *crypto.KeyPair) (xdr.Envelope, error) {
	digest, err := Hash(tx, passphrase)
	if err != nil {
		return xdr.Envelope{}, err
	}

	sig, err := kp.Sign(digest[:])
	if err != nil {
		return xdr.Envelope{}, xerrors.Errorf("couldn't sign: %v", err)
	}

	return xdr.Envelope{
		Tx: tx,
		Signatures: []xdr.DecoratedSignature{
			{
				Hint:      kp.GetPublicKey().Hint(),
				Signature: sig,
			},
		},
	}, nil
}
