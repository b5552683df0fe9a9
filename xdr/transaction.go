package xdr

import (
	"golang.org/x/xerrors"
)

// HostFunction is the kind of function a host is asked to run.
type HostFunction uint32

const (
	// HostFunctionInvokeContract invokes a function of a deployed contract.
	HostFunctionInvokeContract HostFunction = 0

	// HostFunctionCreateContract deploys the bytecode given in the parameters
	// under a deterministic identifier.
	HostFunctionCreateContract HostFunction = 1

	// HostFunctionCreateTokenContract deploys the built-in token contract
	// under the identifier derived from the source account and the salt given
	// in the parameters.
	HostFunctionCreateTokenContract HostFunction = 2
)

// Wire constants of the fixed arms of a transaction: no operation-level
// source, invoke-host-function body, no preconditions, no memo and the V0
// structure-extension marker.
const (
	operationBodyInvokeHostFunction = 0
	preconditionsNone               = 0
	memoNone                        = 0
	transactionExtV0                = 0

	// EnvelopeTypeTx is the domain-separation tag mixed into the signature
	// payload of a transaction.
	EnvelopeTypeTx = 2

	// MaxOperations is the protocol ceiling on the number of operations of a
	// single transaction.
	MaxOperations = 100
)

// Operation is a single invoke, deploy or init call of a transaction,
// carrying its own parameters and resolved footprint.
type Operation struct {
	Function   HostFunction
	Parameters Params
	Footprint  Footprint
}

// EncodeXDR implements xdr.Message.
func (op Operation) EncodeXDR(enc *Encoder) error {
	// No operation-level source account.
	err := enc.WriteBool(false)
	if err != nil {
		return err
	}

	err = enc.WriteUint32(operationBodyInvokeHostFunction)
	if err != nil {
		return err
	}

	err = enc.WriteUint32(uint32(op.Function))
	if err != nil {
		return err
	}

	err = op.Parameters.EncodeXDR(enc)
	if err != nil {
		return err
	}

	return op.Footprint.EncodeXDR(enc)
}

// DecodeOperation reads an operation from the decoder.
func DecodeOperation(dec *Decoder) (Operation, error) {
	hasSource, err := dec.ReadBool()
	if err != nil {
		return Operation{}, err
	}

	if hasSource {
		return Operation{}, xerrors.New("operation-level source accounts are not supported")
	}

	body, err := dec.ReadUint32()
	if err != nil {
		return Operation{}, err
	}

	if body != operationBodyInvokeHostFunction {
		return Operation{}, xerrors.Errorf("unknown operation body %d", body)
	}

	fn, err := dec.ReadUint32()
	if err != nil {
		return Operation{}, err
	}

	if fn > uint32(HostFunctionCreateTokenContract) {
		return Operation{}, xerrors.Errorf("unknown host function %d", fn)
	}

	params, err := DecodeParams(dec)
	if err != nil {
		return Operation{}, err
	}

	footprint, err := DecodeFootprint(dec)
	if err != nil {
		return Operation{}, err
	}

	return Operation{
		Function:   HostFunction(fn),
		Parameters: params,
		Footprint:  footprint,
	}, nil
}

// Transaction is the canonical transaction structure: a single source
// account, a fee, a sequence number, the operations in caller order, no memo
// and no time-bound preconditions.
type Transaction struct {
	Source     AccountID
	Fee        uint32
	SeqNum     int64
	Operations []Operation
}

// EncodeXDR implements xdr.Message.
func (tx Transaction) EncodeXDR(enc *Encoder) error {
	err := tx.Source.EncodeXDR(enc)
	if err != nil {
		return err
	}

	err = enc.WriteUint32(tx.Fee)
	if err != nil {
		return err
	}

	err = enc.WriteInt64(tx.SeqNum)
	if err != nil {
		return err
	}

	err = enc.WriteUint32(preconditionsNone)
	if err != nil {
		return err
	}

	err = enc.WriteUint32(memoNone)
	if err != nil {
		return err
	}

	if len(tx.Operations) > MaxOperations {
		return xerrors.Errorf("number of operations %d is above the limit %d",
			len(tx.Operations), MaxOperations)
	}

	err = enc.WriteUint32(uint32(len(tx.Operations)))
	if err != nil {
		return err
	}

	for _, op := range tx.Operations {
		err = op.EncodeXDR(enc)
		if err != nil {
			return err
		}
	}

	return enc.WriteUint32(transactionExtV0)
}

// DecodeTransaction reads a transaction from the decoder.
func DecodeTransaction(dec *Decoder) (Transaction, error) {
	source, err := DecodeAccountID(dec)
	if err != nil {
		return Transaction{}, err
	}

	fee, err := dec.ReadUint32()
	if err != nil {
		return Transaction{}, err
	}

	seq, err := dec.ReadInt64()
	if err != nil {
		return Transaction{}, err
	}

	cond, err := dec.ReadUint32()
	if err != nil {
		return Transaction{}, err
	}

	if cond != preconditionsNone {
		return Transaction{}, xerrors.Errorf("unknown preconditions %d", cond)
	}

	memo, err := dec.ReadUint32()
	if err != nil {
		return Transaction{}, err
	}

	if memo != memoNone {
		return Transaction{}, xerrors.Errorf("unknown memo %d", memo)
	}

	size, err := dec.ReadUint32()
	if err != nil {
		return Transaction{}, err
	}

	if size > MaxOperations {
		return Transaction{}, xerrors.Errorf("number of operations %d is above the limit %d",
			size, MaxOperations)
	}

	ops := make([]Operation, size)
	for i := range ops {
		ops[i], err = DecodeOperation(dec)
		if err != nil {
			return Transaction{}, xerrors.Errorf("couldn't decode operation %d: %v", i, err)
		}
	}

	ext, err := dec.ReadUint32()
	if err != nil {
		return Transaction{}, err
	}

	if ext != transactionExtV0 {
		return Transaction{}, xerrors.Errorf("unknown extension %d", ext)
	}

	return Transaction{
		Source:     source,
		Fee:        fee,
		SeqNum:     seq,
		Operations: ops,
	}, nil
}

// DecoratedSignature is an envelope signature with a hint of the public key
// that produced it.
type DecoratedSignature struct {
	Hint      [4]byte
	Signature []byte
}

// EncodeXDR implements xdr.Message.
func (sig DecoratedSignature) EncodeXDR(enc *Encoder) error {
	err := enc.WriteFixedOpaque(sig.Hint[:])
	if err != nil {
		return err
	}

	return enc.WriteOpaque(sig.Signature)
}

// maxSignatureLength bounds a decoded envelope signature. An ed25519
// signature is 64 bytes.
const maxSignatureLength = 64

// DecodeDecoratedSignature reads a decorated signature from the decoder.
func DecodeDecoratedSignature(dec *Decoder) (DecoratedSignature, error) {
	hint, err := dec.ReadFixedOpaque(4)
	if err != nil {
		return DecoratedSignature{}, err
	}

	data, err := dec.ReadOpaque(maxSignatureLength)
	if err != nil {
		return DecoratedSignature{}, err
	}

	sig := DecoratedSignature{Signature: data}
	copy(sig.Hint[:], hint)

	return sig, nil
}

// Envelope is a transaction alongside the signatures authorizing it.
type Envelope struct {
	Tx         Transaction
	Signatures []DecoratedSignature
}

// EncodeXDR implements xdr.Message.
func (env Envelope) EncodeXDR(enc *Encoder) error {
	err := env.Tx.EncodeXDR(enc)
	if err != nil {
		return err
	}

	err = enc.WriteUint32(uint32(len(env.Signatures)))
	if err != nil {
		return err
	}

	for _, sig := range env.Signatures {
		err = sig.EncodeXDR(enc)
		if err != nil {
			return err
		}
	}

	return nil
}

// maxEnvelopeSignatures is the protocol ceiling on the number of signatures
// of an envelope.
const maxEnvelopeSignatures = 20

// DecodeEnvelope reads an envelope from the decoder.
func DecodeEnvelope(dec *Decoder) (Envelope, error) {
	tx, err := DecodeTransaction(dec)
	if err != nil {
		return Envelope{}, err
	}

	size, err := dec.ReadUint32()
	if err != nil {
		return Envelope{}, err
	}

	if size > maxEnvelopeSignatures {
		return Envelope{}, xerrors.Errorf("number of signatures %d is above the limit %d",
			size, maxEnvelopeSignatures)
	}

	sigs := make([]DecoratedSignature, size)
	for i := range sigs {
		sigs[i], err = DecodeDecoratedSignature(dec)
		if err != nil {
			return Envelope{}, xerrors.Errorf("couldn't decode signature %d: %v", i, err)
		}
	}

	return Envelope{Tx: tx, Signatures: sigs}, nil
}

// EnvelopeFromBase64 decodes an envelope from its base64-encoded XDR
// representation.
func EnvelopeFromBase64(s string) (Envelope, error) {
	data, err := decodeBase64(s)
	if err != nil {
		return Envelope{}, err
	}

	var env Envelope

	err = unmarshal(data, func(dec *Decoder) error {
		var err error
		env, err = DecodeEnvelope(dec)
		return err
	})
	if err != nil {
		return Envelope{}, err
	}

	return env, nil
}
