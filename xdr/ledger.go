package xdr

import (
	"golang.org/x/xerrors"
)

// publicKeyTypeEd25519 is the discriminant of ed25519 public identities, the
// only key family supported.
const publicKeyTypeEd25519 = 0

// AccountID is the public identity of an account, the raw bytes of an ed25519
// public key.
type AccountID [32]byte

// EncodeXDR implements xdr.Message. It writes the key family followed by the
// raw public key.
func (id AccountID) EncodeXDR(enc *Encoder) error {
	err := enc.WriteUint32(publicKeyTypeEd25519)
	if err != nil {
		return err
	}

	return enc.WriteFixedOpaque(id[:])
}

// DecodeAccountID reads an account identifier from the decoder.
func DecodeAccountID(dec *Decoder) (AccountID, error) {
	family, err := dec.ReadUint32()
	if err != nil {
		return AccountID{}, err
	}

	if family != publicKeyTypeEd25519 {
		return AccountID{}, xerrors.Errorf("unknown public key family %d", family)
	}

	data, err := dec.ReadFixedOpaque(32)
	if err != nil {
		return AccountID{}, err
	}

	id := AccountID{}
	copy(id[:], data)

	return id, nil
}

// ContractID is the deterministic identifier of a deployed contract, always
// exactly 32 bytes.
type ContractID [32]byte

// EncodeXDR implements xdr.Message. It writes the raw identifier.
func (id ContractID) EncodeXDR(enc *Encoder) error {
	return enc.WriteFixedOpaque(id[:])
}

// DecodeContractID reads a contract identifier from the decoder.
func DecodeContractID(dec *Decoder) (ContractID, error) {
	data, err := dec.ReadFixedOpaque(32)
	if err != nil {
		return ContractID{}, err
	}

	id := ContractID{}
	copy(id[:], data)

	return id, nil
}

// LedgerKeyType is the discriminant of the ledger key union.
type LedgerKeyType uint32

const (
	// KeyTypeAccount tags the ledger key of an account entry.
	KeyTypeAccount LedgerKeyType = 0

	// KeyTypeContractData tags the ledger key of a contract data entry.
	KeyTypeContractData LedgerKeyType = 1
)

// LedgerKey addresses one entry of the ledger. Only the fields matching the
// type are meaningful.
type LedgerKey struct {
	Type     LedgerKeyType
	Account  AccountID
	Contract ContractID
	Key      Value
}

// AccountKey returns the ledger key of the account entry.
func AccountKey(id AccountID) LedgerKey {
	return LedgerKey{Type: KeyTypeAccount, Account: id}
}

// ContractDataKey returns the ledger key of the contract data entry addressed
// by the value.
func ContractDataKey(id ContractID, key Value) LedgerKey {
	return LedgerKey{Type: KeyTypeContractData, Contract: id, Key: key}
}

// ContractCodeKey returns the ledger key of the bytecode of the contract.
func ContractCodeKey(id ContractID) LedgerKey {
	return ContractDataKey(id, StaticValue(StaticContractCode))
}

// EncodeXDR implements xdr.Message. It writes the discriminant of the key
// followed by the arm matching it.
func (k LedgerKey) EncodeXDR(enc *Encoder) error {
	err := enc.WriteUint32(uint32(k.Type))
	if err != nil {
		return err
	}

	switch k.Type {
	case KeyTypeAccount:
		return k.Account.EncodeXDR(enc)
	case KeyTypeContractData:
		err = k.Contract.EncodeXDR(enc)
		if err != nil {
			return err
		}

		return k.Key.EncodeXDR(enc)
	default:
		return xerrors.Errorf("unknown ledger key type %d", k.Type)
	}
}

// DecodeLedgerKey reads a ledger key from the decoder.
func DecodeLedgerKey(dec *Decoder) (LedgerKey, error) {
	t, err := dec.ReadUint32()
	if err != nil {
		return LedgerKey{}, err
	}

	k := LedgerKey{Type: LedgerKeyType(t)}

	switch k.Type {
	case KeyTypeAccount:
		k.Account, err = DecodeAccountID(dec)
	case KeyTypeContractData:
		k.Contract, err = DecodeContractID(dec)
		if err != nil {
			return LedgerKey{}, err
		}

		k.Key, err = DecodeValue(dec)
	default:
		return LedgerKey{}, xerrors.Errorf("unknown ledger key type %d", t)
	}

	if err != nil {
		return LedgerKey{}, err
	}

	return k, nil
}

// LedgerKeyFromBytes decodes a ledger key from its XDR representation.
func LedgerKeyFromBytes(data []byte) (LedgerKey, error) {
	var k LedgerKey

	err := unmarshal(data, func(dec *Decoder) error {
		var err error
		k, err = DecodeLedgerKey(dec)
		return err
	})
	if err != nil {
		return LedgerKey{}, err
	}

	return k, nil
}

// Canonical returns the canonical representation of the key, which is its XDR
// encoding. Two keys address the same entry if and only if their canonical
// representations are equal. It panics if the key is malformed, as keys are
// only built by this module.
func (k LedgerKey) Canonical() string {
	data, err := Marshal(k)
	if err != nil {
		panic(xerrors.Errorf("malformed ledger key: %v", err))
	}

	return string(data)
}

// LedgerEntry is the content stored under a ledger key. The payload is opaque
// to this module beyond its value encoding.
type LedgerEntry struct {
	// LastModified is the sequence number of the ledger that last wrote the
	// entry.
	LastModified uint32

	// Data is the stored value.
	Data Value
}

// EncodeXDR implements xdr.Message.
func (e LedgerEntry) EncodeXDR(enc *Encoder) error {
	err := enc.WriteUint32(e.LastModified)
	if err != nil {
		return err
	}

	return e.Data.EncodeXDR(enc)
}

// DecodeLedgerEntry reads a ledger entry from the decoder.
func DecodeLedgerEntry(dec *Decoder) (LedgerEntry, error) {
	seq, err := dec.ReadUint32()
	if err != nil {
		return LedgerEntry{}, err
	}

	data, err := DecodeValue(dec)
	if err != nil {
		return LedgerEntry{}, err
	}

	return LedgerEntry{LastModified: seq, Data: data}, nil
}

// LedgerEntryFromBytes decodes a ledger entry from its XDR representation.
func LedgerEntryFromBytes(data []byte) (LedgerEntry, error) {
	var e LedgerEntry

	err := unmarshal(data, func(dec *Decoder) error {
		var err error
		e, err = DecodeLedgerEntry(dec)
		return err
	})
	if err != nil {
		return LedgerEntry{}, err
	}

	return e, nil
}

// Footprint is the set of ledger keys a transaction is authorized to read
// and/or write. The read-write keys touched by an execution must be a subset
// of the read-write set.
type Footprint struct {
	ReadOnly  []LedgerKey
	ReadWrite []LedgerKey
}

// EncodeXDR implements xdr.Message.
func (f Footprint) EncodeXDR(enc *Encoder) error {
	err := encodeKeys(enc, f.ReadOnly)
	if err != nil {
		return err
	}

	return encodeKeys(enc, f.ReadWrite)
}

func encodeKeys(enc *Encoder, keys []LedgerKey) error {
	err := enc.WriteUint32(uint32(len(keys)))
	if err != nil {
		return err
	}

	for _, key := range keys {
		err = key.EncodeXDR(enc)
		if err != nil {
			return err
		}
	}

	return nil
}

// DecodeFootprint reads a footprint from the decoder.
func DecodeFootprint(dec *Decoder) (Footprint, error) {
	ro, err := decodeKeys(dec)
	if err != nil {
		return Footprint{}, err
	}

	rw, err := decodeKeys(dec)
	if err != nil {
		return Footprint{}, err
	}

	return Footprint{ReadOnly: ro, ReadWrite: rw}, nil
}

func decodeKeys(dec *Decoder) ([]LedgerKey, error) {
	size, err := dec.ReadUint32()
	if err != nil {
		return nil, err
	}

	if size > MaxVecLength {
		return nil, xerrors.Errorf("key set size %d is above the limit %d",
			size, MaxVecLength)
	}

	keys := make([]LedgerKey, size)
	for i := range keys {
		keys[i], err = DecodeLedgerKey(dec)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode key %d: %v", i, err)
		}
	}

	return keys, nil
}

// FootprintFromBase64 decodes a footprint from its base64-encoded XDR
// representation.
func FootprintFromBase64(s string) (Footprint, error) {
	data, err := decodeBase64(s)
	if err != nil {
		return Footprint{}, err
	}

	var f Footprint

	err = unmarshal(data, func(dec *Decoder) error {
		var err error
		f, err = DecodeFootprint(dec)
		return err
	})
	if err != nil {
		return Footprint{}, err
	}

	return f, nil
}

// Equal returns true if both footprints authorize the same key sets. The
// order of the keys is not meaningful.
func (f Footprint) Equal(other Footprint) bool {
	return keySetEqual(f.ReadOnly, other.ReadOnly) &&
		keySetEqual(f.ReadWrite, other.ReadWrite)
}

func keySetEqual(a, b []LedgerKey) bool {
	left := make(map[string]struct{}, len(a))
	for _, key := range a {
		left[key.Canonical()] = struct{}{}
	}

	right := make(map[string]struct{}, len(b))
	for _, key := range b {
		right[key.Canonical()] = struct{}{}
	}

	if len(left) != len(right) {
		return false
	}

	for key := range right {
		_, found := left[key]
		if !found {
			return false
		}
	}

	return true
}
