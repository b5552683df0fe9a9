package xdr

import (
	"sort"

	"golang.org/x/xerrors"
)

const (
	// SymbolMaxLength is the maximum number of characters of a symbol.
	SymbolMaxLength = 10

	// MaxVecLength is the protocol ceiling on the number of items of a vector,
	// which also bounds the parameter list of a host function call.
	MaxVecLength = 256_000

	// MaxBytesLength is the protocol ceiling on the size of a byte-string
	// value, large enough to carry contract bytecode.
	MaxBytesLength = 16_000_000
)

// ValueKind is the discriminant of the value union.
type ValueKind uint32

const (
	// KindU32 tags a 32-bit unsigned numeric value.
	KindU32 ValueKind = 0

	// KindU64 tags a 64-bit unsigned numeric value.
	KindU64 ValueKind = 1

	// KindI32 tags a 32-bit signed numeric value.
	KindI32 ValueKind = 2

	// KindI64 tags a 64-bit signed numeric value.
	KindI64 ValueKind = 3

	// KindStatic tags one of the well-known static values.
	KindStatic ValueKind = 4

	// KindBytes tags a byte-string value.
	KindBytes ValueKind = 5

	// KindSymbol tags a symbol value.
	KindSymbol ValueKind = 6

	// KindVec tags an ordered list of values.
	KindVec ValueKind = 7

	// KindMap tags a list of key/value pairs sorted by key encoding.
	KindMap ValueKind = 8

	// KindAccount tags an account identifier value.
	KindAccount ValueKind = 9
)

// Static enumerates the well-known static values.
type Static uint32

const (
	// StaticVoid is the unit value.
	StaticVoid Static = 0

	// StaticTrue is the boolean true value.
	StaticTrue Static = 1

	// StaticFalse is the boolean false value.
	StaticFalse Static = 2

	// StaticContractCode is the ledger key of the bytecode of a contract.
	StaticContractCode Static = 3
)

// Symbol is a short interned-string-like value used for function and field
// names in call parameters.
type Symbol string

// NewSymbol returns the symbol for the name, or an error if the name is longer
// than the symbol ceiling or uses characters outside of [a-zA-Z0-9_].
func NewSymbol(name string) (Symbol, error) {
	if len(name) > SymbolMaxLength {
		return "", xerrors.Errorf("symbol '%s' is longer than %d characters",
			name, SymbolMaxLength)
	}

	for _, r := range name {
		ok := r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')

		if !ok {
			return "", xerrors.Errorf("symbol '%s' contains invalid character '%c'",
				name, r)
		}
	}

	return Symbol(name), nil
}

// MapEntry is a key/value pair of a map value.
type MapEntry struct {
	Key Value
	Val Value
}

// Value is the tagged union of the values that can be passed to, returned by,
// or stored by a contract. Only the field matching the kind is meaningful.
type Value struct {
	Kind    ValueKind
	U32     uint32
	U64     uint64
	I32     int32
	I64     int64
	Static  Static
	Bytes   []byte
	Symbol  Symbol
	Vec     []Value
	Map     []MapEntry
	Account AccountID
}

// U32Value returns a 32-bit unsigned numeric value.
func U32Value(v uint32) Value {
	return Value{Kind: KindU32, U32: v}
}

// U64Value returns a 64-bit unsigned numeric value.
func U64Value(v uint64) Value {
	return Value{Kind: KindU64, U64: v}
}

// I32Value returns a 32-bit signed numeric value.
func I32Value(v int32) Value {
	return Value{Kind: KindI32, I32: v}
}

// I64Value returns a 64-bit signed numeric value.
func I64Value(v int64) Value {
	return Value{Kind: KindI64, I64: v}
}

// VoidValue returns the unit value.
func VoidValue() Value {
	return Value{Kind: KindStatic, Static: StaticVoid}
}

// BoolValue returns the static value for the boolean.
func BoolValue(v bool) Value {
	if v {
		return Value{Kind: KindStatic, Static: StaticTrue}
	}

	return Value{Kind: KindStatic, Static: StaticFalse}
}

// StaticValue returns the value of the given static kind.
func StaticValue(s Static) Value {
	return Value{Kind: KindStatic, Static: s}
}

// BytesValue returns a byte-string value.
func BytesValue(data []byte) Value {
	return Value{Kind: KindBytes, Bytes: data}
}

// SymbolValue returns a symbol value.
func SymbolValue(sym Symbol) Value {
	return Value{Kind: KindSymbol, Symbol: sym}
}

// VecValue returns an ordered list of values.
func VecValue(items ...Value) Value {
	return Value{Kind: KindVec, Vec: items}
}

// AccountValue returns an account identifier value.
func AccountValue(id AccountID) Value {
	return Value{Kind: KindAccount, Account: id}
}

// MapValue returns a map value with the entries sorted by the encoding of
// their keys. It returns an error if a key cannot be encoded, or if two
// entries share the same key.
func MapValue(entries []MapEntry) (Value, error) {
	sorted := make([]MapEntry, len(entries))
	copy(sorted, entries)

	keys := make([]string, len(sorted))
	for i, entry := range sorted {
		data, err := Marshal(entry.Key)
		if err != nil {
			return Value{}, xerrors.Errorf("couldn't encode key: %v", err)
		}

		keys[i] = string(data)
	}

	sort.Sort(&mapSorter{entries: sorted, keys: keys})

	for i := 1; i < len(keys); i++ {
		if keys[i-1] == keys[i] {
			return Value{}, xerrors.Errorf("duplicate key in map at index %d", i)
		}
	}

	return Value{Kind: KindMap, Map: sorted}, nil
}

// EncodeXDR implements xdr.Message. It writes the discriminant of the value
// followed by the arm matching it.
func (v Value) EncodeXDR(enc *Encoder) error {
	err := enc.WriteUint32(uint32(v.Kind))
	if err != nil {
		return err
	}

	switch v.Kind {
	case KindU32:
		return enc.WriteUint32(v.U32)
	case KindU64:
		return enc.WriteUint64(v.U64)
	case KindI32:
		return enc.WriteInt32(v.I32)
	case KindI64:
		return enc.WriteInt64(v.I64)
	case KindStatic:
		return enc.WriteUint32(uint32(v.Static))
	case KindBytes:
		return enc.WriteOpaque(v.Bytes)
	case KindSymbol:
		return enc.WriteString(string(v.Symbol))
	case KindVec:
		return encodeVec(enc, v.Vec)
	case KindMap:
		err = enc.WriteUint32(uint32(len(v.Map)))
		if err != nil {
			return err
		}

		for _, entry := range v.Map {
			err = entry.Key.EncodeXDR(enc)
			if err != nil {
				return err
			}

			err = entry.Val.EncodeXDR(enc)
			if err != nil {
				return err
			}
		}

		return nil
	case KindAccount:
		return v.Account.EncodeXDR(enc)
	default:
		return xerrors.Errorf("unknown value kind %d", v.Kind)
	}
}

func encodeVec(enc *Encoder, items []Value) error {
	err := enc.WriteUint32(uint32(len(items)))
	if err != nil {
		return err
	}

	for _, item := range items {
		err = item.EncodeXDR(enc)
		if err != nil {
			return err
		}
	}

	return nil
}

// DecodeValue reads a value from the decoder.
func DecodeValue(dec *Decoder) (Value, error) {
	kind, err := dec.ReadUint32()
	if err != nil {
		return Value{}, err
	}

	v := Value{Kind: ValueKind(kind)}

	switch v.Kind {
	case KindU32:
		v.U32, err = dec.ReadUint32()
	case KindU64:
		v.U64, err = dec.ReadUint64()
	case KindI32:
		v.I32, err = dec.ReadInt32()
	case KindI64:
		v.I64, err = dec.ReadInt64()
	case KindStatic:
		var s uint32

		s, err = dec.ReadUint32()
		if err == nil && s > uint32(StaticContractCode) {
			return Value{}, xerrors.Errorf("unknown static value %d", s)
		}

		v.Static = Static(s)
	case KindBytes:
		v.Bytes, err = dec.ReadOpaque(MaxBytesLength)
	case KindSymbol:
		var name string

		name, err = dec.ReadString(SymbolMaxLength)
		v.Symbol = Symbol(name)
	case KindVec:
		v.Vec, err = decodeVec(dec)
	case KindMap:
		v.Map, err = decodeMap(dec)
	case KindAccount:
		v.Account, err = DecodeAccountID(dec)
	default:
		return Value{}, xerrors.Errorf("unknown value kind %d", kind)
	}

	if err != nil {
		return Value{}, err
	}

	return v, nil
}

func decodeVec(dec *Decoder) ([]Value, error) {
	size, err := dec.ReadUint32()
	if err != nil {
		return nil, err
	}

	if size > MaxVecLength {
		return nil, xerrors.Errorf("vector size %d is above the limit %d",
			size, MaxVecLength)
	}

	items := make([]Value, size)
	for i := range items {
		items[i], err = DecodeValue(dec)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode item %d: %v", i, err)
		}
	}

	return items, nil
}

func decodeMap(dec *Decoder) ([]MapEntry, error) {
	size, err := dec.ReadUint32()
	if err != nil {
		return nil, err
	}

	if size > MaxVecLength {
		return nil, xerrors.Errorf("map size %d is above the limit %d",
			size, MaxVecLength)
	}

	entries := make([]MapEntry, size)
	for i := range entries {
		entries[i].Key, err = DecodeValue(dec)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode key %d: %v", i, err)
		}

		entries[i].Val, err = DecodeValue(dec)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode value %d: %v", i, err)
		}
	}

	return entries, nil
}

// ValueFromBytes decodes a value from its XDR representation. It returns an
// error if bytes are left over once the value is decoded.
func ValueFromBytes(data []byte) (Value, error) {
	var v Value

	err := unmarshal(data, func(dec *Decoder) error {
		var err error
		v, err = DecodeValue(dec)
		return err
	})
	if err != nil {
		return Value{}, err
	}

	return v, nil
}

// ValueFromBase64 decodes a value from its base64-encoded XDR representation.
func ValueFromBase64(s string) (Value, error) {
	data, err := decodeBase64(s)
	if err != nil {
		return Value{}, err
	}

	return ValueFromBytes(data)
}

// Params is the ordered parameter list of a host function call. Its first item
// is the contract identifier, followed by the function symbol and the
// function arguments.
type Params []Value

// EncodeXDR implements xdr.Message. It writes the parameters as a vector of
// values.
func (p Params) EncodeXDR(enc *Encoder) error {
	return encodeVec(enc, p)
}

// DecodeParams reads a parameter list from the decoder.
func DecodeParams(dec *Decoder) (Params, error) {
	items, err := decodeVec(dec)
	if err != nil {
		return nil, err
	}

	return Params(items), nil
}

// mapSorter sorts map entries by the encoding of their keys.
//
// - implements sort.Interface
type mapSorter struct {
	entries []MapEntry
	keys    []string
}

func (s *mapSorter) Len() int {
	return len(s.entries)
}

func (s *mapSorter) Less(i, j int) bool {
	return s.keys[i] < s.keys[j]
}

func (s *mapSorter) Swap(i, j int) {
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
