package contract

import (
	"bytes"

	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// SpecSectionName is the name of the custom section of the bytecode container
// that carries the function specification table.
const SpecSectionName = "contractspecv0"

// maxNameLength bounds the decoded name of a function or of one of its
// parameters.
const maxNameLength = 60

// wasmMagic and wasmVersion open every bytecode container.
var (
	wasmMagic   = []byte{0x00, 0x61, 0x73, 0x6d}
	wasmVersion = []byte{0x01, 0x00, 0x00, 0x00}
)

// TypeKind is the discriminant of a declared parameter type.
type TypeKind uint32

const (
	// TypeU32 declares a 32-bit unsigned numeric parameter.
	TypeU32 TypeKind = 0

	// TypeU64 declares a 64-bit unsigned numeric parameter.
	TypeU64 TypeKind = 1

	// TypeI32 declares a 32-bit signed numeric parameter.
	TypeI32 TypeKind = 2

	// TypeI64 declares a 64-bit signed numeric parameter.
	TypeI64 TypeKind = 3

	// TypeBool declares a boolean parameter.
	TypeBool TypeKind = 4

	// TypeBytes declares a byte-string parameter.
	TypeBytes TypeKind = 5

	// TypeSymbol declares a symbol parameter.
	TypeSymbol TypeKind = 6

	// TypeVec declares a list parameter of a single element type.
	TypeVec TypeKind = 7

	// TypeMap declares a map parameter with key and value types.
	TypeMap TypeKind = 8

	// TypeAccount declares an account identifier parameter.
	TypeAccount TypeKind = 9
)

// Type is a declared parameter type, possibly a composition.
type Type struct {
	Kind TypeKind

	// Elem is the element type of a list.
	Elem *Type

	// Key and Val are the entry types of a map.
	Key *Type
	Val *Type
}

// EncodeXDR implements xdr.Message.
func (t Type) EncodeXDR(enc *xdr.Encoder) error {
	err := enc.WriteUint32(uint32(t.Kind))
	if err != nil {
		return err
	}

	switch t.Kind {
	case TypeVec:
		return t.Elem.EncodeXDR(enc)
	case TypeMap:
		err = t.Key.EncodeXDR(enc)
		if err != nil {
			return err
		}

		return t.Val.EncodeXDR(enc)
	default:
		if t.Kind > TypeAccount {
			return xerrors.Errorf("unknown type kind %d", t.Kind)
		}

		return nil
	}
}

func decodeType(dec *xdr.Decoder) (Type, error) {
	kind, err := dec.ReadUint32()
	if err != nil {
		return Type{}, err
	}

	t := Type{Kind: TypeKind(kind)}

	switch t.Kind {
	case TypeVec:
		elem, err := decodeType(dec)
		if err != nil {
			return Type{}, err
		}

		t.Elem = &elem
	case TypeMap:
		key, err := decodeType(dec)
		if err != nil {
			return Type{}, err
		}

		val, err := decodeType(dec)
		if err != nil {
			return Type{}, err
		}

		t.Key = &key
		t.Val = &val
	default:
		if t.Kind > TypeAccount {
			return Type{}, xerrors.Errorf("unknown type kind %d", kind)
		}
	}

	return t, nil
}

// Input is a declared parameter of a function.
type Input struct {
	Name string
	Type Type
}

// FuncSpec is the declared signature of a contract function: its name and the
// ordered sequence of its parameter types. It is read from the specification
// table embedded in the contract bytecode.
type FuncSpec struct {
	Name    string
	Inputs  []Input
	Outputs []Type
}

// specEntryFunction tags a function entry of the specification table.
const specEntryFunction uint32 = 0

// EncodeXDR implements xdr.Message.
func (spec FuncSpec) EncodeXDR(enc *xdr.Encoder) error {
	err := enc.WriteUint32(specEntryFunction)
	if err != nil {
		return err
	}

	err = enc.WriteString(spec.Name)
	if err != nil {
		return err
	}

	err = enc.WriteUint32(uint32(len(spec.Inputs)))
	if err != nil {
		return err
	}

	for _, input := range spec.Inputs {
		err = enc.WriteString(input.Name)
		if err != nil {
			return err
		}

		err = input.Type.EncodeXDR(enc)
		if err != nil {
			return err
		}
	}

	err = enc.WriteUint32(uint32(len(spec.Outputs)))
	if err != nil {
		return err
	}

	for _, output := range spec.Outputs {
		err = output.EncodeXDR(enc)
		if err != nil {
			return err
		}
	}

	return nil
}

func decodeFuncSpec(dec *xdr.Decoder) (FuncSpec, error) {
	entry, err := dec.ReadUint32()
	if err != nil {
		return FuncSpec{}, err
	}

	if entry != specEntryFunction {
		return FuncSpec{}, xerrors.Errorf("unknown specification entry %d", entry)
	}

	spec := FuncSpec{}

	spec.Name, err = dec.ReadString(maxNameLength)
	if err != nil {
		return FuncSpec{}, err
	}

	size, err := dec.ReadUint32()
	if err != nil {
		return FuncSpec{}, err
	}

	if size > xdr.MaxVecLength {
		return FuncSpec{}, xerrors.Errorf("input count %d is above the limit", size)
	}

	spec.Inputs = make([]Input, size)
	for i := range spec.Inputs {
		spec.Inputs[i].Name, err = dec.ReadString(maxNameLength)
		if err != nil {
			return FuncSpec{}, err
		}

		spec.Inputs[i].Type, err = decodeType(dec)
		if err != nil {
			return FuncSpec{}, err
		}
	}

	size, err = dec.ReadUint32()
	if err != nil {
		return FuncSpec{}, err
	}

	if size > xdr.MaxVecLength {
		return FuncSpec{}, xerrors.Errorf("output count %d is above the limit", size)
	}

	spec.Outputs = make([]Type, size)
	for i := range spec.Outputs {
		spec.Outputs[i], err = decodeType(dec)
		if err != nil {
			return FuncSpec{}, err
		}
	}

	return spec, nil
}

// FunctionNotFound is the error returned when the specification table of a
// contract has no entry for a function.
//
// - implements error
type FunctionNotFound struct {
	Function string
}

// Error implements error.
func (err FunctionNotFound) Error() string {
	return "function '" + err.Function + "' was not found in the contract spec"
}

// ReadSpecs extracts the function specification table embedded in the
// bytecode.
func ReadSpecs(bytecode []byte) ([]FuncSpec, error) {
	payload, err := findSpecSection(bytecode)
	if err != nil {
		return nil, err
	}

	specs := []FuncSpec{}

	buffer := bytes.NewBuffer(payload)
	dec := xdr.NewDecoder(buffer)

	for buffer.Len() > 0 {
		spec, err := decodeFuncSpec(dec)
		if err != nil {
			return nil, xerrors.Errorf("malformed specification entry %d: %v",
				len(specs), err)
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

// FindFunction returns the declared signature of the function, or a
// FunctionNotFound error if the table has no entry for it.
func FindFunction(specs []FuncSpec, function string) (FuncSpec, error) {
	for _, spec := range specs {
		if spec.Name == function {
			return spec, nil
		}
	}

	return FuncSpec{}, FunctionNotFound{Function: function}
}

// findSpecSection walks the sections of the bytecode container and returns
// the payload of the custom section carrying the specification table.
func findSpecSection(bytecode []byte) ([]byte, error) {
	if len(bytecode) < 8 || !bytes.Equal(bytecode[:4], wasmMagic) {
		return nil, xerrors.New("not a bytecode container")
	}

	if !bytes.Equal(bytecode[4:8], wasmVersion) {
		return nil, xerrors.Errorf("unsupported container version %x", bytecode[4:8])
	}

	cursor := bytecode[8:]

	for len(cursor) > 0 {
		id := cursor[0]

		size, n, err := readUvarint(cursor[1:])
		if err != nil {
			return nil, xerrors.Errorf("malformed section size: %v", err)
		}

		cursor = cursor[1+n:]

		if uint64(len(cursor)) < size {
			return nil, xerrors.Errorf("truncated section %d", id)
		}

		payload := cursor[:size]
		cursor = cursor[size:]

		if id != 0 {
			continue
		}

		nameLen, n, err := readUvarint(payload)
		if err != nil {
			return nil, xerrors.Errorf("malformed section name size: %v", err)
		}

		if uint64(len(payload)-n) < nameLen {
			return nil, xerrors.New("truncated section name")
		}

		name := string(payload[n : uint64(n)+nameLen])
		if name == SpecSectionName {
			return payload[uint64(n)+nameLen:], nil
		}
	}

	return nil, xerrors.Errorf("no '%s' section in the bytecode", SpecSectionName)
}

// EncodeModule builds a minimal bytecode container holding only the
// specification table, the way a deployment pipeline embeds it.
func EncodeModule(specs []FuncSpec) ([]byte, error) {
	table := new(bytes.Buffer)
	enc := xdr.NewEncoder(table)

	for i, spec := range specs {
		err := spec.EncodeXDR(enc)
		if err != nil {
			return nil, xerrors.Errorf("couldn't encode entry %d: %v", i, err)
		}
	}

	payload := new(bytes.Buffer)
	writeUvarint(payload, uint64(len(SpecSectionName)))
	payload.WriteString(SpecSectionName)
	payload.Write(table.Bytes())

	module := new(bytes.Buffer)
	module.Write(wasmMagic)
	module.Write(wasmVersion)
	module.WriteByte(0)
	writeUvarint(module, uint64(payload.Len()))
	module.Write(payload.Bytes())

	return module.Bytes(), nil
}

func readUvarint(data []byte) (uint64, int, error) {
	var value uint64
	var shift uint

	for i, b := range data {
		if i >= 10 {
			return 0, 0, xerrors.New("varint overflow")
		}

		value |= uint64(b&0x7f) << shift

		if b&0x80 == 0 {
			return value, i + 1, nil
		}

		shift += 7
	}

	return 0, 0, xerrors.New("truncated varint")
}

func writeUvarint(buffer *bytes.Buffer, value uint64) {
	for {
		b := byte(value & 0x7f)
		value >>= 7

		if value != 0 {
			b |= 0x80
		}

		buffer.WriteByte(b)

		if value == 0 {
			return
		}
	}
}
