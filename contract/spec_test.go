package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeSpecs(t *testing.T) []FuncSpec {
	t.Helper()

	return []FuncSpec{
		{
			Name: "add",
			Inputs: []Input{
				{Name: "a", Type: Type{Kind: TypeU32}},
				{Name: "b", Type: Type{Kind: TypeU32}},
			},
			Outputs: []Type{{Kind: TypeU64}},
		},
		{
			Name: "register",
			Inputs: []Input{
				{Name: "owner", Type: Type{Kind: TypeAccount}},
				{Name: "tags", Type: Type{
					Kind: TypeVec,
					Elem: &Type{Kind: TypeSymbol},
				}},
				{Name: "meta", Type: Type{
					Kind: TypeMap,
					Key:  &Type{Kind: TypeSymbol},
					Val:  &Type{Kind: TypeBytes},
				}},
			},
		},
	}
}

func TestReadSpecs(t *testing.T) {
	module, err := EncodeModule(makeSpecs(t))
	require.NoError(t, err)

	specs, err := ReadSpecs(module)
	require.NoError(t, err)
	require.Equal(t, makeSpecs(t), specs)
}

func TestReadSpecs_NotAContainer(t *testing.T) {
	_, err := ReadSpecs([]byte("oops"))
	require.EqualError(t, err, "not a bytecode container")

	_, err = ReadSpecs(append([]byte{0x00, 0x61, 0x73, 0x6d}, 9, 9, 9, 9))
	require.EqualError(t, err, "unsupported container version 09090909")
}

func TestReadSpecs_MissingSection(t *testing.T) {
	// A container with a single non-custom section.
	module := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x01, 0x00,
	}

	_, err := ReadSpecs(module)
	require.EqualError(t, err, "no 'contractspecv0' section in the bytecode")
}

func TestReadSpecs_TruncatedSection(t *testing.T) {
	module := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x7f,
	}

	_, err := ReadSpecs(module)
	require.EqualError(t, err, "truncated section 0")
}

func TestReadSpecs_MalformedEntry(t *testing.T) {
	payload := []byte{byte(len(SpecSectionName))}
	payload = append(payload, []byte(SpecSectionName)...)
	// An unknown entry discriminant.
	payload = append(payload, 0, 0, 0, 9)

	module := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x00}
	module = append(module, byte(len(payload)))
	module = append(module, payload...)

	_, err := ReadSpecs(module)
	require.EqualError(t, err,
		"malformed specification entry 0: unknown specification entry 9")
}

func TestFindFunction(t *testing.T) {
	specs := makeSpecs(t)

	spec, err := FindFunction(specs, "register")
	require.NoError(t, err)
	require.Equal(t, "register", spec.Name)

	_, err = FindFunction(specs, "missing")
	require.EqualError(t, err, "function 'missing' was not found in the contract spec")
	require.IsType(t, FunctionNotFound{}, err)
}
