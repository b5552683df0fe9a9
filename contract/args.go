package contract

import (
	"fmt"
	"sort"

	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// Argument is one function argument supplied on the command line. It is
// either a typed string literal to be parsed against the declared parameter
// type, or an already-encoded value to be decoded verbatim. The position is
// the index of the flag on the command line, so that the two families can be
// merged back into the order the caller wrote them.
type Argument struct {
	// Position is the original command-line position of the argument.
	Position int

	// Encoded is true when the token is a base64 XDR value.
	Encoded bool

	// Token is the raw command-line token.
	Token string
}

// StringArg returns a typed-string argument at the given position.
func StringArg(position int, token string) Argument {
	return Argument{Position: position, Token: token}
}

// XDRArg returns an xdr-encoded argument at the given position.
func XDRArg(position int, token string) Argument {
	return Argument{Position: position, Encoded: true, Token: token}
}

// UnexpectedArgumentCount is the error returned when the number of supplied
// arguments differs from the number of declared parameters.
//
// - implements error
type UnexpectedArgumentCount struct {
	Provided int
	Expected int
	Function string
}

// Error implements error.
func (err UnexpectedArgumentCount) Error() string {
	return fmt.Sprintf("unexpected number of arguments: %d (function '%s' expects %d argument(s))",
		err.Provided, err.Function, err.Expected)
}

// ArgumentParseError is the error returned when an argument token cannot be
// decoded into the declared parameter type.
//
// - implements error
type ArgumentParseError struct {
	Position int
	Token    string
	Err      error
}

// Error implements error.
func (err ArgumentParseError) Error() string {
	return fmt.Sprintf("parsing argument %d '%s': %v", err.Position, err.Token, err.Err)
}

// Unwrap returns the underlying parsing error.
func (err ArgumentParseError) Unwrap() error {
	return err.Err
}

// FunctionNameTooLong is the error returned when a function name does not fit
// in a symbol.
//
// - implements error
type FunctionNameTooLong struct {
	Function string
}

// Error implements error.
func (err FunctionNameTooLong) Error() string {
	return fmt.Sprintf("function name '%s' is too long", err.Function)
}

// MaxArgumentsReached is the error returned when the complete parameter list
// exceeds the protocol ceiling.
//
// - implements error
type MaxArgumentsReached struct {
	Current int
	Maximum int
}

// Error implements error.
func (err MaxArgumentsReached) Error() string {
	return fmt.Sprintf("argument count (%d) surpasses maximum allowed count (%d)",
		err.Current, err.Maximum)
}

// BuildParams marshals the supplied arguments into the parameter list of a
// host function call, validated against the signature the bytecode declares
// for the function. The resulting list starts with the contract identifier
// and the function symbol, followed by the decoded arguments in the order the
// caller wrote them.
func BuildParams(id xdr.ContractID, bytecode []byte, function string,
	args []Argument) (xdr.Params, error) {

	specs, err := ReadSpecs(bytecode)
	if err != nil {
		return nil, xerrors.Errorf("couldn't read contract spec: %v", err)
	}

	spec, err := FindFunction(specs, function)
	if err != nil {
		return nil, err
	}

	// Reassemble the arguments in the order they were given on the command
	// line, whichever family each of them came from.
	merged := make([]Argument, len(args))
	copy(merged, args)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Position < merged[j].Position
	})

	if len(merged) != len(spec.Inputs) {
		return nil, UnexpectedArgumentCount{
			Provided: len(merged),
			Expected: len(spec.Inputs),
			Function: function,
		}
	}

	sym, err := xdr.NewSymbol(function)
	if err != nil {
		return nil, FunctionNameTooLong{Function: function}
	}

	params := xdr.Params{xdr.BytesValue(id[:]), xdr.SymbolValue(sym)}

	for i, arg := range merged {
		var value xdr.Value

		if arg.Encoded {
			// Trusted-input bypass: the encoded value is decoded verbatim,
			// without type-checking against the declared parameter.
			value, err = xdr.ValueFromBase64(arg.Token)
		} else {
			value, err = ParseValue(arg.Token, spec.Inputs[i].Type)
		}

		if err != nil {
			return nil, ArgumentParseError{
				Position: arg.Position,
				Token:    arg.Token,
				Err:      err,
			}
		}

		params = append(params, value)
	}

	if len(params) > xdr.MaxVecLength {
		return nil, MaxArgumentsReached{
			Current: len(params),
			Maximum: xdr.MaxVecLength,
		}
	}

	return params, nil
}
