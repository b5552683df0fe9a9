// Package token creates instances of the built-in token contract, either in
// a local sandbox or on a network through an RPC server.
//
// A creation is a deploy followed by an initialization of the deployed
// instance with its administrator and metadata. The sandbox fuses both in a
// single host session; the remote path submits them as two consecutive
// transactions.
package token

import (
	"fmt"

	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// maxSymbolLength is the longest allowed asset code.
const maxSymbolLength = 12

// Creation describes the token instance to create.
type Creation struct {
	// Admin is the administrator account. When nil, each backend picks its
	// default: the zero account in the sandbox, the signing account on the
	// remote path.
	Admin *xdr.AccountID

	// Name is the long name of the token.
	Name string

	// Symbol is the short asset code of the token.
	Symbol string

	// Decimals is the number of decimal places.
	Decimals uint32

	// Salt takes part in the identifier derivation. The zero salt is used
	// verbatim in the sandbox and replaced by a random one on the remote
	// path.
	Salt [32]byte
}

// validate rejects a creation before any ledger or network interaction.
func (c Creation) validate() error {
	if len(c.Symbol) > maxSymbolLength {
		return InvalidAssetCode{Asset: c.Symbol}
	}

	return nil
}

// InvalidAssetCode is the error returned when the token symbol does not fit
// in an asset code.
//
// - implements error
type InvalidAssetCode struct {
	Asset string
}

// Error implements error.
func (err InvalidAssetCode) Error() string {
	return fmt.Sprintf("invalid asset code: %s", err.Asset)
}

// Storage keys the initialization writes, which the remote path declares in
// the footprint of the init operation.
var (
	adminKey    = xdr.SymbolValue("Admin")
	metadataKey = xdr.SymbolValue("Metadata")
)

// initParams builds the parameter list of the init call: the contract
// identifier, the init symbol, the administrator identifier and the metadata
// map.
func initParams(id xdr.ContractID, admin xdr.AccountID, name, symbol string,
	decimals uint32) (xdr.Params, error) {

	meta, err := xdr.MapValue([]xdr.MapEntry{
		{Key: xdr.SymbolValue("decimals"), Val: xdr.U32Value(decimals)},
		{Key: xdr.SymbolValue("name"), Val: xdr.BytesValue([]byte(name))},
		{Key: xdr.SymbolValue("symbol"), Val: xdr.BytesValue([]byte(symbol))},
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't build metadata: %v", err)
	}

	return xdr.Params{
		xdr.BytesValue(id[:]),
		xdr.SymbolValue("init"),
		xdr.VecValue(xdr.SymbolValue("Account"), xdr.AccountValue(admin)),
		meta,
	}, nil
}

// contractID reads the identifier returned by a deploy call.
func contractID(v xdr.Value) (xdr.ContractID, error) {
	if v.Kind != xdr.KindBytes || len(v.Bytes) != 32 {
		return xdr.ContractID{}, xerrors.New("deploy did not return an identifier")
	}

	id := xdr.ContractID{}
	copy(id[:], v.Bytes)

	return id, nil
}
