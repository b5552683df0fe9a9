// Package contract provides the deterministic derivation of contract
// identifiers, the extraction of the function specification table embedded in
// contract bytecode, and the marshaling of command-line-supplied arguments
// into the validated parameter list of a host function call.
package contract

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"go.dedis.ch/stela/xdr"
	"golang.org/x/xerrors"
)

// preimageSourceAccount tags the canonical preimage of an identifier derived
// from a source account and a salt.
const preimageSourceAccount uint32 = 1

// ZeroAccount is the account sentinel used when no identity is supplied, for
// instance as the default administrator of a sandbox token.
var ZeroAccount = xdr.AccountID{}

// ZeroSalt is the salt sentinel that lets a strategy substitute a randomly
// generated salt before deriving an identifier.
var ZeroSalt = [32]byte{}

// DeriveID computes the identifier of a contract deployed by the source
// account with the salt. It hashes the canonical preimage of the pair, so
// identical inputs always yield the identical identifier, whichever execution
// strategy asks for it.
func DeriveID(source xdr.AccountID, salt [32]byte) (xdr.ContractID, error) {
	buffer := new(bytes.Buffer)
	enc := xdr.NewEncoder(buffer)

	err := enc.WriteUint32(preimageSourceAccount)
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't write tag: %v", err)
	}

	err = source.EncodeXDR(enc)
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't write source: %v", err)
	}

	err = enc.WriteFixedOpaque(salt[:])
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("couldn't write salt: %v", err)
	}

	return xdr.ContractID(sha256.Sum256(buffer.Bytes())), nil
}

// ParseID parses the hexadecimal form of a contract identifier, which must be
// exactly 32 bytes.
func ParseID(s string) (xdr.ContractID, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return xdr.ContractID{}, xerrors.Errorf("cannot parse contract id '%s': %v", s, err)
	}

	if len(data) != 32 {
		return xdr.ContractID{}, xerrors.Errorf(
			"cannot parse contract id '%s': expected 32 bytes, got %d", s, len(data))
	}

	id := xdr.ContractID{}
	copy(id[:], data)

	return id, nil
}

// ParseSalt parses the hexadecimal form of a 32-byte salt.
func ParseSalt(s string) ([32]byte, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return [32]byte{}, xerrors.Errorf("cannot parse salt '%s': %v", s, err)
	}

	if len(data) != 32 {
		return [32]byte{}, xerrors.Errorf(
			"cannot parse salt '%s': expected 32 bytes, got %d", s, len(data))
	}

	salt := [32]byte{}
	copy(salt[:], data)

	return salt, nil
}
