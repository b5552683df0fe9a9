package crypto

import (
	"encoding/base32"

	"golang.org/x/xerrors"
)

// Version bytes of the text encoding of key material. The first character of
// the encoded form is determined by the version: 'G' for addresses and 'S'
// for secret seeds.
const (
	versionAddress byte = 6 << 3
	versionSeed    byte = 18 << 3
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeAddress returns the text encoding of a public identity.
func EncodeAddress(pub [32]byte) string {
	return encodeKey(versionAddress, pub)
}

// DecodeAddress parses the text encoding of a public identity.
func DecodeAddress(address string) ([32]byte, error) {
	data, err := decodeKey(versionAddress, address)
	if err != nil {
		return [32]byte{}, xerrors.Errorf("malformed address: %v", err)
	}

	return data, nil
}

// EncodeSeed returns the text encoding of a secret seed.
func EncodeSeed(seed [32]byte) string {
	return encodeKey(versionSeed, seed)
}

// DecodeSeed parses the text encoding of a secret seed.
func DecodeSeed(seed string) ([32]byte, error) {
	data, err := decodeKey(versionSeed, seed)
	if err != nil {
		return [32]byte{}, xerrors.Errorf("malformed seed: %v", err)
	}

	return data, nil
}

func encodeKey(version byte, key [32]byte) string {
	payload := make([]byte, 0, 35)
	payload = append(payload, version)
	payload = append(payload, key[:]...)

	checksum := crc16(payload)
	payload = append(payload, byte(checksum), byte(checksum>>8))

	return b32.EncodeToString(payload)
}

func decodeKey(version byte, encoded string) ([32]byte, error) {
	payload, err := b32.DecodeString(encoded)
	if err != nil {
		return [32]byte{}, xerrors.Errorf("couldn't decode base32: %v", err)
	}

	if len(payload) != 35 {
		return [32]byte{}, xerrors.Errorf("invalid length %d", len(payload))
	}

	expected := crc16(payload[:33])
	checksum := uint16(payload[33]) | uint16(payload[34])<<8

	if checksum != expected {
		return [32]byte{}, xerrors.New("invalid checksum")
	}

	if payload[0] != version {
		return [32]byte{}, xerrors.Errorf("unexpected version byte 0x%x", payload[0])
	}

	key := [32]byte{}
	copy(key[:], payload[1:33])

	return key, nil
}

// crc16 computes the CRC16-XMODEM checksum of the data.
func crc16(data []byte) uint16 {
	var crc uint16

	for _, b := range data {
		crc ^= uint16(b) << 8

		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}

	return crc
}
