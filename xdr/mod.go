// Package xdr implements the binary encoding used on the wire and in the
// ledger, alongside the Go definitions of the values, ledger keys, footprints
// and transaction structures that are exchanged with a network or persisted in
// a sandbox snapshot.
//
// The encoding follows the XDR rules: every item is serialized to a multiple
// of four bytes in big-endian order, variable-length items are prefixed by
// their size and unions are prefixed by their discriminant.
package xdr

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// Message is the interface implemented by the types that can be serialized to
// their XDR representation.
type Message interface {
	EncodeXDR(enc *Encoder) error
}

// Marshal returns the XDR representation of the message.
func Marshal(m Message) ([]byte, error) {
	buffer := new(bytes.Buffer)

	err := m.EncodeXDR(NewEncoder(buffer))
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode message: %v", err)
	}

	return buffer.Bytes(), nil
}

// MarshalBase64 returns the XDR representation of the message encoded with the
// standard base64 alphabet.
func MarshalBase64(m Message) (string, error) {
	data, err := Marshal(m)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode base64: %v", err)
	}

	return data, nil
}

var padding = [4]byte{}

// Encoder writes XDR items to an underlying writer.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns a new encoder that writes to the given writer.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteUint32 writes a 32-bit unsigned integer.
func (enc *Encoder) WriteUint32(v uint32) error {
	buffer := make([]byte, 4)
	binary.BigEndian.PutUint32(buffer, v)

	_, err := enc.w.Write(buffer)
	if err != nil {
		return xerrors.Errorf("couldn't write uint32: %v", err)
	}

	return nil
}

// WriteInt32 writes a 32-bit signed integer.
func (enc *Encoder) WriteInt32(v int32) error {
	return enc.WriteUint32(uint32(v))
}

// WriteUint64 writes a 64-bit unsigned integer.
func (enc *Encoder) WriteUint64(v uint64) error {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, v)

	_, err := enc.w.Write(buffer)
	if err != nil {
		return xerrors.Errorf("couldn't write uint64: %v", err)
	}

	return nil
}

// WriteInt64 writes a 64-bit signed integer.
func (enc *Encoder) WriteInt64(v int64) error {
	return enc.WriteUint64(uint64(v))
}

// WriteBool writes a boolean as a 32-bit integer.
func (enc *Encoder) WriteBool(v bool) error {
	if v {
		return enc.WriteUint32(1)
	}

	return enc.WriteUint32(0)
}

// WriteFixedOpaque writes the bytes and pads them to a multiple of four bytes.
func (enc *Encoder) WriteFixedOpaque(data []byte) error {
	_, err := enc.w.Write(data)
	if err != nil {
		return xerrors.Errorf("couldn't write opaque: %v", err)
	}

	if len(data)%4 != 0 {
		_, err = enc.w.Write(padding[:4-len(data)%4])
		if err != nil {
			return xerrors.Errorf("couldn't write padding: %v", err)
		}
	}

	return nil
}

// WriteOpaque writes the size of the bytes followed by the padded bytes.
func (enc *Encoder) WriteOpaque(data []byte) error {
	err := enc.WriteUint32(uint32(len(data)))
	if err != nil {
		return err
	}

	return enc.WriteFixedOpaque(data)
}

// WriteString writes a string as a variable-length opaque.
func (enc *Encoder) WriteString(s string) error {
	return enc.WriteOpaque([]byte(s))
}

// Decoder reads XDR items from an underlying reader.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a new decoder that reads from the given reader.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadUint32 reads a 32-bit unsigned integer.
func (dec *Decoder) ReadUint32() (uint32, error) {
	buffer := make([]byte, 4)

	_, err := io.ReadFull(dec.r, buffer)
	if err != nil {
		return 0, xerrors.Errorf("couldn't read uint32: %v", err)
	}

	return binary.BigEndian.Uint32(buffer), nil
}

// ReadInt32 reads a 32-bit signed integer.
func (dec *Decoder) ReadInt32() (int32, error) {
	v, err := dec.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a 64-bit unsigned integer.
func (dec *Decoder) ReadUint64() (uint64, error) {
	buffer := make([]byte, 8)

	_, err := io.ReadFull(dec.r, buffer)
	if err != nil {
		return 0, xerrors.Errorf("couldn't read uint64: %v", err)
	}

	return binary.BigEndian.Uint64(buffer), nil
}

// ReadInt64 reads a 64-bit signed integer.
func (dec *Decoder) ReadInt64() (int64, error) {
	v, err := dec.ReadUint64()
	return int64(v), err
}

// ReadBool reads a boolean.
func (dec *Decoder) ReadBool() (bool, error) {
	v, err := dec.ReadUint32()
	if err != nil {
		return false, err
	}

	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, xerrors.Errorf("invalid boolean value %d", v)
	}
}

// ReadFixedOpaque reads the given number of bytes and their padding. The
// padding must be filled with zeroes.
func (dec *Decoder) ReadFixedOpaque(size int) ([]byte, error) {
	total := size
	if total%4 != 0 {
		total += 4 - total%4
	}

	buffer := make([]byte, total)

	_, err := io.ReadFull(dec.r, buffer)
	if err != nil {
		return nil, xerrors.Errorf("couldn't read opaque: %v", err)
	}

	for _, b := range buffer[size:] {
		if b != 0 {
			return nil, xerrors.New("invalid non-zero padding")
		}
	}

	return buffer[:size], nil
}

// ReadOpaque reads a variable-length opaque bounded by the given maximum size.
func (dec *Decoder) ReadOpaque(max uint32) ([]byte, error) {
	size, err := dec.ReadUint32()
	if err != nil {
		return nil, err
	}

	if size > max {
		return nil, xerrors.Errorf("opaque size %d is above the limit %d", size, max)
	}

	return dec.ReadFixedOpaque(int(size))
}

// ReadString reads a variable-length string bounded by the given maximum size.
func (dec *Decoder) ReadString(max uint32) (string, error) {
	data, err := dec.ReadOpaque(max)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// unmarshal decodes the data with the provided function and verifies that no
// trailing bytes are left over, so that decoding followed by encoding always
// reproduces the original bytes.
func unmarshal(data []byte, fn func(*Decoder) error) error {
	buffer := bytes.NewBuffer(data)

	err := fn(NewDecoder(buffer))
	if err != nil {
		return err
	}

	if buffer.Len() > 0 {
		return xerrors.Errorf("%d trailing bytes after decoding", buffer.Len())
	}

	return nil
}
