// Package ledger defines the state a contract execution runs against: the
// ledger header information, the entry map, and the storage abstraction the
// execution host reads and writes through.
//
// A sandbox keeps the whole ledger in a local snapshot file. The snapshot is
// read wholesale before an execution and committed wholesale after a
// successful one, so that a failed execution never modifies the file.
package ledger

import (
	"go.dedis.ch/stela/xdr"
)

// DefaultPassphrase is the network passphrase of a freshly created sandbox
// ledger. The passphrase takes part in the signature payload of every
// transaction, so two networks with different passphrases cannot replay each
// other's envelopes.
const DefaultPassphrase = "Local Sandbox Network ; September 2022"

// DefaultBaseReserve is the base reserve of a freshly created sandbox ledger.
const DefaultBaseReserve = 5_000_000

// Info is the header of the ledger an execution runs against.
type Info struct {
	// ProtocolVersion is the protocol version the host should emulate.
	ProtocolVersion uint32

	// Sequence is the sequence number of the ledger.
	Sequence uint32

	// Timestamp is the close time of the ledger, in seconds.
	Timestamp uint64

	// Passphrase is the network passphrase.
	Passphrase string

	// BaseReserve is the base reserve of the network.
	BaseReserve uint32
}

// EncodeXDR implements xdr.Message.
func (info Info) EncodeXDR(enc *xdr.Encoder) error {
	err := enc.WriteUint32(info.ProtocolVersion)
	if err != nil {
		return err
	}

	err = enc.WriteUint32(info.Sequence)
	if err != nil {
		return err
	}

	err = enc.WriteUint64(info.Timestamp)
	if err != nil {
		return err
	}

	err = enc.WriteString(info.Passphrase)
	if err != nil {
		return err
	}

	return enc.WriteUint32(info.BaseReserve)
}

// DecodeInfo reads a ledger header from the decoder.
func DecodeInfo(dec *xdr.Decoder) (Info, error) {
	info := Info{}

	var err error

	info.ProtocolVersion, err = dec.ReadUint32()
	if err != nil {
		return Info{}, err
	}

	info.Sequence, err = dec.ReadUint32()
	if err != nil {
		return Info{}, err
	}

	info.Timestamp, err = dec.ReadUint64()
	if err != nil {
		return Info{}, err
	}

	info.Passphrase, err = dec.ReadString(1000)
	if err != nil {
		return Info{}, err
	}

	info.BaseReserve, err = dec.ReadUint32()
	if err != nil {
		return Info{}, err
	}

	return info, nil
}

// Storage is the ledger access abstraction the execution host runs against.
type Storage interface {
	// Get returns the entry stored under the key, and whether the entry
	// exists.
	Get(key xdr.LedgerKey) (xdr.LedgerEntry, bool, error)

	// Put stores the entry under the key, replacing an existing one.
	Put(key xdr.LedgerKey, entry xdr.LedgerEntry) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key xdr.LedgerKey) error
}

// Snapshot is an in-memory copy of a whole ledger: its header and every entry.
//
// - implements ledger.Storage
type Snapshot struct {
	Info    Info
	entries map[string]xdr.LedgerEntry
}

// NewSnapshot returns an empty snapshot with the default header.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Info: Info{
			Passphrase:  DefaultPassphrase,
			BaseReserve: DefaultBaseReserve,
		},
		entries: make(map[string]xdr.LedgerEntry),
	}
}

// Get implements ledger.Storage. It returns the entry stored under the key.
func (snap *Snapshot) Get(key xdr.LedgerKey) (xdr.LedgerEntry, bool, error) {
	entry, found := snap.entries[key.Canonical()]
	return entry, found, nil
}

// Put implements ledger.Storage. It stores the entry under the key.
func (snap *Snapshot) Put(key xdr.LedgerKey, entry xdr.LedgerEntry) error {
	snap.entries[key.Canonical()] = entry
	return nil
}

// Delete implements ledger.Storage. It removes the key from the snapshot.
func (snap *Snapshot) Delete(key xdr.LedgerKey) error {
	delete(snap.entries, key.Canonical())
	return nil
}

// Len returns the number of entries of the snapshot.
func (snap *Snapshot) Len() int {
	return len(snap.entries)
}
