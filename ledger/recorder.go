package ledger

import (
	"sort"

	"go.dedis.ch/stela/xdr"
)

// Recorder is a storage adapter that records the keys an execution touches,
// so that the footprint of the execution can be derived afterwards. Reads go
// to the read-only set, writes and deletes to the read-write set. A key both
// read and written appears only in the read-write set.
//
// - implements ledger.Storage
type Recorder struct {
	storage Storage

	readOnly  map[string]xdr.LedgerKey
	readWrite map[string]xdr.LedgerKey
}

// NewRecorder returns a recorder over the storage with empty key sets.
func NewRecorder(storage Storage) *Recorder {
	return &Recorder{
		storage:   storage,
		readOnly:  make(map[string]xdr.LedgerKey),
		readWrite: make(map[string]xdr.LedgerKey),
	}
}

// Get implements ledger.Storage. It records the key in the read-only set
// unless it is already known to be written, then reads through.
func (rec *Recorder) Get(key xdr.LedgerKey) (xdr.LedgerEntry, bool, error) {
	canonical := key.Canonical()

	_, written := rec.readWrite[canonical]
	if !written {
		rec.readOnly[canonical] = key
	}

	return rec.storage.Get(key)
}

// Put implements ledger.Storage. It promotes the key to the read-write set
// and writes through.
func (rec *Recorder) Put(key xdr.LedgerKey, entry xdr.LedgerEntry) error {
	rec.promote(key)

	return rec.storage.Put(key, entry)
}

// Delete implements ledger.Storage. It promotes the key to the read-write set
// and deletes through.
func (rec *Recorder) Delete(key xdr.LedgerKey) error {
	rec.promote(key)

	return rec.storage.Delete(key)
}

func (rec *Recorder) promote(key xdr.LedgerKey) {
	canonical := key.Canonical()

	delete(rec.readOnly, canonical)
	rec.readWrite[canonical] = key
}

// Footprint returns the footprint of the recorded accesses. The key sets are
// sorted by their canonical representation so the result is deterministic.
func (rec *Recorder) Footprint() xdr.Footprint {
	return xdr.Footprint{
		ReadOnly:  sortKeys(rec.readOnly),
		ReadWrite: sortKeys(rec.readWrite),
	}
}

func sortKeys(set map[string]xdr.LedgerKey) []xdr.LedgerKey {
	canonicals := make([]string, 0, len(set))
	for canonical := range set {
		canonicals = append(canonicals, canonical)
	}

	sort.Strings(canonicals)

	keys := make([]xdr.LedgerKey, len(canonicals))
	for i, canonical := range canonicals {
		keys[i] = set[canonical]
	}

	return keys
}
