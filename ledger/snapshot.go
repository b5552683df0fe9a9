package ledger

import (
	"bytes"
	"os"

	"go.dedis.ch/stela/xdr"
	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

var (
	metaBucket    = []byte("meta")
	entriesBucket = []byte("entries")

	infoKey = []byte("info")
)

// ReadSnapshot loads a snapshot from the file. A missing file is not an
// error: it yields a fresh snapshot with the default header, and the file is
// not created until the snapshot is committed.
func ReadSnapshot(path string) (*Snapshot, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return NewSnapshot(), nil
	}

	db, err := bbolt.Open(path, 0666, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, xerrors.Errorf("failed to open db: %v", err)
	}

	defer db.Close()

	snap := NewSnapshot()

	err = db.View(func(txn *bbolt.Tx) error {
		bucket := txn.Bucket(metaBucket)
		if bucket == nil {
			return xerrors.Errorf("bucket '%s' not found", metaBucket)
		}

		data := bucket.Get(infoKey)
		if data == nil {
			return xerrors.New("missing ledger header")
		}

		info, err := decodeInfoBytes(data)
		if err != nil {
			return xerrors.Errorf("couldn't decode ledger header: %v", err)
		}

		snap.Info = info

		bucket = txn.Bucket(entriesBucket)
		if bucket == nil {
			return xerrors.Errorf("bucket '%s' not found", entriesBucket)
		}

		return bucket.ForEach(func(k, v []byte) error {
			key, err := xdr.LedgerKeyFromBytes(k)
			if err != nil {
				return xerrors.Errorf("couldn't decode key: %v", err)
			}

			entry, err := xdr.LedgerEntryFromBytes(v)
			if err != nil {
				return xerrors.Errorf("couldn't decode entry: %v", err)
			}

			return snap.Put(key, entry)
		})
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// WriteSnapshot commits the snapshot to the file, replacing its previous
// content wholesale. The write happens in a single database transaction, so a
// failure leaves the previous content in place.
func WriteSnapshot(path string, snap *Snapshot) error {
	db, err := bbolt.Open(path, 0666, &bbolt.Options{})
	if err != nil {
		return xerrors.Errorf("failed to open db: %v", err)
	}

	defer db.Close()

	return db.Update(func(txn *bbolt.Tx) error {
		if txn.Bucket(entriesBucket) != nil {
			err := txn.DeleteBucket(entriesBucket)
			if err != nil {
				return xerrors.Errorf("failed to reset bucket: %v", err)
			}
		}

		bucket, err := txn.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return xerrors.Errorf("failed to create bucket: %v", err)
		}

		data, err := xdr.Marshal(snap.Info)
		if err != nil {
			return xerrors.Errorf("couldn't encode ledger header: %v", err)
		}

		err = bucket.Put(infoKey, data)
		if err != nil {
			return xerrors.Errorf("failed to write ledger header: %v", err)
		}

		bucket, err = txn.CreateBucket(entriesBucket)
		if err != nil {
			return xerrors.Errorf("failed to create bucket: %v", err)
		}

		for canonical, entry := range snap.entries {
			data, err := xdr.Marshal(entry)
			if err != nil {
				return xerrors.Errorf("couldn't encode entry: %v", err)
			}

			err = bucket.Put([]byte(canonical), data)
			if err != nil {
				return xerrors.Errorf("failed to write entry: %v", err)
			}
		}

		return nil
	})
}

func decodeInfoBytes(data []byte) (Info, error) {
	return DecodeInfo(xdr.NewDecoder(bytes.NewBuffer(data)))
}
