package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "invoices"

// ErrDuplicate is returned by Insert when the fingerprint is already present.
var ErrDuplicate = errors.New("invoice already ingested")

// DB defines the interface for ledger operations
type DB interface {
	// Exists reports whether a record with the given fingerprint is present
	Exists(fingerprint string) (bool, error)

	// Insert appends a record; returns ErrDuplicate if the fingerprint exists
	Insert(record *InvoiceRecord) error

	// ListAll returns all ledger records
	ListAll() ([]*InvoiceRecord, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB, keyed by content fingerprint
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// Exists reports whether a record with the given fingerprint is present
func (b *BoltDB) Exists(fingerprint string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		found = bucket.Get([]byte(fingerprint)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking fingerprint: %w", err)
	}
	return found, nil
}

// Insert appends a record to the ledger. The uniqueness check happens inside
// the same write transaction as the put, so a racing insert cannot slip past
// the driver's pre-check.
func (b *BoltDB) Insert(record *InvoiceRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		key := []byte(record.Fingerprint)
		if bucket.Get(key) != nil {
			return ErrDuplicate
		}
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return bucket.Put(key, data)
	})
}

// ListAll returns all ledger records
func (b *BoltDB) ListAll() ([]*InvoiceRecord, error) {
	records := make([]*InvoiceRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record InvoiceRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
