// Package storage persists the file archive in a BoltDB database.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
)

const (
	bucketFiles = "files" // key: big-endian record id, value: JSON record
	bucketRefs  = "refs"  // key: file_unique_id, value: big-endian record id
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("record not found")

// Record is one archived media item. JSON field names follow the layout of
// the historical database so exported data stays readable by older tooling.
type Record struct {
	ID           uint64 `json:"id"`
	FileID       string `json:"file_id"`        // Telegram file_id, re-sends without re-upload
	FileUniqueID string `json:"file_unique_id"` // content-stable id, dedup key
	Name         string `json:"file_name"`      // display name, shown as-is
	SearchName   string `json:"search_name"`    // normalized key, matching only
	Kind         string `json:"file_type"`
}

// Store is a handle to the archive database. It is safe for concurrent use;
// Bolt serializes writers and allows parallel readers.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path and ensures the buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketFiles)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketRefs)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces the record keyed by its FileUniqueID and returns
// the stable record id. Re-saving the same file keeps its id and overwrites
// every stored field with the given values.
func (s *Store) Upsert(rec Record) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		files := tx.Bucket([]byte(bucketFiles))
		refs := tx.Bucket([]byte(bucketRefs))

		if v := refs.Get([]byte(rec.FileUniqueID)); v != nil {
			id = binary.BigEndian.Uint64(v)
		} else {
			seq, err := files.NextSequence()
			if err != nil {
				return err
			}
			id = seq
		}
		rec.ID = id

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := files.Put(idKey(id), data); err != nil {
			return err
		}
		return refs.Put([]byte(rec.FileUniqueID), idKey(id))
	})
	if err != nil {
		return 0, fmt.Errorf("upsert %s: %w", rec.FileUniqueID, err)
	}
	return id, nil
}

// GetByID returns the record with the given id, or ErrNotFound.
func (s *Store) GetByID(id uint64) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketFiles)).Get(idKey(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get %d: %w", id, err)
	}
	return rec, nil
}

// Find scans records in id order and returns up to limit whose search name
// satisfies matches. No ranking beyond iteration order.
func (s *Store) Find(matches func(searchName string) bool, limit int) ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketFiles)).Cursor()
		for k, v := c.First(); k != nil && len(out) < limit; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if matches(rec.SearchName) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	return out, nil
}

func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}
