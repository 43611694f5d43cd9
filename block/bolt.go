package block

import (
	"github.com/boltdb/bolt"

	"github.com/rhizomedb/rhizome-go/value"
)

// boltBucket is the single bucket this package uses inside a bolt.DB file;
// one rhizome-go block store owns the whole database file, so there is no
// need to namespace further.
var boltBucket = []byte("blocks")

// BoltStore is a durable Store backed by a single BoltDB file, satisfying
// spec.md §6 "Persisted state: Only the block store is persistable." A
// host that wants input tuples to survive a process restart opens a
// BoltStore instead of a MapStore; the interpreter and runtime packages
// are agnostic to which Store implementation they were given.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if necessary) a BoltDB file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying BoltDB file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Has(cid value.CID) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(boltBucket).Get([]byte(cid)) != nil
		return nil
	})
	return found, err
}

func (s *BoltStore) Get(cid value.CID) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(cid))
		if v == nil {
			return nil
		}
		found = true
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	return out, found, err
}

func (s *BoltStore) PutKeyed(cid value.CID, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if existing := b.Get([]byte(cid)); existing != nil {
			return nil
		}
		return b.Put([]byte(cid), data)
	})
}
