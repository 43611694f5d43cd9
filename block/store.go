package block

import (
	"fmt"
	"sync"

	"github.com/rhizomedb/rhizome-go/value"
)

// Store is the block-store abstraction: content-addressed get/put over
// raw bytes, plus typed helpers layered on the codec in codec.go. Multiple
// backends satisfy this interface (MapStore, BoltStore); BufferedStore
// wraps any of them to batch writes.
type Store interface {
	Has(cid value.CID) (bool, error)
	Get(cid value.CID) ([]byte, bool, error)
	PutKeyed(cid value.CID, data []byte) error
}

// Put computes data's CID and stores it keyed by that CID, returning the
// CID. codec is currently always CodecDagCBOR; the parameter exists so a
// future codec can be added without changing the Store interface.
func Put(s Store, codec uint64, data []byte) (value.CID, error) {
	if codec != CodecDagCBOR {
		return "", fmt.Errorf("block: unsupported codec %d", codec)
	}
	cid, err := ComputeCID(data)
	if err != nil {
		return "", err
	}
	if err := s.PutKeyed(cid, data); err != nil {
		return "", err
	}
	return cid, nil
}

// PutSerializable canonically encodes v, stores it, and returns its CID.
func PutSerializable(s Store, v interface{}) (value.CID, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return Put(s, CodecDagCBOR, data)
}

// GetSerializable fetches the bytes for cid and decodes them into out,
// which must be a pointer. It returns (false, nil) if cid is absent.
func GetSerializable(s Store, cid value.CID, out interface{}) (bool, error) {
	data, ok, err := s.Get(cid)
	if err != nil || !ok {
		return ok, err
	}
	if err := Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// MapStore is the default Store: an in-memory hash map guarded by a
// mutex, mirroring the teacher's default in-memory table backend
// (memory.Table) in spirit, scaled down to a flat byte-blob map.
type MapStore struct {
	mu   sync.RWMutex
	data map[value.CID][]byte
}

// NewMapStore returns an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{data: make(map[value.CID][]byte)}
}

func (m *MapStore) Has(cid value.CID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[cid]
	return ok, nil
}

func (m *MapStore) Get(cid value.CID) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[cid]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *MapStore) PutKeyed(cid value.CID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[cid]; ok {
		// content-addressed: an existing entry for this CID is, by the
		// hash invariant, byte-identical. Re-storing is a no-op.
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[cid] = cp
	return nil
}

// Len reports the number of distinct blocks stored.
func (m *MapStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
