package envstore

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MemoryStore keeps values in memory. It is used for dry runs and in tests.
type MemoryStore struct {
	data map[string][]byte
	lock sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Write(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.lock.Lock()
	m.data[key] = append([]byte(nil), data...)
	m.lock.Unlock()
	return nil
}

func (m *MemoryStore) Read(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", key)
	}
	return append([]byte(nil), data...), nil
}

// Keys returns every stored key in sorted order.
func (m *MemoryStore) Keys() []string {
	m.lock.Lock()
	keys := maps.Keys(m.data)
	m.lock.Unlock()
	slices.Sort(keys)
	return keys
}
