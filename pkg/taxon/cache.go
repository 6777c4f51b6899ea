package taxon

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache keeps resolution outcomes by the exact, case-sensitive name.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the cached outcome of a name.
	Get(name string) (TaxonName, bool)

	// Set stores the outcome under tn.Name.
	Set(tn TaxonName)

	// Remove forgets a name.
	Remove(name string)

	// Len returns the number of cached names.
	Len() int
}

// NewCache returns an unbounded memory cache for size 0, and a
// least-recently-used cache holding at most size names otherwise.
func NewCache(size int) Cache {
	if size <= 0 {
		return &mapCache{data: make(map[string]TaxonName)}
	}
	c, err := lru.New[string, TaxonName](size)
	if err != nil {
		// lru only fails for non-positive sizes
		return &mapCache{data: make(map[string]TaxonName)}
	}
	return &lruCache{c: c}
}

type mapCache struct {
	mu   sync.RWMutex
	data map[string]TaxonName
}

func (m *mapCache) Get(name string) (TaxonName, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.data[name]
	return res, ok
}

func (m *mapCache) Set(tn TaxonName) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[tn.Name] = tn
}

func (m *mapCache) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
}

func (m *mapCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

type lruCache struct {
	c *lru.Cache[string, TaxonName]
}

func (l *lruCache) Get(name string) (TaxonName, bool) {
	return l.c.Get(name)
}

func (l *lruCache) Set(tn TaxonName) {
	l.c.Add(tn.Name, tn)
}

func (l *lruCache) Remove(name string) {
	l.c.Remove(name)
}

func (l *lruCache) Len() int {
	return l.c.Len()
}
