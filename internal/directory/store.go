package directory

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a record doesn't exist in the store
var ErrNotFound = errors.New("user not found")

// ErrValidation is returned when a candidate record fails validation
var ErrValidation = errors.New("invalid user")

// ErrInvalidArgument is returned when a caller-supplied argument is unusable
var ErrInvalidArgument = errors.New("invalid argument")

// ErrDuplicateID is returned when a record with the same id already exists
var ErrDuplicateID = errors.New("duplicate user id")

// Store defines the interface for user record storage
// All implementations must be thread-safe for concurrent access
type Store interface {
	// Insert stores a record and assigns its authoritative id,
	// overwriting any id the caller supplied.
	// Returns the assigned id.
	Insert(u *User) (int64, error)

	// Put stores a record under the id it already carries, preserving
	// ids assigned elsewhere. Used by the replication path.
	// Returns ErrDuplicateID if the id is already taken.
	Put(u User) error

	// Remove deletes the record with the given id
	// Returns ErrNotFound if the id doesn't exist
	Remove(id int64) error

	// Find returns all records matching the predicate
	// Results are ordered by id for deterministic iteration
	Find(pred Predicate) []User

	// FindFirst returns the first record matching the predicate
	// Returns ErrNotFound if no record matches
	FindFirst(pred Predicate) (User, error)

	// Len returns the number of records in the store
	Len() int

	// All returns every record, ordered by id
	All() []User
}

// IDGenerator hands out record ids for a store.
type IDGenerator interface {
	// Generate returns the next unused id
	Generate() int64
}

// SequenceGenerator implements IDGenerator with a monotonic counter
type SequenceGenerator struct {
	mu   sync.Mutex
	next int64
}

// NewSequenceGenerator creates a generator starting at 1
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{next: 1}
}

// Generate returns the next id in the sequence
func (g *SequenceGenerator) Generate() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}

// MemoryStore implements Store with in-memory storage keyed by id
// Uses sync.RWMutex for thread-safe concurrent access
type MemoryStore struct {
	mu    sync.RWMutex
	users map[int64]User
	ids   IDGenerator
}

// NewMemoryStore creates a new in-memory store with a fresh id sequence
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithIDs(NewSequenceGenerator())
}

// NewMemoryStoreWithIDs creates a store using the given id generator
func NewMemoryStoreWithIDs(ids IDGenerator) *MemoryStore {
	return &MemoryStore{
		users: make(map[int64]User),
		ids:   ids,
	}
}

// Insert stores the record under a freshly generated id
// The id field of u is rewritten with the assigned id
func (m *MemoryStore) Insert(u *User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.ID = m.ids.Generate()
	m.users[u.ID] = *u
	return u.ID, nil
}

// Put stores the record under the id it already carries
// Returns ErrDuplicateID if a record with that id is already present
func (m *MemoryStore) Put(u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[u.ID]; exists {
		return ErrDuplicateID
	}
	m.users[u.ID] = u
	return nil
}

// Remove deletes the record with the given id
// Returns ErrNotFound if the id doesn't exist (removal is not idempotent)
func (m *MemoryStore) Remove(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[id]; !exists {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// Find returns copies of all records matching the predicate, ordered by id
func (m *MemoryStore) Find(pred Predicate) []User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []User
	for _, u := range m.users {
		if pred(u) {
			matches = append(matches, u)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches
}

// FindFirst returns the matching record with the lowest id
// Returns ErrNotFound if no record matches
func (m *MemoryStore) FindFirst(pred Predicate) (User, error) {
	matches := m.Find(pred)
	if len(matches) == 0 {
		return User{}, ErrNotFound
	}
	return matches[0], nil
}

// Len returns the number of records in the store
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// All returns copies of every record, ordered by id
func (m *MemoryStore) All() []User {
	return m.Find(func(User) bool { return true })
}
