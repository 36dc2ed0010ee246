package state

import "sync"

// MemoryStore keeps the state in process. It is a test double for code
// built on Store: SaveErr and ClearErr, when set, are returned instead of
// performing the operation, and Saves counts successful writes.
type MemoryStore struct {
	mu       sync.Mutex
	st       State
	SaveErr  error
	ClearErr error
	Saves    int
}

func NewMemoryStore(st State) *MemoryStore {
	return &MemoryStore{st: st}
}

func (m *MemoryStore) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st, nil
}

func (m *MemoryStore) Save(st State) error {
	if !st.Active() {
		return m.Clear()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.st = st
	m.Saves++
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.st = NewIdle()
	return nil
}
