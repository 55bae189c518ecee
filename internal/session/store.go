package session

import "sync"

// Store persists session state between stages and across process
// restarts. Implementations must return ErrNotFound for unknown IDs.
type Store interface {
	// SaveCheckpoint durably records the full session state.
	SaveCheckpoint(st *State) error
	// LoadCheckpoint returns the last checkpointed state for a session.
	LoadCheckpoint(sessionID string) (*State, error)
	// SaveArtifact records a named intermediate artifact for external
	// inspection (per-item reports, backlog snapshots, transcript).
	SaveArtifact(sessionID, name string, data []byte) error
}

// MemoryStore is an in-memory Store for tests and single-process runs.
type MemoryStore struct {
	mu        sync.Mutex
	states    map[string][]byte
	artifacts map[string]map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:    make(map[string][]byte),
		artifacts: make(map[string]map[string][]byte),
	}
}

// SaveCheckpoint stores a deep copy of the state via JSON round-trip so
// later mutation of the live state cannot corrupt the checkpoint.
func (m *MemoryStore) SaveCheckpoint(st *State) error {
	data, err := EncodeState(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.SessionID] = data
	return nil
}

// LoadCheckpoint returns a copy of the last saved state.
func (m *MemoryStore) LoadCheckpoint(sessionID string) (*State, error) {
	m.mu.Lock()
	data, ok := m.states[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return DecodeState(data)
}

// SaveArtifact stores a named artifact blob.
func (m *MemoryStore) SaveArtifact(sessionID, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.artifacts[sessionID] == nil {
		m.artifacts[sessionID] = make(map[string][]byte)
	}
	m.artifacts[sessionID][name] = data
	return nil
}

// Artifact returns a stored artifact, or nil if absent.
func (m *MemoryStore) Artifact(sessionID, name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.artifacts[sessionID][name]
}
