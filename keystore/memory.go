package keystore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/opd-ai/noise-mobile-go/crypto"
)

// MemoryKeyStore keeps keys and session blobs in process memory. It is
// intended for tests, short-lived tools, and platforms where the host
// keychain is wired in separately. Stored material is zeroized when
// overwritten, deleted, or cleared.
type MemoryKeyStore struct {
	mu         sync.Mutex
	identities map[string][]byte
	sessions   map[string][]byte
}

// NewMemoryKeyStore creates an empty in-memory store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{
		identities: make(map[string][]byte),
		sessions:   make(map[string][]byte),
	}
}

// StoreIdentity saves a copy of key under id. The previous key with the
// same id, if any, is zeroized before being replaced.
func (m *MemoryKeyStore) StoreIdentity(id string, key []byte) error {
	if err := validateID(id); err != nil {
		return err
	}
	if len(key) != IdentityKeySize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(key), IdentityKeySize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.identities[id]; ok {
		crypto.ZeroBytes(old)
	}
	m.identities[id] = append([]byte(nil), key...)
	return nil
}

// LoadIdentity returns a copy of the identity key stored under id.
func (m *MemoryKeyStore) LoadIdentity(id string) ([]byte, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.identities[id]
	if !ok {
		return nil, fmt.Errorf("%w: identity %q", ErrNotFound, id)
	}
	return append([]byte(nil), key...), nil
}

// DeleteIdentity zeroizes and removes the identity stored under id.
func (m *MemoryKeyStore) DeleteIdentity(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if key, ok := m.identities[id]; ok {
		crypto.ZeroBytes(key)
		delete(m.identities, id)
	}
	return nil
}

// ListIdentities returns the stored identity ids in sorted order.
func (m *MemoryKeyStore) ListIdentities() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.identities))
	for id := range m.identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// HasIdentity reports whether an identity is stored under id.
func (m *MemoryKeyStore) HasIdentity(id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.identities[id]
	return ok, nil
}

// StoreSession saves a copy of data under sessionID. The previous blob
// with the same id, if any, is zeroized before being replaced.
func (m *MemoryKeyStore) StoreSession(sessionID string, data []byte) error {
	if err := validateID(sessionID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.sessions[sessionID]; ok {
		crypto.ZeroBytes(old)
	}
	m.sessions[sessionID] = append([]byte(nil), data...)
	return nil
}

// LoadSession returns a copy of the session blob stored under sessionID.
func (m *MemoryKeyStore) LoadSession(sessionID string) ([]byte, error) {
	if err := validateID(sessionID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", ErrNotFound, sessionID)
	}
	return append([]byte(nil), data...), nil
}

// DeleteSession zeroizes and removes the session stored under sessionID.
func (m *MemoryKeyStore) DeleteSession(sessionID string) error {
	if err := validateID(sessionID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if data, ok := m.sessions[sessionID]; ok {
		crypto.ZeroBytes(data)
		delete(m.sessions, sessionID)
	}
	return nil
}

// Clear zeroizes and removes everything in the store.
func (m *MemoryKeyStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, key := range m.identities {
		crypto.ZeroBytes(key)
		delete(m.identities, id)
	}
	for id, data := range m.sessions {
		crypto.ZeroBytes(data)
		delete(m.sessions, id)
	}
}
