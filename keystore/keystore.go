package keystore

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by KeyStore implementations.
// Use errors.Is to classify failures.
var (
	// ErrNotFound indicates the requested identity or session does not exist.
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidKeySize indicates an identity key that is not exactly 32 bytes.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrEmptyPassphrase indicates a missing passphrase for an encrypted store.
	ErrEmptyPassphrase = errors.New("passphrase cannot be empty")

	// ErrInvalidID indicates an identifier that is empty or unsafe to use
	// as a storage key.
	ErrInvalidID = errors.New("invalid identifier")
)

// IdentityKeySize is the required length of stored identity keys,
// matching the Curve25519 static keys used by sessions.
const IdentityKeySize = 32

// KeyStore persists identity keys and opaque session state for later
// resumption. Identity keys are exactly 32 bytes; session blobs are
// uninterpreted. Implementations are safe for concurrent use.
type KeyStore interface {
	// StoreIdentity saves an identity key under id, replacing any
	// previous key with that id.
	StoreIdentity(id string, key []byte) error

	// LoadIdentity returns a copy of the identity key stored under id.
	LoadIdentity(id string) ([]byte, error)

	// DeleteIdentity removes the identity stored under id. Deleting an
	// absent identity is not an error.
	DeleteIdentity(id string) error

	// ListIdentities returns the stored identity ids in sorted order.
	ListIdentities() ([]string, error)

	// HasIdentity reports whether an identity is stored under id.
	HasIdentity(id string) (bool, error)

	// StoreSession saves opaque session state under sessionID, replacing
	// any previous blob with that id.
	StoreSession(sessionID string, data []byte) error

	// LoadSession returns a copy of the session blob stored under sessionID.
	LoadSession(sessionID string) ([]byte, error)

	// DeleteSession removes the session stored under sessionID. Deleting
	// an absent session is not an error.
	DeleteSession(sessionID string) error
}

// validateID rejects identifiers that are empty or could escape the
// store's namespace when used as part of a file name.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidID)
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q contains path elements", ErrInvalidID, id)
	}
	if strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidID, id)
	}
	return nil
}
