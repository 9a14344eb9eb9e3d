package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/opd-ai/noise-mobile-go/crypto"
)

const (
	// PBKDF2Iterations is the number of iterations for key derivation (NIST recommendation)
	PBKDF2Iterations = 100000
	// EncryptionVersion is the current blob format version
	EncryptionVersion = 1
	// SaltSize is the size of the salt for PBKDF2
	SaltSize = 32

	identitySuffix = ".identity"
	sessionSuffix  = ".session"
	saltFileName   = ".salt"
)

// FileKeyStore is a KeyStore persisted as encrypted files under a single
// directory. Every blob is sealed with AES-256-GCM under a key derived
// from the passphrase via PBKDF2, so material at rest stays protected
// even if the filesystem is compromised.
//
// Layout: <id>.identity and <id>.session blobs beside a .salt file, all
// created with 0600 permissions inside a 0700 directory.
type FileKeyStore struct {
	mu            sync.Mutex
	encryptionKey [32]byte
	dataDir       string
	saltFile      string
}

// NewFileKeyStore opens (or initializes) an encrypted store in dataDir.
// The passphrase is wiped before returning; pass a copy if the caller
// still needs it.
func NewFileKeyStore(dataDir string, passphrase []byte) (*FileKeyStore, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	ks := &FileKeyStore{
		dataDir:  dataDir,
		saltFile: filepath.Join(dataDir, saltFileName),
	}

	salt, err := ks.loadOrGenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize salt: %w", err)
	}

	// PBKDF2 makes brute-force attacks on the passphrase significantly
	// more expensive than a single hash would.
	derivedKey := pbkdf2.Key(passphrase, salt, PBKDF2Iterations, 32, sha256.New)
	copy(ks.encryptionKey[:], derivedKey)

	crypto.SecureWipe(derivedKey)
	crypto.SecureWipe(passphrase)

	return ks, nil
}

// loadOrGenerateSalt loads the persisted salt or generates a new one.
func (ks *FileKeyStore) loadOrGenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)

	data, err := os.ReadFile(ks.saltFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read salt file: %w", err)
		}

		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}

		if err := os.WriteFile(ks.saltFile, salt, 0o600); err != nil {
			return nil, fmt.Errorf("failed to save salt: %w", err)
		}

		return salt, nil
	}

	if len(data) != SaltSize {
		return nil, fmt.Errorf("invalid salt file size: got %d, want %d", len(data), SaltSize)
	}

	copy(salt, data)
	return salt, nil
}

// writeBlob encrypts and atomically writes plaintext to a file.
// Format: [version:2][nonce:12][ciphertext+tag:N]
func (ks *FileKeyStore) writeBlob(filename string, plaintext []byte) error {
	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	// A unique nonce per blob is critical for GCM security.
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	output := make([]byte, 2+len(nonce)+len(ciphertext))
	binary.BigEndian.PutUint16(output[0:2], EncryptionVersion)
	copy(output[2:2+len(nonce)], nonce)
	copy(output[2+len(nonce):], ciphertext)

	// Atomic write using temporary file + rename.
	tmpFile := filepath.Join(ks.dataDir, filename+".tmp")
	finalFile := filepath.Join(ks.dataDir, filename)

	if err := os.WriteFile(tmpFile, output, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpFile, finalFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// readBlob reads and decrypts a stored blob. Missing files surface as
// ErrNotFound; authentication failures indicate a wrong passphrase or
// corrupted data.
func (ks *FileKeyStore) readBlob(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(ks.dataDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Minimum is version + nonce + tag.
	if len(data) < 2+12+16 {
		return nil, fmt.Errorf("blob too short: %d bytes", len(data))
	}

	version := binary.BigEndian.Uint16(data[0:2])
	if version != EncryptionVersion {
		return nil, fmt.Errorf("unsupported blob version: %d (expected %d)", version, EncryptionVersion)
	}

	block, err := aes.NewCipher(ks.encryptionKey[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	nonce := data[2 : 2+nonceSize]
	ciphertext := data[2+nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong passphrase or corrupted data): %w", err)
	}

	return plaintext, nil
}

// deleteBlob removes a stored blob, overwriting it with zeros first as
// best-effort secure deletion. Missing files are not an error.
func (ks *FileKeyStore) deleteBlob(filename string) error {
	filePath := filepath.Join(ks.dataDir, filename)

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	zeros := make([]byte, info.Size())
	if err := os.WriteFile(filePath, zeros, 0o600); err != nil {
		// Continue with deletion even if the overwrite fails.
		return os.Remove(filePath)
	}

	return os.Remove(filePath)
}

// StoreIdentity saves an identity key under id, replacing any previous key.
func (ks *FileKeyStore) StoreIdentity(id string, key []byte) error {
	if err := validateID(id); err != nil {
		return err
	}
	if len(key) != IdentityKeySize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(key), IdentityKeySize)
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.writeBlob(id+identitySuffix, key)
}

// LoadIdentity returns the identity key stored under id.
func (ks *FileKeyStore) LoadIdentity(id string) ([]byte, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	key, err := ks.readBlob(id + identitySuffix)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: identity %q", ErrNotFound, id)
		}
		return nil, err
	}
	if len(key) != IdentityKeySize {
		crypto.ZeroBytes(key)
		return nil, fmt.Errorf("%w: stored identity %q has %d bytes", ErrInvalidKeySize, id, len(key))
	}
	return key, nil
}

// DeleteIdentity removes the identity stored under id.
func (ks *FileKeyStore) DeleteIdentity(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.deleteBlob(id + identitySuffix)
}

// ListIdentities returns the stored identity ids in sorted order.
func (ks *FileKeyStore) ListIdentities() ([]string, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(ks.dataDir, "*"+identitySuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(match), identitySuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// HasIdentity reports whether an identity is stored under id.
func (ks *FileKeyStore) HasIdentity(id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	_, err := os.Stat(filepath.Join(ks.dataDir, id+identitySuffix))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat identity: %w", err)
	}
	return true, nil
}

// StoreSession saves opaque session state under sessionID.
func (ks *FileKeyStore) StoreSession(sessionID string, data []byte) error {
	if err := validateID(sessionID); err != nil {
		return err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.writeBlob(sessionID+sessionSuffix, data)
}

// LoadSession returns the session blob stored under sessionID.
func (ks *FileKeyStore) LoadSession(sessionID string) ([]byte, error) {
	if err := validateID(sessionID); err != nil {
		return nil, err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	data, err := ks.readBlob(sessionID + sessionSuffix)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: session %q", ErrNotFound, sessionID)
		}
		return nil, err
	}
	return data, nil
}

// DeleteSession removes the session stored under sessionID.
func (ks *FileKeyStore) DeleteSession(sessionID string) error {
	if err := validateID(sessionID); err != nil {
		return err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.deleteBlob(sessionID + sessionSuffix)
}

// RotateKey re-derives the encryption key from a new passphrase and
// re-encrypts every stored blob. The new passphrase is wiped before
// returning; pass a copy if the caller still needs it.
func (ks *FileKeyStore) RotateKey(newPassphrase []byte) error {
	if len(newPassphrase) == 0 {
		return ErrEmptyPassphrase
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	// Decrypt every blob with the current key before switching.
	blobs := make(map[string][]byte)
	for _, suffix := range []string{identitySuffix, sessionSuffix} {
		matches, err := filepath.Glob(filepath.Join(ks.dataDir, "*"+suffix))
		if err != nil {
			return fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, match := range matches {
			filename := filepath.Base(match)
			plaintext, err := ks.readBlob(filename)
			if err != nil {
				return fmt.Errorf("failed to decrypt %s: %w", filename, err)
			}
			blobs[filename] = plaintext
		}
	}

	newSalt := make([]byte, SaltSize)
	if _, err := rand.Read(newSalt); err != nil {
		return fmt.Errorf("failed to generate new salt: %w", err)
	}

	newKey := pbkdf2.Key(newPassphrase, newSalt, PBKDF2Iterations, 32, sha256.New)
	oldKey := ks.encryptionKey
	copy(ks.encryptionKey[:], newKey)
	crypto.SecureWipe(newKey)

	for filename, plaintext := range blobs {
		if err := ks.writeBlob(filename, plaintext); err != nil {
			ks.encryptionKey = oldKey
			return fmt.Errorf("failed to re-encrypt %s: %w", filename, err)
		}
		crypto.SecureWipe(plaintext)
	}

	if err := os.WriteFile(ks.saltFile, newSalt, 0o600); err != nil {
		ks.encryptionKey = oldKey
		return fmt.Errorf("failed to save new salt: %w", err)
	}

	crypto.ZeroBytes(oldKey[:])
	crypto.SecureWipe(newPassphrase)

	return nil
}

// Close wipes the encryption key from memory. The store must not be
// used after Close.
func (ks *FileKeyStore) Close() error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	crypto.ZeroBytes(ks.encryptionKey[:])
	return nil
}
