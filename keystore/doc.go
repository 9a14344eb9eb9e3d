// Package keystore persists identity keys and resumable session state
// for mobile and embedded hosts.
//
// # Overview
//
// Two implementations back the KeyStore interface:
//
//   - MemoryKeyStore: process-local maps, zeroized on overwrite, delete,
//     and clear. Suitable for tests and for platforms that wire the host
//     keychain in above this package.
//   - FileKeyStore: encrypted files under a single directory, sealed
//     with AES-256-GCM under a PBKDF2-derived key.
//
// Identity keys are the 32-byte Curve25519 static keys used by sessions.
// Session blobs are opaque to the store; callers decide what resumable
// state looks like.
//
// # Encrypted File Format
//
// Each FileKeyStore blob is laid out as:
//
//	[version:2][nonce:12][ciphertext+tag:N]
//
// The store directory holds <id>.identity and <id>.session blobs next to
// a .salt file carrying the 32-byte PBKDF2 salt. The directory is created
// 0700 and every file is written 0600. Writes go through a temporary file
// and rename, so a crash never leaves a half-written blob behind.
//
// # Error Handling
//
// Implementations return the package sentinels (ErrNotFound,
// ErrInvalidKeySize, ErrEmptyPassphrase, ErrInvalidID) wrapped with
// context; classify with errors.Is:
//
//	key, err := store.LoadIdentity("alice")
//	if errors.Is(err, keystore.ErrNotFound) {
//	    // first run, generate a key
//	}
//
// # Passphrase Handling
//
// NewFileKeyStore and RotateKey wipe the passphrase slice before
// returning. Callers that need the passphrase afterwards must pass a
// copy.
package keystore
