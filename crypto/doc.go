// Package crypto implements cryptographic primitives for the Noise session
// boundary.
//
// This package provides the key material foundation for noise-mobile-go:
// Curve25519 key pair generation, public key derivation from stored secret
// keys, and memory-safe handling of sensitive data. Anything that touches a
// private key outside the Noise engine itself goes through this package.
//
// # Core Types
//
// The package defines one core type:
//
//   - [KeyPair]: Curve25519 key pair used for Noise static keys
//
// # Key Generation
//
// Generate new cryptographic key pairs using secure random entropy:
//
//	keyPair, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer crypto.WipeKeyPair(keyPair) // Secure cleanup
//
//	// Create key pair from an existing secret key
//	keyPair, err := crypto.FromSecretKey(secretKeyBytes)
//
// FromSecretKey derives the public key exactly the way the Noise DH function
// does (X25519 against the base point), so key pairs loaded from storage
// interoperate with key pairs the engine generates itself.
//
// # Secure Memory Handling
//
// All sensitive data should be securely wiped after use to prevent memory
// disclosure:
//
//	defer crypto.SecureWipe(sensitiveData)
//	defer crypto.WipeKeyPair(keyPair)
//
// The [SecureWipe] function uses constant-time operations that cannot be
// optimized away by the compiler, ensuring memory is actually zeroed.
//
// # Security Considerations
//
// The package implements several security practices:
//
//   - Constant-time operations via crypto/subtle to prevent timing attacks
//   - X25519 key handling per RFC 7748 (clamping happens inside the curve operation)
//   - Rejection of all-zero secret keys before derivation
//   - Automatic secure wiping of intermediate key material
//
// # Thread Safety
//
// All functions in this package are pure or operate only on caller-owned
// memory, and are inherently safe for concurrent use.
//
// # C API Bindings
//
// Exported functions include //export directives for C interoperability:
//
//	NoiseGenerateKeyPair()       - Generate new key pair
//	NoiseKeyPairFromSecretKey()  - Derive key pair from secret key
//	NoiseSecureWipe()            - Securely erase memory
//	NoiseWipeKeyPair()           - Erase a key pair's private half
//
// Build with -buildmode=c-shared to generate the C library.
//
// # Integration with the Session Boundary
//
// This package integrates with other noise-mobile-go packages:
//
//   - session/: static key generation for new sessions
//   - keystore/: at-rest storage of private keys
//   - capi/: C bindings for cross-language interoperability
package crypto
