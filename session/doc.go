// Package session provides Noise protocol secure sessions for the
// noise-mobile library.
//
// This package implements the Noise XX handshake pattern using the formally
// verified flynn/noise library with ChaCha20-Poly1305 encryption, BLAKE2s
// hashing, and Curve25519 key exchange
// (Noise_XX_25519_ChaChaPoly_BLAKE2s).
//
// # XX Pattern
//
// XX provides mutual authentication without prior key knowledge: both
// parties exchange static keys during the handshake and learn each other's
// identity from it. This suits mobile peers that meet for the first time.
//
// Message flow (1.5 round trips):
//
//	Initiator                              Responder
//	─────────                              ─────────
//	-> e           (ephemeral only)
//	                                       <- e, ee, s, es
//	-> s, se       (static exchange)
//	[session established]
//
// The initiator completes the handshake when it writes the third message;
// the responder completes when it reads it.
//
// # Session Lifecycle
//
// A Session moves through three phases. During handshaking only
// WriteMessage and ReadMessage are valid; during transport only Encrypt and
// Decrypt are; a closed session rejects everything. Wrong-phase calls fail
// with ErrInvalidState rather than corrupting the protocol state.
//
// Example usage:
//
//	// Initiator
//	alice, err := session.New(session.Initiator)
//	if err != nil {
//	    return err
//	}
//	defer alice.Close()
//	msg1, err := alice.WriteMessage(nil)
//	// Send msg1, receive msg2...
//	_, err = alice.ReadMessage(msg2)
//	msg3, err := alice.WriteMessage(nil)
//	// Send msg3; alice.IsHandshakeComplete() is now true
//	ciphertext, err := alice.Encrypt([]byte("hello"))
//
//	// Responder
//	bob, err := session.New(session.Responder)
//	if err != nil {
//	    return err
//	}
//	defer bob.Close()
//	_, err = bob.ReadMessage(msg1)
//	msg2, err := bob.WriteMessage(nil)
//	// Send msg2, receive msg3...
//	_, err = bob.ReadMessage(msg3)
//	plaintext, err := bob.Decrypt(ciphertext)
//
// # Size Limits
//
// Every message is bounded by the Noise wire limit of 65535 bytes and every
// plaintext by 65519 bytes (the wire limit minus the 16-byte authentication
// tag). Inputs beyond these bounds fail with ErrBufferTooSmall before the
// engine sees them; the limits package holds the constants.
//
// # Security Considerations
//
// Message ordering: transport ciphertexts carry an implicit counter nonce.
// The peer must decrypt them in the order they were encrypted; reordered or
// replayed ciphertexts fail authentication. For lossy transports see the
// mobile package's ResilientSession.
//
// Handshake payloads: the XX pattern sends the first message's payload in
// the clear. Do not attach secrets to handshake messages unless the
// pattern's encryption has begun.
//
// Key verification: after the handshake, verify the peer's identity with
// RemoteStaticKey. Compare against known trusted keys or implement a
// trust-on-first-use model.
//
// Secure memory: static private keys are wiped with crypto.ZeroBytes when
// the session is closed and intermediate copies are wiped at construction.
//
// # Thread Safety
//
// Session methods are protected by an internal mutex, so concurrent getter
// calls do not race with ongoing operations. A single session should still
// process handshake and transport messages sequentially because the Noise
// protocol itself is ordered.
//
// # Error Handling
//
// Operations return sentinel errors wrapped with context:
//   - ErrInvalidParameter: nil or empty required input, bad key length
//   - ErrHandshakeFailed: the Noise handshake could not proceed
//   - ErrEncryptionFailed / ErrDecryptionFailed: transport crypto failures
//   - ErrBufferTooSmall: input exceeds the protocol maximum
//   - ErrInvalidState: operation called in the wrong phase
//   - ErrSessionClosed: session already closed
//
// Test them with errors.Is. The ffi package maps each sentinel onto the
// numeric status codes of the C boundary.
package session
