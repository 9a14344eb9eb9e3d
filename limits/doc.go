// Package limits provides centralized message size constants and validation functions
// for the Noise protocol. This package ensures consistent size enforcement across all
// components of the noise-mobile implementation.
//
// # Message Size Hierarchy
//
// The package defines the size limits that bound every message crossing the
// session boundary:
//
//   - MaxMessageLen (65535 bytes): The Noise protocol limit for a single message.
//     It applies equally to handshake messages and transport ciphertexts and
//     matches the framework's two-byte length framing.
//
//   - MaxPayloadLen (65519 bytes): The largest plaintext that fits in one Noise
//     message once the authentication tag is accounted for. This is
//     MaxMessageLen minus TagLen.
//
//   - TagLen (16 bytes): The Poly1305 MAC tag appended by ChaCha20-Poly1305 to
//     every encrypted message.
//
//   - KeyLen (32 bytes): The length of a Curve25519 key, public or private.
//
// # Validation Functions
//
// Each validation function checks for empty inputs and size limit violations:
//
//	err := limits.ValidatePlaintext(message)
//	if err != nil {
//	    // Handle validation error (ErrMessageEmpty or ErrMessageTooLarge)
//	}
//
// ValidatePayload differs from the others in that it permits empty input,
// because Noise handshake payloads are optional. For custom size limits, use
// the generic ValidateMessageSize function:
//
//	err := limits.ValidateMessageSize(data, 4096)
//
// # Error Types
//
// The package provides structured errors with context:
//
//   - ErrMessageEmpty: Returned when an empty or nil input is provided
//   - ErrMessageTooLarge: Returned when input exceeds the specified limit
//   - ErrInvalidKeySize: Returned when key material is not exactly KeyLen bytes
//
// Size violations are wrapped with the offending and maximum sizes, so callers
// should test them with errors.Is rather than direct comparison.
//
// # Protocol Compliance
//
// These constants are derived from the Noise Protocol Framework specification
// (revision 34, section 3) to ensure interoperability with other Noise
// implementations. The encryption overhead matches the ChaCha20-Poly1305 tag
// size used by the Noise_XX_25519_ChaChaPoly_BLAKE2s cipher suite.
//
// # Security Considerations
//
// Enforcing MaxMessageLen on received data before it reaches the handshake or
// cipher state keeps oversized frames from propagating into the engine. The
// checks here are cheap enough to run on every boundary crossing.
package limits
