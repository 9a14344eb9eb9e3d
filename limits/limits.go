// Package limits provides centralized message size limits for the Noise protocol.
// This ensures consistent validation across different components of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxMessageLen is the Noise protocol limit for a single message (65535 bytes)
	// This applies to handshake and transport messages alike
	MaxMessageLen = 65535

	// TagLen is the length of the AEAD authentication tag (16 bytes)
	// This is the Poly1305 MAC appended by ChaCha20-Poly1305
	TagLen = 16

	// MaxPayloadLen is the maximum plaintext that fits in one Noise message
	// once the authentication tag is accounted for
	MaxPayloadLen = MaxMessageLen - TagLen // 65519

	// KeyLen is the length of a Curve25519 key, public or private (32 bytes)
	KeyLen = 32
)

var (
	// ErrMessageEmpty indicates an empty input was provided
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates message exceeds maximum size
	ErrMessageTooLarge = errors.New("message too large")

	// ErrInvalidKeySize indicates a key is not exactly KeyLen bytes
	ErrInvalidKeySize = errors.New("invalid key size")
)

// ValidateMessageSize validates data against the specified maximum size.
// Returns an error with context including the actual and maximum sizes.
func ValidateMessageSize(data []byte, maxSize int) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if len(data) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(data), maxSize)
	}
	return nil
}

// ValidatePayload validates a handshake payload size against MaxPayloadLen.
// Handshake payloads may be empty; only the upper bound is enforced.
func ValidatePayload(payload []byte) error {
	if len(payload) > MaxPayloadLen {
		return fmt.Errorf("%w: payload size %d exceeds limit %d", ErrMessageTooLarge, len(payload), MaxPayloadLen)
	}
	return nil
}

// ValidatePlaintext validates a transport plaintext size against MaxPayloadLen.
// Returns an error with context if the plaintext is empty or exceeds the limit.
func ValidatePlaintext(plaintext []byte) error {
	if len(plaintext) == 0 {
		return ErrMessageEmpty
	}
	if len(plaintext) > MaxPayloadLen {
		return fmt.Errorf("%w: plaintext size %d exceeds limit %d", ErrMessageTooLarge, len(plaintext), MaxPayloadLen)
	}
	return nil
}

// ValidateHandshakeMessage validates a received handshake message size against
// MaxMessageLen. Returns an error with context if the message is empty or
// exceeds the limit.
func ValidateHandshakeMessage(message []byte) error {
	if len(message) == 0 {
		return ErrMessageEmpty
	}
	if len(message) > MaxMessageLen {
		return fmt.Errorf("%w: message size %d exceeds limit %d", ErrMessageTooLarge, len(message), MaxMessageLen)
	}
	return nil
}

// ValidateCiphertext validates a transport ciphertext size against MaxMessageLen.
// Truncation below TagLen is left to the cipher, which reports it as an
// authentication failure. Returns an error with context if the ciphertext is
// empty or exceeds the limit.
func ValidateCiphertext(ciphertext []byte) error {
	if len(ciphertext) == 0 {
		return ErrMessageEmpty
	}
	if len(ciphertext) > MaxMessageLen {
		return fmt.Errorf("%w: ciphertext size %d exceeds limit %d", ErrMessageTooLarge, len(ciphertext), MaxMessageLen)
	}
	return nil
}

// ValidateKey validates that key material is exactly KeyLen bytes.
// Returns an error with context including the actual length.
func ValidateKey(key []byte) error {
	if len(key) != KeyLen {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(key), KeyLen)
	}
	return nil
}
