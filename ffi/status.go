package ffi

import (
	"errors"

	"github.com/opd-ai/noise-mobile-go/session"
)

// Status is the numeric result code reported across the foreign-function
// boundary. The values are part of the C ABI and must not be renumbered.
type Status int

const (
	// StatusOK indicates the operation succeeded.
	StatusOK Status = 0
	// StatusInvalidParameter indicates a null, empty, or malformed argument.
	StatusInvalidParameter Status = 1
	// StatusOutOfMemory indicates an allocation failure. Go code does not
	// produce it; the value is reserved for native callers.
	StatusOutOfMemory Status = 2
	// StatusHandshakeFailed indicates the Noise handshake could not proceed.
	StatusHandshakeFailed Status = 3
	// StatusEncryptionFailed indicates transport encryption failed.
	StatusEncryptionFailed Status = 4
	// StatusDecryptionFailed indicates authentication or decryption failure.
	StatusDecryptionFailed Status = 5
	// StatusBufferTooSmall indicates an input exceeds the documented maximum.
	StatusBufferTooSmall Status = 6
	// StatusInvalidState indicates an operation in the wrong session phase.
	StatusInvalidState Status = 7
	// StatusProtocolError indicates an engine failure with no more specific
	// classification.
	StatusProtocolError Status = 8
)

// String returns the human-readable description of a status code. Codes
// outside the defined range yield "Unknown error"; the function never fails.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "Success"
	case StatusInvalidParameter:
		return "Invalid parameter"
	case StatusOutOfMemory:
		return "Out of memory"
	case StatusHandshakeFailed:
		return "Handshake failed"
	case StatusEncryptionFailed:
		return "Encryption failed"
	case StatusDecryptionFailed:
		return "Decryption failed"
	case StatusBufferTooSmall:
		return "Buffer too small"
	case StatusInvalidState:
		return "Invalid state"
	case StatusProtocolError:
		return "Protocol error"
	default:
		return "Unknown error"
	}
}

// StatusString describes a raw integer status code, for callers holding
// codes that never passed through the Status type.
func StatusString(code int) string {
	return Status(code).String()
}

// statusFromError translates session errors into boundary status codes.
// Errors with no session sentinel in their chain become StatusProtocolError.
func statusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, session.ErrInvalidParameter):
		return StatusInvalidParameter
	case errors.Is(err, session.ErrHandshakeFailed):
		return StatusHandshakeFailed
	case errors.Is(err, session.ErrEncryptionFailed):
		return StatusEncryptionFailed
	case errors.Is(err, session.ErrDecryptionFailed):
		return StatusDecryptionFailed
	case errors.Is(err, session.ErrBufferTooSmall):
		return StatusBufferTooSmall
	case errors.Is(err, session.ErrInvalidState), errors.Is(err, session.ErrSessionClosed):
		return StatusInvalidState
	default:
		return StatusProtocolError
	}
}
