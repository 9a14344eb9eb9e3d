package ffi

import (
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/noise-mobile-go/limits"
	"github.com/opd-ai/noise-mobile-go/session"
)

// copyIn duplicates a host-owned slice before the engine sees it, so the
// engine never aliases memory the host may reuse.
func copyIn(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	dup := make([]byte, len(b))
	copy(dup, b)
	return dup
}

// copyOut returns a fresh host-owned slice holding exactly the engine's
// output. A successful empty output stays non-nil so callers can tell it
// apart from failure.
func copyOut(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// CreateInitiator creates an initiator session with a fresh static key
// pair and returns its handle, or 0 on failure.
func CreateInitiator() Handle {
	return create(session.Initiator, nil)
}

// CreateResponder creates a responder session with a fresh static key
// pair and returns its handle, or 0 on failure.
func CreateResponder() Handle {
	return create(session.Responder, nil)
}

// CreateInitiatorWithKey creates an initiator session using an existing
// 32-byte static private key. Returns 0 if the key is not exactly 32
// bytes or the engine rejects it. The key slice is copied, never retained.
func CreateInitiatorWithKey(privateKey []byte) Handle {
	return createWithKey(session.Initiator, privateKey)
}

// CreateResponderWithKey creates a responder session using an existing
// 32-byte static private key, with the same key rules as
// CreateInitiatorWithKey.
func CreateResponderWithKey(privateKey []byte) Handle {
	return createWithKey(session.Responder, privateKey)
}

// createWithKey rejects malformed keys before the engine is invoked.
func createWithKey(role session.Role, privateKey []byte) Handle {
	if err := limits.ValidateKey(privateKey); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "createWithKey",
			"role":     role.String(),
			"key_len":  len(privateKey),
		}).Error("Rejected session private key")
		return 0
	}
	return create(role, privateKey)
}

// Destroy releases the session behind a handle. The handle is removed
// from the registry first, so later operations against it fail with
// StatusInvalidParameter instead of reaching a dead or newer session.
// Destroying the null handle or an already-destroyed handle is a no-op.
func Destroy(h Handle) {
	if h == 0 {
		return
	}

	sessionsMux.Lock()
	w, exists := sessions[h]
	if exists {
		delete(sessions, h)
	}
	sessionsMux.Unlock()

	if exists {
		_ = w.engine.Close()
	}
}

// GetPublicKey returns a copy of the session's 32-byte static public key,
// or nil for invalid handles.
func GetPublicKey(h Handle) []byte {
	w := resolve(h)
	if w == nil {
		return nil
	}

	key := w.engine.LocalStaticKey()
	if key == nil {
		w.lastError = StatusInvalidState
		return nil
	}
	w.lastError = StatusOK
	return key
}

// GetRemoteStatic returns a copy of the peer's 32-byte static public key.
// The key is only known once the handshake completes; before then the call
// returns nil and records StatusInvalidState.
func GetRemoteStatic(h Handle) []byte {
	w := resolve(h)
	if w == nil {
		return nil
	}

	key, err := w.engine.RemoteStaticKey()
	if err != nil {
		w.lastError = statusFromError(err)
		logrus.WithFields(logrus.Fields{
			"function": "GetRemoteStatic",
			"handle":   h,
			"error":    err.Error(),
		}).Error("Remote static key unavailable")
		return nil
	}
	w.lastError = StatusOK
	return key
}

// IsHandshakeComplete reports whether the session behind the handle has
// finished its handshake. Invalid handles report false.
func IsHandshakeComplete(h Handle) bool {
	w := resolve(h)
	if w == nil {
		return false
	}
	return w.engine.IsHandshakeComplete()
}

// WriteMessage produces the next outgoing handshake message. The payload
// may be nil or empty. Returns nil on failure with the cause recorded in
// the session's last error.
func WriteMessage(h Handle, payload []byte) []byte {
	w := resolve(h)
	if w == nil {
		return nil
	}

	if len(payload) > limits.MaxPayloadLen {
		w.lastError = StatusBufferTooSmall
		logrus.WithFields(logrus.Fields{
			"function": "WriteMessage",
			"handle":   h,
			"size":     len(payload),
		}).Error("Handshake payload exceeds maximum")
		return nil
	}

	message, err := w.engine.WriteMessage(copyIn(payload))
	if err != nil {
		w.lastError = statusFromError(err)
		logrus.WithFields(logrus.Fields{
			"function": "WriteMessage",
			"handle":   h,
			"error":    err.Error(),
		}).Error("Handshake write failed")
		return nil
	}

	w.lastError = StatusOK
	return copyOut(message)
}

// ReadMessage consumes a received handshake message and returns the
// payload the peer attached. A successful read with no payload returns an
// empty non-nil slice; nil means failure, with the cause recorded in the
// session's last error.
func ReadMessage(h Handle, message []byte) []byte {
	w := resolve(h)
	if w == nil {
		return nil
	}

	if len(message) == 0 {
		w.lastError = StatusInvalidParameter
		logrus.WithFields(logrus.Fields{
			"function": "ReadMessage",
			"handle":   h,
		}).Error("Empty handshake message")
		return nil
	}
	if len(message) > limits.MaxMessageLen {
		w.lastError = StatusBufferTooSmall
		logrus.WithFields(logrus.Fields{
			"function": "ReadMessage",
			"handle":   h,
			"size":     len(message),
		}).Error("Handshake message exceeds maximum")
		return nil
	}

	payload, err := w.engine.ReadMessage(copyIn(message))
	if err != nil {
		w.lastError = statusFromError(err)
		logrus.WithFields(logrus.Fields{
			"function": "ReadMessage",
			"handle":   h,
			"error":    err.Error(),
		}).Error("Handshake read failed")
		return nil
	}

	w.lastError = StatusOK
	return copyOut(payload)
}

// Encrypt encrypts plaintext for the peer. The ciphertext is the
// plaintext length plus the 16-byte authentication tag. Returns nil on
// failure with the cause recorded in the session's last error.
func Encrypt(h Handle, plaintext []byte) []byte {
	w := resolve(h)
	if w == nil {
		return nil
	}

	if len(plaintext) == 0 {
		w.lastError = StatusInvalidParameter
		logrus.WithFields(logrus.Fields{
			"function": "Encrypt",
			"handle":   h,
		}).Error("Empty plaintext")
		return nil
	}
	if len(plaintext) > limits.MaxPayloadLen {
		w.lastError = StatusBufferTooSmall
		logrus.WithFields(logrus.Fields{
			"function": "Encrypt",
			"handle":   h,
			"size":     len(plaintext),
		}).Error("Plaintext exceeds maximum")
		return nil
	}

	ciphertext, err := w.engine.Encrypt(copyIn(plaintext))
	if err != nil {
		w.lastError = statusFromError(err)
		logrus.WithFields(logrus.Fields{
			"function": "Encrypt",
			"handle":   h,
			"error":    err.Error(),
		}).Error("Encryption failed")
		return nil
	}

	w.lastError = StatusOK
	return copyOut(ciphertext)
}

// Decrypt authenticates and decrypts a ciphertext from the peer. Returns
// nil on any failure, tampered input included, with the cause recorded in
// the session's last error. There are no partial results.
func Decrypt(h Handle, ciphertext []byte) []byte {
	w := resolve(h)
	if w == nil {
		return nil
	}

	if len(ciphertext) == 0 {
		w.lastError = StatusInvalidParameter
		logrus.WithFields(logrus.Fields{
			"function": "Decrypt",
			"handle":   h,
		}).Error("Empty ciphertext")
		return nil
	}
	if len(ciphertext) > limits.MaxMessageLen {
		w.lastError = StatusBufferTooSmall
		logrus.WithFields(logrus.Fields{
			"function": "Decrypt",
			"handle":   h,
			"size":     len(ciphertext),
		}).Error("Ciphertext exceeds maximum")
		return nil
	}

	plaintext, err := w.engine.Decrypt(copyIn(ciphertext))
	if err != nil {
		w.lastError = statusFromError(err)
		logrus.WithFields(logrus.Fields{
			"function": "Decrypt",
			"handle":   h,
			"error":    err.Error(),
		}).Error("Decryption failed")
		return nil
	}

	w.lastError = StatusOK
	return copyOut(plaintext)
}

// LastError returns the status recorded by the most recent fallible
// operation on the handle. Invalid handles, the null handle included,
// report StatusInvalidParameter without consulting any session.
func LastError(h Handle) Status {
	w := resolve(h)
	if w == nil {
		return StatusInvalidParameter
	}
	return w.lastError
}

// MaxMessageLen returns the largest Noise message the boundary accepts.
func MaxMessageLen() int {
	return limits.MaxMessageLen
}

// MaxPayloadLen returns the largest plaintext that fits in one Noise
// message once the authentication tag is accounted for.
func MaxPayloadLen() int {
	return limits.MaxPayloadLen
}
