// Package session provides Noise protocol secure sessions for the
// noise-mobile library. Each Session runs the XX handshake pattern for
// mutual authentication without prior key knowledge, then carries
// transport messages over the derived cipher states.
package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/flynn/noise"
	"github.com/opd-ai/noise-mobile-go/crypto"
	"github.com/opd-ai/noise-mobile-go/limits"
)

var (
	// ErrInvalidParameter indicates a nil, empty, or malformed argument.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrHandshakeFailed indicates the Noise handshake could not proceed.
	ErrHandshakeFailed = errors.New("handshake failed")
	// ErrEncryptionFailed indicates transport encryption failed.
	ErrEncryptionFailed = errors.New("encryption failed")
	// ErrDecryptionFailed indicates authentication or decryption failure.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrBufferTooSmall indicates an input exceeds the protocol maximum.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrInvalidState indicates an operation was called in the wrong phase.
	ErrInvalidState = errors.New("invalid state")
	// ErrSessionClosed indicates the session has already been closed.
	ErrSessionClosed = errors.New("session closed")
)

// Role defines which side of the handshake a session plays.
type Role uint8

const (
	// Initiator starts the handshake by writing the first message.
	Initiator Role = iota
	// Responder answers a handshake started by a peer.
	Responder
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case Initiator:
		return "initiator"
	case Responder:
		return "responder"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// cipherSuite is the fixed Noise_XX_25519_ChaChaPoly_BLAKE2s suite.
var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2s)

// Session is a Noise XX secure session. It moves through three phases:
// handshaking (WriteMessage/ReadMessage), transport (Encrypt/Decrypt),
// and closed. All methods are safe for concurrent use, though callers
// should still serialize handshake messages against the wire.
type Session struct {
	mu sync.Mutex

	role       Role
	handshake  *noise.HandshakeState
	sendCipher *noise.CipherState
	recvCipher *noise.CipherState

	localStatic  noise.DHKey
	remoteStatic []byte

	complete bool
	closed   bool
}

// New creates a session with a freshly generated static key pair.
func New(role Role) (*Session, error) {
	if role != Initiator && role != Responder {
		return nil, fmt.Errorf("%w: unknown role %d", ErrInvalidParameter, role)
	}

	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: key generation: %v", ErrHandshakeFailed, err)
	}
	defer crypto.WipeKeyPair(keyPair)

	return newSession(keyPair, role)
}

// NewWithKey creates a session using an existing 32-byte static private key.
// The public half is derived from the private key; the caller's slice is
// copied and may be wiped immediately after the call returns.
func NewWithKey(privateKey []byte, role Role) (*Session, error) {
	if role != Initiator && role != Responder {
		return nil, fmt.Errorf("%w: unknown role %d", ErrInvalidParameter, role)
	}
	if err := limits.ValidateKey(privateKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	var privateKeyArray [32]byte
	copy(privateKeyArray[:], privateKey)

	keyPair, err := crypto.FromSecretKey(privateKeyArray)
	if err != nil {
		crypto.ZeroBytes(privateKeyArray[:])
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	crypto.ZeroBytes(privateKeyArray[:])
	defer crypto.WipeKeyPair(keyPair)

	return newSession(keyPair, role)
}

// newSession builds the handshake state around a static key pair. The key
// pair is copied into session-owned slices so the caller can wipe its copy.
func newSession(keyPair *crypto.KeyPair, role Role) (*Session, error) {
	static := noise.DHKey{
		Private: make([]byte, limits.KeyLen),
		Public:  make([]byte, limits.KeyLen),
	}
	copy(static.Private, keyPair.Private[:])
	copy(static.Public, keyPair.Public[:])

	config := noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeXX,
		Initiator:     role == Initiator,
		StaticKeypair: static,
	}

	hs, err := noise.NewHandshakeState(config)
	if err != nil {
		crypto.ZeroBytes(static.Private)
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	return &Session{
		role:        role,
		handshake:   hs,
		localStatic: static,
	}, nil
}

// Role returns which side of the handshake this session plays.
func (s *Session) Role() Role {
	return s.role
}

// WriteMessage produces the next outgoing handshake message, carrying the
// optional payload. The payload may be nil or empty. Note that the XX
// pattern sends the first message's payload in the clear; payloads are
// only confidential once the pattern's encryption has begun.
//
// When the returned message completes the handshake, the session
// transitions to the transport phase and Encrypt/Decrypt become available.
func (s *Session) WriteMessage(payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.complete {
		return nil, fmt.Errorf("%w: handshake already complete", ErrInvalidState)
	}
	if err := limits.ValidatePayload(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferTooSmall, err)
	}

	message, send, recv, err := s.handshake.WriteMessage(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if len(message) > limits.MaxMessageLen {
		// Key material plus payload overflowed the wire limit. The
		// handshake state has advanced and cannot be resumed.
		return nil, fmt.Errorf("%w: produced %d byte message, protocol maximum is %d",
			ErrHandshakeFailed, len(message), limits.MaxMessageLen)
	}

	if send != nil && recv != nil {
		s.finishHandshake(send, recv)
	}
	return message, nil
}

// ReadMessage consumes a received handshake message and returns the
// payload the peer attached, which may be empty.
//
// When the consumed message completes the handshake, the session
// transitions to the transport phase and Encrypt/Decrypt become available.
func (s *Session) ReadMessage(message []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.complete {
		return nil, fmt.Errorf("%w: handshake already complete", ErrInvalidState)
	}
	if err := limits.ValidateHandshakeMessage(message); err != nil {
		if errors.Is(err, limits.ErrMessageEmpty) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBufferTooSmall, err)
	}

	payload, send, recv, err := s.handshake.ReadMessage(nil, message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	if send != nil && recv != nil {
		s.finishHandshake(send, recv)
	}
	return payload, nil
}

// finishHandshake transitions to the transport phase, capturing the peer's
// static key before the handshake state is released. Callers hold s.mu.
func (s *Session) finishHandshake(send, recv *noise.CipherState) {
	s.sendCipher = send
	s.recvCipher = recv

	if peer := s.handshake.PeerStatic(); len(peer) > 0 {
		s.remoteStatic = make([]byte, len(peer))
		copy(s.remoteStatic, peer)
	}

	s.handshake = nil
	s.complete = true
}

// IsHandshakeComplete reports whether the handshake has finished and the
// session is in the transport phase.
func (s *Session) IsHandshakeComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// Encrypt encrypts plaintext for the peer. The ciphertext is the plaintext
// length plus the 16-byte authentication tag. Messages must be decrypted
// by the peer in the order they were encrypted.
func (s *Session) Encrypt(plaintext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if !s.complete {
		return nil, fmt.Errorf("%w: handshake not complete", ErrInvalidState)
	}
	if err := limits.ValidatePlaintext(plaintext); err != nil {
		if errors.Is(err, limits.ErrMessageEmpty) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBufferTooSmall, err)
	}

	ciphertext, err := s.sendCipher.Encrypt(nil, nil, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return ciphertext, nil
}

// Decrypt authenticates and decrypts a ciphertext from the peer. Any
// authentication failure, including tampered, truncated, reordered, or
// replayed ciphertexts, returns ErrDecryptionFailed with no partial output.
func (s *Session) Decrypt(ciphertext []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if !s.complete {
		return nil, fmt.Errorf("%w: handshake not complete", ErrInvalidState)
	}
	if err := limits.ValidateCiphertext(ciphertext); err != nil {
		if errors.Is(err, limits.ErrMessageEmpty) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBufferTooSmall, err)
	}

	plaintext, err := s.recvCipher.Decrypt(nil, nil, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// LocalStaticKey returns a copy of this session's static public key, or
// nil once the session is closed.
func (s *Session) LocalStaticKey() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	key := make([]byte, len(s.localStatic.Public))
	copy(key, s.localStatic.Public)
	return key
}

// RemoteStaticKey returns a copy of the peer's static public key. The key
// is only known once the handshake completes; before that the call fails
// with ErrInvalidState.
func (s *Session) RemoteStaticKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if !s.complete {
		return nil, fmt.Errorf("%w: handshake not complete", ErrInvalidState)
	}
	if len(s.remoteStatic) == 0 {
		return nil, fmt.Errorf("%w: remote static key not available", ErrInvalidState)
	}

	key := make([]byte, len(s.remoteStatic))
	copy(key, s.remoteStatic)
	return key, nil
}

// Close wipes the session's key material and releases its cipher states.
// Close is idempotent; operations on a closed session fail with
// ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	crypto.ZeroBytes(s.localStatic.Private)
	s.handshake = nil
	s.sendCipher = nil
	s.recvCipher = nil
	s.remoteStatic = nil
	s.closed = true
	return nil
}
