package mobile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/opd-ai/noise-mobile-go/crypto"
	"github.com/opd-ai/noise-mobile-go/session"
)

// ReplayWindowSize is the number of recent sequence numbers tracked by
// the anti-replay bitmap. Sequences older than the window floor are
// rejected outright.
const ReplayWindowSize = 64

// resilientStateVersion is the current serialization format version.
const resilientStateVersion = 1

var (
	// ErrReplayDetected indicates a sequence number that was already
	// accepted or has fallen behind the replay window.
	ErrReplayDetected = errors.New("replay detected")

	// ErrSequenceOverflow indicates the outbound sequence counter is
	// exhausted. The session must be re-established.
	ErrSequenceOverflow = errors.New("sequence number overflow")

	// ErrTruncatedMessage indicates a decrypted message too short to
	// carry a sequence header.
	ErrTruncatedMessage = errors.New("message shorter than sequence header")
)

// encMode and decMode apply Core Deterministic Encoding (RFC 8949 §4.2)
// so the same resilient state always serializes to identical bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("mobile: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("mobile: CBOR decoder initialization failed: " + err.Error())
	}
}

// resilientState is the serialized form of a ResilientSession's counters
// and replay window. Session cipher state is not included; the wrapped
// session is supplied separately on restore.
type resilientState struct {
	Version      uint16 `cbor:"version"`
	LastSent     uint64 `cbor:"last_sent"`
	LastReceived uint64 `cbor:"last_received"`
	Window       uint64 `cbor:"window"`
}

// ResilientSession layers explicit sequence numbers over an established
// session for transports that may duplicate traffic (push relays,
// store-and-forward queues, aggressive retry loops).
//
// Each outbound plaintext is prefixed with a big-endian uint64 sequence
// before encryption, so the number rides inside the authenticated
// envelope. Inbound messages are decrypted first, then checked against a
// sliding bitmap window covering the ReplayWindowSize most recent
// sequences.
//
// The underlying Noise cipher already rejects most replays by nonce
// mismatch; the window additionally catches duplicates delivered through
// the application layer and sequence reuse by a misbehaving peer that
// holds valid session keys.
type ResilientSession struct {
	mu           sync.Mutex
	session      *session.Session
	lastSent     uint64
	lastReceived uint64
	window       uint64
}

// NewResilientSession wraps an established session. Sequence numbering
// starts at 1 for the first message in each direction.
func NewResilientSession(s *session.Session) *ResilientSession {
	return &ResilientSession{session: s}
}

// RestoreResilientSession rebuilds a ResilientSession from state
// produced by Serialize, wrapping the supplied session.
func RestoreResilientSession(data []byte, s *session.Session) (*ResilientSession, error) {
	if s == nil {
		return nil, errors.New("session is nil")
	}

	var state resilientState
	if err := decMode.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode resilient state: %w", err)
	}
	if state.Version != resilientStateVersion {
		return nil, fmt.Errorf("unsupported resilient state version: %d", state.Version)
	}

	return &ResilientSession{
		session:      s,
		lastSent:     state.LastSent,
		lastReceived: state.LastReceived,
		window:       state.Window,
	}, nil
}

// Serialize encodes the sequence counters and replay window as
// deterministic CBOR. The wrapped session's cipher state is not
// serialized.
func (r *ResilientSession) Serialize() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return encMode.Marshal(resilientState{
		Version:      resilientStateVersion,
		LastSent:     r.lastSent,
		LastReceived: r.lastReceived,
		Window:       r.window,
	})
}

// EncryptWithSequence encrypts plaintext with the next outbound sequence
// number prepended. Unlike Session.Encrypt, an empty plaintext is
// allowed; the sequence header keeps the message non-empty.
func (r *ResilientSession) EncryptWithSequence(plaintext []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastSent == math.MaxUint64 {
		return nil, ErrSequenceOverflow
	}
	seq := r.lastSent + 1

	framed := make([]byte, 8+len(plaintext))
	binary.BigEndian.PutUint64(framed[:8], seq)
	copy(framed[8:], plaintext)

	ciphertext, err := r.session.Encrypt(framed)
	crypto.ZeroBytes(framed)
	if err != nil {
		return nil, fmt.Errorf("encrypt sequence %d: %w", seq, err)
	}

	r.lastSent = seq
	return ciphertext, nil
}

// DecryptWithReplayCheck decrypts a message and verifies its sequence
// number against the replay window. On a replay the plaintext is
// discarded and ErrReplayDetected is returned; note the cipher state has
// still advanced, as the message authenticated correctly.
func (r *ResilientSession) DecryptWithReplayCheck(message []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	framed, err := r.session.Decrypt(message)
	if err != nil {
		return nil, err
	}
	if len(framed) < 8 {
		crypto.ZeroBytes(framed)
		return nil, ErrTruncatedMessage
	}

	seq := binary.BigEndian.Uint64(framed[:8])
	if err := r.checkAndUpdateWindow(seq); err != nil {
		crypto.ZeroBytes(framed)
		return nil, err
	}

	return framed[8:], nil
}

// checkAndUpdateWindow validates seq against the sliding bitmap and
// marks it seen. Bit i of the window covers sequence lastReceived-i.
func (r *ResilientSession) checkAndUpdateWindow(seq uint64) error {
	if seq == 0 {
		return fmt.Errorf("%w: sequence 0 is never sent", ErrReplayDetected)
	}

	if seq > r.lastReceived {
		shift := seq - r.lastReceived
		if shift >= ReplayWindowSize {
			r.window = 1
		} else {
			r.window = r.window<<shift | 1
		}
		r.lastReceived = seq
		return nil
	}

	diff := r.lastReceived - seq
	if diff >= ReplayWindowSize {
		return fmt.Errorf("%w: sequence %d is below the window floor", ErrReplayDetected, seq)
	}

	bit := uint64(1) << diff
	if r.window&bit != 0 {
		return fmt.Errorf("%w: sequence %d already seen", ErrReplayDetected, seq)
	}
	r.window |= bit
	return nil
}

// LastSent returns the most recent outbound sequence number, zero if
// nothing has been sent.
func (r *ResilientSession) LastSent() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSent
}

// LastReceived returns the highest accepted inbound sequence number,
// zero if nothing has been received.
func (r *ResilientSession) LastReceived() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReceived
}
