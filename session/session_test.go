package session

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/opd-ai/noise-mobile-go/crypto"
	"github.com/opd-ai/noise-mobile-go/limits"
)

// runHandshake drives a full XX handshake between two sessions with empty
// payloads, failing the test on any error.
func runHandshake(t *testing.T, initiator, responder *Session) {
	t.Helper()

	msg1, err := initiator.WriteMessage(nil)
	if err != nil {
		t.Fatalf("initiator message 1 failed: %v", err)
	}
	if _, err := responder.ReadMessage(msg1); err != nil {
		t.Fatalf("responder read of message 1 failed: %v", err)
	}

	msg2, err := responder.WriteMessage(nil)
	if err != nil {
		t.Fatalf("responder message 2 failed: %v", err)
	}
	if _, err := initiator.ReadMessage(msg2); err != nil {
		t.Fatalf("initiator read of message 2 failed: %v", err)
	}

	msg3, err := initiator.WriteMessage(nil)
	if err != nil {
		t.Fatalf("initiator message 3 failed: %v", err)
	}
	if _, err := responder.ReadMessage(msg3); err != nil {
		t.Fatalf("responder read of message 3 failed: %v", err)
	}
}

// newTransportPair returns two sessions with a completed handshake.
func newTransportPair(t *testing.T) (*Session, *Session) {
	t.Helper()

	initiator, err := New(Initiator)
	if err != nil {
		t.Fatalf("failed to create initiator: %v", err)
	}
	responder, err := New(Responder)
	if err != nil {
		t.Fatalf("failed to create responder: %v", err)
	}
	runHandshake(t, initiator, responder)
	return initiator, responder
}

// Test session creation for both roles
func TestNew(t *testing.T) {
	initiator, err := New(Initiator)
	if err != nil {
		t.Fatalf("Failed to create initiator: %v", err)
	}
	if initiator.Role() != Initiator {
		t.Error("Expected initiator role")
	}
	if initiator.IsHandshakeComplete() {
		t.Error("Handshake should not be complete initially")
	}

	responder, err := New(Responder)
	if err != nil {
		t.Fatalf("Failed to create responder: %v", err)
	}
	if responder.Role() != Responder {
		t.Error("Expected responder role")
	}

	if _, err := New(Role(7)); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for unknown role, got %v", err)
	}
}

// Test key validation in NewWithKey
func TestNewWithKeyValidation(t *testing.T) {
	valid := make([]byte, 32)
	if _, err := rand.Read(valid); err != nil {
		t.Fatal(err)
	}

	if _, err := NewWithKey(valid, Initiator); err != nil {
		t.Errorf("Valid 32-byte key rejected: %v", err)
	}

	for _, size := range []int{0, 1, 16, 31, 33, 64} {
		key := make([]byte, size)
		if size > 0 {
			if _, err := rand.Read(key); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := NewWithKey(key, Initiator); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("Key of %d bytes should fail with ErrInvalidParameter, got %v", size, err)
		}
	}

	if _, err := NewWithKey(nil, Responder); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Nil key should fail with ErrInvalidParameter, got %v", err)
	}

	zero := make([]byte, 32)
	if _, err := NewWithKey(zero, Initiator); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("All-zero key should fail with ErrInvalidParameter, got %v", err)
	}

	if _, err := NewWithKey(valid, Role(200)); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Unknown role should fail with ErrInvalidParameter, got %v", err)
	}
}

// Test the complete XX handshake with empty payloads followed by an
// encrypted exchange, the canonical three-message flow.
func TestXXHandshakeFlow(t *testing.T) {
	initiator, err := New(Initiator)
	if err != nil {
		t.Fatal(err)
	}
	responder, err := New(Responder)
	if err != nil {
		t.Fatal(err)
	}

	// Message 1: initiator -> responder.
	msg1, err := initiator.WriteMessage(nil)
	if err != nil {
		t.Fatalf("Initiator WriteMessage failed: %v", err)
	}
	if len(msg1) == 0 {
		t.Error("Expected non-empty first message")
	}
	if initiator.IsHandshakeComplete() {
		t.Error("Initiator complete after message 1")
	}
	if _, err := responder.ReadMessage(msg1); err != nil {
		t.Fatalf("Responder ReadMessage failed: %v", err)
	}
	if responder.IsHandshakeComplete() {
		t.Error("Responder complete after message 1")
	}

	// Message 2: responder -> initiator.
	msg2, err := responder.WriteMessage(nil)
	if err != nil {
		t.Fatalf("Responder WriteMessage failed: %v", err)
	}
	if _, err := initiator.ReadMessage(msg2); err != nil {
		t.Fatalf("Initiator ReadMessage failed: %v", err)
	}
	if initiator.IsHandshakeComplete() || responder.IsHandshakeComplete() {
		t.Error("Neither side should be complete after message 2")
	}

	// Message 3: initiator -> responder. Writing it completes the
	// initiator; reading it completes the responder.
	msg3, err := initiator.WriteMessage(nil)
	if err != nil {
		t.Fatalf("Initiator WriteMessage for message 3 failed: %v", err)
	}
	if !initiator.IsHandshakeComplete() {
		t.Error("Initiator should complete after writing message 3")
	}
	if responder.IsHandshakeComplete() {
		t.Error("Responder complete before reading message 3")
	}
	if _, err := responder.ReadMessage(msg3); err != nil {
		t.Fatalf("Responder ReadMessage for message 3 failed: %v", err)
	}
	if !responder.IsHandshakeComplete() {
		t.Error("Responder should complete after reading message 3")
	}

	// Encrypted round-trip in both directions.
	plaintext := []byte("hello")
	ciphertext, err := initiator.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(ciphertext) != len(plaintext)+limits.TagLen {
		t.Errorf("Ciphertext length = %d, want %d", len(ciphertext), len(plaintext)+limits.TagLen)
	}
	decrypted, err := responder.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Decrypted %q, want %q", decrypted, plaintext)
	}

	reply, err := responder.Encrypt([]byte("hello back"))
	if err != nil {
		t.Fatalf("Responder Encrypt failed: %v", err)
	}
	back, err := initiator.Decrypt(reply)
	if err != nil {
		t.Fatalf("Initiator Decrypt failed: %v", err)
	}
	if !bytes.Equal(back, []byte("hello back")) {
		t.Errorf("Round trip produced %q", back)
	}
}

// Test that handshake payloads are delivered to the peer at each step
func TestHandshakePayloadDelivery(t *testing.T) {
	initiator, err := New(Initiator)
	if err != nil {
		t.Fatal(err)
	}
	responder, err := New(Responder)
	if err != nil {
		t.Fatal(err)
	}

	msg1, err := initiator.WriteMessage([]byte("syn"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := responder.ReadMessage(msg1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("syn")) {
		t.Errorf("Message 1 payload = %q, want %q", got, "syn")
	}

	msg2, err := responder.WriteMessage([]byte("syn-ack"))
	if err != nil {
		t.Fatal(err)
	}
	got, err = initiator.ReadMessage(msg2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("syn-ack")) {
		t.Errorf("Message 2 payload = %q, want %q", got, "syn-ack")
	}

	msg3, err := initiator.WriteMessage([]byte("ack"))
	if err != nil {
		t.Fatal(err)
	}
	got, err = responder.ReadMessage(msg3)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("ack")) {
		t.Errorf("Message 3 payload = %q, want %q", got, "ack")
	}
}

// Test remote static key exchange through the XX pattern
func TestRemoteStaticKeyExchange(t *testing.T) {
	initiator, err := New(Initiator)
	if err != nil {
		t.Fatal(err)
	}
	responder, err := New(Responder)
	if err != nil {
		t.Fatal(err)
	}

	// Before completion the remote key is unknown.
	if _, err := initiator.RemoteStaticKey(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState before handshake, got %v", err)
	}

	runHandshake(t, initiator, responder)

	remoteOfInitiator, err := initiator.RemoteStaticKey()
	if err != nil {
		t.Fatalf("RemoteStaticKey failed: %v", err)
	}
	remoteOfResponder, err := responder.RemoteStaticKey()
	if err != nil {
		t.Fatalf("RemoteStaticKey failed: %v", err)
	}

	if !bytes.Equal(remoteOfInitiator, responder.LocalStaticKey()) {
		t.Error("Initiator's view of the peer key does not match responder's local key")
	}
	if !bytes.Equal(remoteOfResponder, initiator.LocalStaticKey()) {
		t.Error("Responder's view of the peer key does not match initiator's local key")
	}
}

// Test that sessions built from explicit keys expose the derived publics
func TestNewWithKeyHandshake(t *testing.T) {
	initKP, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	respKP, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	initiator, err := NewWithKey(initKP.Private[:], Initiator)
	if err != nil {
		t.Fatalf("NewWithKey initiator failed: %v", err)
	}
	responder, err := NewWithKey(respKP.Private[:], Responder)
	if err != nil {
		t.Fatalf("NewWithKey responder failed: %v", err)
	}

	if !bytes.Equal(initiator.LocalStaticKey(), initKP.Public[:]) {
		t.Error("Initiator local static key does not match the supplied key pair")
	}

	runHandshake(t, initiator, responder)

	remote, err := responder.RemoteStaticKey()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(remote, initKP.Public[:]) {
		t.Error("Responder learned a different initiator static key")
	}
}

// Test wrong-phase operations fail with ErrInvalidState
func TestPhaseErrors(t *testing.T) {
	initiator, err := New(Initiator)
	if err != nil {
		t.Fatal(err)
	}

	// Transport operations before completion.
	if _, err := initiator.Encrypt([]byte("data")); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Encrypt before handshake: expected ErrInvalidState, got %v", err)
	}
	if _, err := initiator.Decrypt(bytes.Repeat([]byte{1}, 32)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Decrypt before handshake: expected ErrInvalidState, got %v", err)
	}

	// Handshake operations after completion.
	a, b := newTransportPair(t)
	if _, err := a.WriteMessage(nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("WriteMessage after handshake: expected ErrInvalidState, got %v", err)
	}
	if _, err := b.ReadMessage(bytes.Repeat([]byte{1}, 32)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ReadMessage after handshake: expected ErrInvalidState, got %v", err)
	}
}

// Test that a responder cannot write the first handshake message
func TestResponderCannotWriteFirst(t *testing.T) {
	responder, err := New(Responder)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := responder.WriteMessage(nil); !errors.Is(err, ErrHandshakeFailed) {
		t.Errorf("Expected ErrHandshakeFailed for out-of-turn write, got %v", err)
	}
}

// Test corrupted handshake messages are rejected
func TestCorruptedHandshakeMessage(t *testing.T) {
	initiator, err := New(Initiator)
	if err != nil {
		t.Fatal(err)
	}
	responder, err := New(Responder)
	if err != nil {
		t.Fatal(err)
	}

	msg1, err := initiator.WriteMessage(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := responder.ReadMessage(msg1); err != nil {
		t.Fatal(err)
	}
	msg2, err := responder.WriteMessage(nil)
	if err != nil {
		t.Fatal(err)
	}

	// Message 2 carries encrypted static key material; flipping a bit
	// must break the handshake.
	corrupted := make([]byte, len(msg2))
	copy(corrupted, msg2)
	corrupted[len(corrupted)/2] ^= 0x01

	if _, err := initiator.ReadMessage(corrupted); !errors.Is(err, ErrHandshakeFailed) {
		t.Errorf("Expected ErrHandshakeFailed for corrupted message, got %v", err)
	}
}

// Test input validation for empty and oversized buffers
func TestInputValidation(t *testing.T) {
	a, b := newTransportPair(t)

	if _, err := a.Encrypt(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Encrypt(nil): expected ErrInvalidParameter, got %v", err)
	}
	if _, err := a.Encrypt([]byte{}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Encrypt(empty): expected ErrInvalidParameter, got %v", err)
	}
	if _, err := b.Decrypt(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Decrypt(nil): expected ErrInvalidParameter, got %v", err)
	}

	oversizedPlain := make([]byte, limits.MaxPayloadLen+1)
	if _, err := a.Encrypt(oversizedPlain); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Oversized Encrypt: expected ErrBufferTooSmall, got %v", err)
	}
	oversizedCipher := make([]byte, limits.MaxMessageLen+1)
	if _, err := b.Decrypt(oversizedCipher); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Oversized Decrypt: expected ErrBufferTooSmall, got %v", err)
	}

	fresh, err := New(Responder)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fresh.ReadMessage(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ReadMessage(nil): expected ErrInvalidParameter, got %v", err)
	}
	oversizedMsg := make([]byte, limits.MaxMessageLen+1)
	if _, err := fresh.ReadMessage(oversizedMsg); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Oversized ReadMessage: expected ErrBufferTooSmall, got %v", err)
	}

	writer, err := New(Initiator)
	if err != nil {
		t.Fatal(err)
	}
	oversizedPayload := make([]byte, limits.MaxPayloadLen+1)
	if _, err := writer.WriteMessage(oversizedPayload); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Oversized WriteMessage payload: expected ErrBufferTooSmall, got %v", err)
	}
}

// Test ciphertext length across a range of plaintext sizes
func TestCiphertextLength(t *testing.T) {
	a, b := newTransportPair(t)

	for _, size := range []int{1, 16, 17, 1024, 4096} {
		plaintext := make([]byte, size)
		if _, err := rand.Read(plaintext); err != nil {
			t.Fatal(err)
		}

		ciphertext, err := a.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt of %d bytes failed: %v", size, err)
		}
		if len(ciphertext) != size+limits.TagLen {
			t.Errorf("Ciphertext for %d bytes has length %d, want %d",
				size, len(ciphertext), size+limits.TagLen)
		}

		decrypted, err := b.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt of %d byte message failed: %v", size, err)
		}
		if !bytes.Equal(decrypted, plaintext) {
			t.Errorf("Round trip of %d bytes corrupted the payload", size)
		}
	}
}

// Test tampered ciphertext always fails authentication
func TestTamperedCiphertext(t *testing.T) {
	a, b := newTransportPair(t)

	plaintext := []byte("authenticated payload")
	ciphertext, err := a.Encrypt(plaintext)
	if err != nil {
		t.Fatal(err)
	}

	for _, pos := range []int{0, len(ciphertext) / 2, len(ciphertext) - 1} {
		tampered := make([]byte, len(ciphertext))
		copy(tampered, ciphertext)
		tampered[pos] ^= 0x01

		if _, err := b.Decrypt(tampered); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("Bit flip at %d: expected ErrDecryptionFailed, got %v", pos, err)
		}
	}

	// The untampered original still decrypts because failed attempts do
	// not advance the receive nonce.
	decrypted, err := b.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Original ciphertext failed after tamper attempts: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("Original ciphertext decrypted to wrong payload")
	}
}

// Test truncated ciphertext fails authentication
func TestTruncatedCiphertext(t *testing.T) {
	a, b := newTransportPair(t)

	ciphertext, err := a.Encrypt([]byte("some payload"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := b.Decrypt(ciphertext[:limits.TagLen-1]); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Sub-tag ciphertext: expected ErrDecryptionFailed, got %v", err)
	}
	if _, err := b.Decrypt(ciphertext[:len(ciphertext)-1]); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Truncated ciphertext: expected ErrDecryptionFailed, got %v", err)
	}
}

// Test out-of-order transport messages fail authentication
func TestOutOfOrderDecryption(t *testing.T) {
	a, b := newTransportPair(t)

	first, err := a.Encrypt([]byte("first"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Encrypt([]byte("second"))
	if err != nil {
		t.Fatal(err)
	}

	// Delivering the second message first desynchronizes the nonce.
	if _, err := b.Decrypt(second); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Out-of-order decrypt: expected ErrDecryptionFailed, got %v", err)
	}

	// In-order delivery still works afterwards.
	got, err := b.Decrypt(first)
	if err != nil {
		t.Fatalf("In-order decrypt failed: %v", err)
	}
	if !bytes.Equal(got, []byte("first")) {
		t.Errorf("Decrypted %q, want %q", got, "first")
	}
}

// Test Close semantics: idempotent, wipes state, rejects further use
func TestClose(t *testing.T) {
	a, b := newTransportPair(t)

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}

	if _, err := a.Encrypt([]byte("data")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Encrypt after Close: expected ErrSessionClosed, got %v", err)
	}
	if _, err := a.Decrypt(bytes.Repeat([]byte{1}, 32)); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Decrypt after Close: expected ErrSessionClosed, got %v", err)
	}
	if _, err := a.RemoteStaticKey(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("RemoteStaticKey after Close: expected ErrSessionClosed, got %v", err)
	}
	if key := a.LocalStaticKey(); key != nil {
		t.Error("LocalStaticKey after Close should be nil")
	}

	// Closing mid-handshake is also safe.
	fresh, err := New(Initiator)
	if err != nil {
		t.Fatal(err)
	}
	if err := fresh.Close(); err != nil {
		t.Fatalf("Close mid-handshake failed: %v", err)
	}
	if _, err := fresh.WriteMessage(nil); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("WriteMessage after Close: expected ErrSessionClosed, got %v", err)
	}

	_ = b.Close()
}

// Test that returned keys are copies, not aliases of internal state
func TestKeyCopies(t *testing.T) {
	a, b := newTransportPair(t)
	defer a.Close()
	defer b.Close()

	key1 := a.LocalStaticKey()
	key1[0] ^= 0xFF
	key2 := a.LocalStaticKey()
	if key1[0] == key2[0] {
		t.Error("LocalStaticKey returned an alias of internal state")
	}

	remote1, err := a.RemoteStaticKey()
	if err != nil {
		t.Fatal(err)
	}
	remote1[0] ^= 0xFF
	remote2, err := a.RemoteStaticKey()
	if err != nil {
		t.Fatal(err)
	}
	if remote1[0] == remote2[0] {
		t.Error("RemoteStaticKey returned an alias of internal state")
	}
}

func BenchmarkHandshake(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		initiator, err := New(Initiator)
		if err != nil {
			b.Fatal(err)
		}
		responder, err := New(Responder)
		if err != nil {
			b.Fatal(err)
		}

		msg1, err := initiator.WriteMessage(nil)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := responder.ReadMessage(msg1); err != nil {
			b.Fatal(err)
		}
		msg2, err := responder.WriteMessage(nil)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := initiator.ReadMessage(msg2); err != nil {
			b.Fatal(err)
		}
		msg3, err := initiator.WriteMessage(nil)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := responder.ReadMessage(msg3); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkTransportPair(b *testing.B) (*Session, *Session) {
	b.Helper()

	initiator, err := New(Initiator)
	if err != nil {
		b.Fatal(err)
	}
	responder, err := New(Responder)
	if err != nil {
		b.Fatal(err)
	}

	msg1, _ := initiator.WriteMessage(nil)
	if _, err := responder.ReadMessage(msg1); err != nil {
		b.Fatal(err)
	}
	msg2, _ := responder.WriteMessage(nil)
	if _, err := initiator.ReadMessage(msg2); err != nil {
		b.Fatal(err)
	}
	msg3, _ := initiator.WriteMessage(nil)
	if _, err := responder.ReadMessage(msg3); err != nil {
		b.Fatal(err)
	}
	return initiator, responder
}

func BenchmarkEncrypt(b *testing.B) {
	a, _ := benchmarkTransportPair(b)
	plaintext := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Encrypt(plaintext); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncryptDecrypt(b *testing.B) {
	x, y := benchmarkTransportPair(b)
	plaintext := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ciphertext, err := x.Encrypt(plaintext)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := y.Decrypt(ciphertext); err != nil {
			b.Fatal(err)
		}
	}
}
