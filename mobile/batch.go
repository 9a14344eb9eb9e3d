package mobile

import (
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/noise-mobile-go/crypto"
	"github.com/opd-ai/noise-mobile-go/session"
)

// Defaults for the auto-flush accounting. Callers tune these per radio
// profile with SetFlushThreshold and SetFlushInterval.
const (
	DefaultFlushThreshold = 10
	DefaultFlushInterval  = 100 * time.Millisecond
)

// BatchedCrypto queues transport operations so a host can wake the radio
// once per batch instead of once per message. Queued buffers are copied
// in, flushed strictly in queue order, and plaintexts are zeroized once
// their ciphertext exists.
//
// Flushing stops at the first failure: the offending item is discarded
// (it produced no cipher-state change) and the remainder stays queued.
// Results produced before the failure are returned alongside the error,
// since dropping them would desynchronize the cipher stream.
type BatchedCrypto struct {
	mu              sync.Mutex
	session         *session.Session
	pendingEncrypts [][]byte
	pendingDecrypts [][]byte
	flushThreshold  int
	flushInterval   time.Duration
	lastFlush       time.Time
}

// NewBatchedCrypto wraps an established session for batched transport.
func NewBatchedCrypto(s *session.Session) *BatchedCrypto {
	return &BatchedCrypto{
		session:        s,
		flushThreshold: DefaultFlushThreshold,
		flushInterval:  DefaultFlushInterval,
		lastFlush:      time.Now(),
	}
}

// QueueEncrypt adds a copy of plaintext to the outbound batch.
func (b *BatchedCrypto) QueueEncrypt(plaintext []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingEncrypts = append(b.pendingEncrypts, append([]byte(nil), plaintext...))
}

// QueueDecrypt adds a copy of ciphertext to the inbound batch.
func (b *BatchedCrypto) QueueDecrypt(ciphertext []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingDecrypts = append(b.pendingDecrypts, append([]byte(nil), ciphertext...))
}

// FlushEncrypts encrypts every queued plaintext in order and returns the
// ciphertexts. On failure the already-produced ciphertexts are returned
// with the error; the failed item is dropped and later items stay queued.
func (b *BatchedCrypto) FlushEncrypts() ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ciphertexts := make([][]byte, 0, len(b.pendingEncrypts))
	for len(b.pendingEncrypts) > 0 {
		plaintext := b.pendingEncrypts[0]
		b.pendingEncrypts = b.pendingEncrypts[1:]

		ciphertext, err := b.session.Encrypt(plaintext)
		crypto.ZeroBytes(plaintext)
		if err != nil {
			b.lastFlush = time.Now()
			return ciphertexts, fmt.Errorf("batched encrypt (item %d): %w", len(ciphertexts), err)
		}
		ciphertexts = append(ciphertexts, ciphertext)
	}

	b.pendingEncrypts = nil
	b.lastFlush = time.Now()
	return ciphertexts, nil
}

// FlushDecrypts decrypts every queued ciphertext in order and returns
// the plaintexts. Failure semantics match FlushEncrypts.
func (b *BatchedCrypto) FlushDecrypts() ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	plaintexts := make([][]byte, 0, len(b.pendingDecrypts))
	for len(b.pendingDecrypts) > 0 {
		ciphertext := b.pendingDecrypts[0]
		b.pendingDecrypts = b.pendingDecrypts[1:]

		plaintext, err := b.session.Decrypt(ciphertext)
		if err != nil {
			b.lastFlush = time.Now()
			return plaintexts, fmt.Errorf("batched decrypt (item %d): %w", len(plaintexts), err)
		}
		plaintexts = append(plaintexts, plaintext)
	}

	b.pendingDecrypts = nil
	b.lastFlush = time.Now()
	return plaintexts, nil
}

// SetFlushThreshold sets the queue depth at which ShouldFlush reports
// true. Values below 1 are clamped to 1.
func (b *BatchedCrypto) SetFlushThreshold(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 1 {
		n = 1
	}
	b.flushThreshold = n
}

// SetFlushInterval sets the maximum age of a non-empty batch before
// ShouldFlush reports true. Zero or negative disables the age trigger.
func (b *BatchedCrypto) SetFlushInterval(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushInterval = d
}

// ShouldFlush reports whether the batch has hit the configured depth
// threshold or age limit. It never flushes on its own; the host decides
// when to spend the radio wakeup.
func (b *BatchedCrypto) ShouldFlush() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := len(b.pendingEncrypts) + len(b.pendingDecrypts)
	if pending == 0 {
		return false
	}
	if pending >= b.flushThreshold {
		return true
	}
	return b.flushInterval > 0 && time.Since(b.lastFlush) >= b.flushInterval
}

// PendingCount returns the total number of queued operations.
func (b *BatchedCrypto) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pendingEncrypts) + len(b.pendingDecrypts)
}

// PendingEncryptCount returns the number of queued plaintexts.
func (b *BatchedCrypto) PendingEncryptCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pendingEncrypts)
}

// PendingDecryptCount returns the number of queued ciphertexts.
func (b *BatchedCrypto) PendingDecryptCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pendingDecrypts)
}
