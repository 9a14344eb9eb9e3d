// Package mobile adapts established sessions to the realities of phone
// and embedded deployments: radios that cost battery to wake, and
// transports that duplicate or replay traffic.
//
// # Batching
//
// BatchedCrypto queues plaintexts and ciphertexts so the host can wake
// the radio once per batch. The queue never flushes itself; the host
// polls ShouldFlush from its own scheduler and calls FlushEncrypts /
// FlushDecrypts when it is ready to spend the wakeup. Flushes preserve
// queue order, which the Noise cipher's strict nonce sequence requires.
//
// # Resilience
//
// ResilientSession frames each plaintext with a big-endian uint64
// sequence number inside the encrypted envelope. Inbound sequences are
// checked against a 64-entry sliding bitmap window, rejecting duplicates
// and anything older than the window floor. The counters and window
// serialize to deterministic CBOR for persistence across process
// restarts; the wrapped session is re-established separately and passed
// to RestoreResilientSession.
//
// Both wrappers own their session exclusively. Do not mix wrapped and
// direct transport calls on the same session, or the peer's cipher
// state will desynchronize.
package mobile
