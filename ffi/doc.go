// Package ffi implements the foreign-function boundary of the noise-mobile
// library: a handle table over session engines, defensive buffer
// marshaling, and translation of Go errors into the numeric status codes
// native callers expect.
//
// The package is the Go side of the C API. The capi package wraps these
// functions in exported noise_* symbols for a c-shared build; everything
// here is plain Go and fully testable without cgo.
//
// # Handle Table
//
// Sessions live in a process-global registry keyed by Handle, an opaque
// uint64. Zero is the null sentinel. Handles increase monotonically and
// are never reused, so a use-after-destroy can never reach a newer
// session; it simply fails handle resolution:
//
//	h := ffi.CreateInitiator()
//	defer ffi.Destroy(h)
//	if h == 0 {
//	    // creation failed
//	}
//
// Every operation tolerates the null handle and destroyed handles by
// returning its default value (nil, false, or StatusInvalidParameter).
// Nothing at this boundary panics on bad input.
//
// # Buffer Marshaling
//
// Inbound slices are copied before the engine sees them and outbound
// results are copied into fresh host-owned slices, so no memory is shared
// across the boundary in either direction. Inputs beyond the documented
// maxima (65535-byte messages, 65519-byte plaintexts) are rejected with
// StatusBufferTooSmall before the engine runs; there is no dynamic
// resizing. A successful operation with empty output returns an empty
// non-nil slice, while nil always means failure.
//
// # Error Translation
//
// Fallible operations record a Status into the session's last-error slot
// on every exit path and signal failure through their return value:
//
//	ciphertext := ffi.Encrypt(h, plaintext)
//	if ciphertext == nil {
//	    code := ffi.LastError(h)
//	    log.Printf("encrypt failed: %s", code)
//	}
//
// Status.String describes any code, falling back to "Unknown error" for
// values outside the defined range.
//
// # Concurrency
//
// The registry is safe for concurrent use from any goroutine: sessions may
// be created, resolved, and destroyed in parallel. Operations against a
// single handle must be serialized by the caller, matching the usual FFI
// contract; the last-error slot is per-session state and follows the same
// rule.
package ffi
