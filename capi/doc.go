// Package main provides C API bindings for noise-mobile-go, enabling
// cross-language interoperability with C applications and mobile FFI
// layers (JNI, Swift/Objective-C bridging, P/Invoke).
//
// # Overview
//
// The capi package wraps the ffi boundary in C-compatible exports. Every
// function follows C calling conventions: opaque session pointers, raw
// byte pointers with explicit lengths, and integer status codes matching
// the stable error enumeration (0 through 8).
//
// # Build Instructions
//
// To build as a C shared library:
//
//	go build -buildmode=c-shared -o libnoise.so ./capi/
//
// This generates:
//   - libnoise.so: The shared library
//   - libnoise.h: Auto-generated C header file with function declarations
//
// # C API Usage
//
//	#include "libnoise.h"
//
//	// Create an initiator session (mode 0) with a fresh static key
//	void *session = noise_session_new(0);
//	if (session == NULL) {
//	    fprintf(stderr, "Failed to create session\n");
//	    return 1;
//	}
//
//	// Produce the first handshake message
//	unsigned char msg[65535];
//	int msg_len = sizeof(msg);
//	int status = noise_write_message(session, NULL, 0, msg, &msg_len);
//	if (status != 0) {
//	    fprintf(stderr, "Handshake failed: %d\n", status);
//	}
//
//	// ... exchange messages until noise_is_handshake_complete() == 1,
//	// then move to noise_encrypt / noise_decrypt for transport data.
//
//	// Cleanup
//	noise_session_free(session);
//
// # Buffer Conventions
//
// Output parameters use in/out length semantics. The caller sets *out_len
// to the buffer capacity before the call; on success the function writes
// the payload and stores the written length in *out_len. When the buffer
// is too small the function writes nothing, stores the required length in
// *out_len, and returns NOISE_ERROR_BUFFER_TOO_SMALL (6) so the caller
// can retry with adequate capacity.
//
// Input buffers are copied into Go memory before any processing, so the
// caller may reuse or free them as soon as the call returns. Output
// buffers are filled byte by byte; the library never retains pointers
// into caller memory.
//
// # Thread Safety
//
// Distinct sessions may be used from different threads freely. Calls on
// the same session, including noise_get_last_error, must be serialized
// by the caller, matching the usual usage of one session per connection
// on one reader/writer pair.
//
// # Instance Management
//
// noise_session_new and noise_session_new_with_key return opaque pointers
// backed by pinned Go allocations, so the pointer stays valid while it is
// held only by C code. Always release sessions with noise_session_free;
// freeing NULL or freeing twice is harmless. Any other use of a freed
// pointer is undefined, as with any C object.
//
// # Error Handling
//
// Every fallible function returns one of the stable status codes:
//
//	int status = noise_encrypt(session, data, data_len, out, &out_len);
//	if (status != 0) {
//	    char text[64];
//	    int text_len = sizeof(text);
//	    noise_error_string(status, text, &text_len);
//	    fprintf(stderr, "encrypt: %.*s\n", text_len, text);
//	}
//
// The per-session slot read by noise_get_last_error records the outcome
// of the most recent session operation and mirrors the returned status.
//
// # Limitations
//
//   - The package must be built as "package main" with a main() function
//     to work as a c-shared library
//   - Session construction reports failure only through a NULL return;
//     the reason (bad mode, rejected key) is logged but not enumerated
//   - Memory management follows C conventions - the caller owns every
//     buffer passed across the boundary
//
// # Files
//
//   - noise_c.go: C exports over the ffi boundary
//   - doc.go: This documentation file
package main
