package main

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/noise-mobile-go/ffi"
)

// This is the main package required for building as c-shared
// It provides C-compatible wrappers for the Go noise session boundary

func main() {} // Required for c-shared build mode

// Session modes accepted by noise_session_new.
const (
	modeInitiator = 0
	modeResponder = 1
)

// pinnedHandles keeps each handle allocation reachable while the native
// caller holds the pointer, so the garbage collector cannot move or
// reclaim it before noise_session_free.
var (
	pinnedHandles = make(map[*uint64]struct{})
	pinMutex      sync.Mutex
)

// retainHandle wraps a boundary handle in a pinned opaque pointer.
func retainHandle(h ffi.Handle) unsafe.Pointer {
	p := new(uint64)
	*p = uint64(h)

	pinMutex.Lock()
	pinnedHandles[p] = struct{}{}
	pinMutex.Unlock()

	return unsafe.Pointer(p)
}

// releaseHandle unpins a handle allocation after the session is freed.
func releaseHandle(session unsafe.Pointer) {
	if session == nil {
		return
	}
	p := (*uint64)(session)

	pinMutex.Lock()
	delete(pinnedHandles, p)
	pinMutex.Unlock()
}

// handleOf recovers the boundary handle behind an opaque pointer. The
// null pointer maps to the null handle, which every boundary operation
// rejects.
func handleOf(session unsafe.Pointer) ffi.Handle {
	if session == nil {
		return 0
	}
	return ffi.Handle(*(*uint64)(session))
}

// cSlice copies length bytes from a caller buffer into Go memory.
func cSlice(ptr *byte, length int) []byte {
	if ptr == nil || length <= 0 {
		return nil
	}
	buf := make([]byte, length)
	for i := 0; i < length; i++ {
		buf[i] = *(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(ptr)) + uintptr(i)))
	}
	return buf
}

// copyToC delivers data into a caller buffer with in/out length
// semantics: *outLen carries the buffer capacity in and the written (or,
// on NOISE_BUFFER_TOO_SMALL, required) length out.
func copyToC(out *byte, outLen *int, data []byte) int {
	if outLen == nil {
		return int(ffi.StatusInvalidParameter)
	}
	if len(data) > *outLen {
		*outLen = len(data)
		return int(ffi.StatusBufferTooSmall)
	}
	if len(data) > 0 {
		if out == nil {
			return int(ffi.StatusInvalidParameter)
		}
		for i, b := range data {
			*(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(out)) + uintptr(i))) = b
		}
	}
	*outLen = len(data)
	return int(ffi.StatusOK)
}

//export noise_session_new
func noise_session_new(mode int) unsafe.Pointer {
	var h ffi.Handle
	switch mode {
	case modeInitiator:
		h = ffi.CreateInitiator()
	case modeResponder:
		h = ffi.CreateResponder()
	default:
		logrus.WithFields(logrus.Fields{
			"function": "noise_session_new",
			"mode":     mode,
		}).Error("Invalid session mode")
		return nil
	}
	if h == 0 {
		return nil
	}
	return retainHandle(h)
}

//export noise_session_new_with_key
func noise_session_new_with_key(key *byte, keyLen int, mode int) unsafe.Pointer {
	privateKey := cSlice(key, keyLen)

	var h ffi.Handle
	switch mode {
	case modeInitiator:
		h = ffi.CreateInitiatorWithKey(privateKey)
	case modeResponder:
		h = ffi.CreateResponderWithKey(privateKey)
	default:
		logrus.WithFields(logrus.Fields{
			"function": "noise_session_new_with_key",
			"mode":     mode,
		}).Error("Invalid session mode")
		return nil
	}
	if h == 0 {
		return nil
	}
	return retainHandle(h)
}

//export noise_session_free
func noise_session_free(session unsafe.Pointer) {
	if session == nil {
		return
	}
	ffi.Destroy(handleOf(session))
	releaseHandle(session)
}

//export noise_get_public_key
func noise_get_public_key(session unsafe.Pointer, out *byte, outLen *int) int {
	h := handleOf(session)
	key := ffi.GetPublicKey(h)
	if key == nil {
		return int(ffi.LastError(h))
	}
	return copyToC(out, outLen, key)
}

//export noise_get_remote_static
func noise_get_remote_static(session unsafe.Pointer, out *byte, outLen *int) int {
	h := handleOf(session)
	key := ffi.GetRemoteStatic(h)
	if key == nil {
		return int(ffi.LastError(h))
	}
	return copyToC(out, outLen, key)
}

//export noise_is_handshake_complete
func noise_is_handshake_complete(session unsafe.Pointer) int {
	if ffi.IsHandshakeComplete(handleOf(session)) {
		return 1
	}
	return 0
}

//export noise_write_message
func noise_write_message(session unsafe.Pointer, payload *byte, payloadLen int, out *byte, outLen *int) int {
	h := handleOf(session)
	message := ffi.WriteMessage(h, cSlice(payload, payloadLen))
	if message == nil {
		return int(ffi.LastError(h))
	}
	return copyToC(out, outLen, message)
}

//export noise_read_message
func noise_read_message(session unsafe.Pointer, message *byte, messageLen int, out *byte, outLen *int) int {
	h := handleOf(session)
	payload := ffi.ReadMessage(h, cSlice(message, messageLen))
	if payload == nil {
		return int(ffi.LastError(h))
	}
	return copyToC(out, outLen, payload)
}

//export noise_encrypt
func noise_encrypt(session unsafe.Pointer, plaintext *byte, plaintextLen int, out *byte, outLen *int) int {
	h := handleOf(session)
	ciphertext := ffi.Encrypt(h, cSlice(plaintext, plaintextLen))
	if ciphertext == nil {
		return int(ffi.LastError(h))
	}
	return copyToC(out, outLen, ciphertext)
}

//export noise_decrypt
func noise_decrypt(session unsafe.Pointer, ciphertext *byte, ciphertextLen int, out *byte, outLen *int) int {
	h := handleOf(session)
	plaintext := ffi.Decrypt(h, cSlice(ciphertext, ciphertextLen))
	if plaintext == nil {
		return int(ffi.LastError(h))
	}
	return copyToC(out, outLen, plaintext)
}

//export noise_get_last_error
func noise_get_last_error(session unsafe.Pointer) int {
	return int(ffi.LastError(handleOf(session)))
}

//export noise_error_string
func noise_error_string(code int, out *byte, outLen *int) int {
	return copyToC(out, outLen, []byte(ffi.StatusString(code)))
}

//export noise_max_message_len
func noise_max_message_len() int {
	return ffi.MaxMessageLen()
}

//export noise_max_payload_len
func noise_max_payload_len() int {
	return ffi.MaxPayloadLen()
}
