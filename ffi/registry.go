package ffi

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/noise-mobile-go/session"
)

// Handle identifies a live session across the foreign-function boundary.
// Zero is the null sentinel and is never allocated. Handles are never
// reused: once destroyed, a handle stays dead for the life of the process,
// so a stale handle can never alias a newer session.
type Handle uint64

// sessionWrapper pairs an engine with the per-session last-error slot the
// C API exposes. The registry lock guards only handle resolution; the
// wrapper fields follow the boundary's per-session serialization contract
// (operations on one handle must not run concurrently).
type sessionWrapper struct {
	engine    *session.Session
	lastError Status
}

// Global session registry keyed by handle.
var (
	sessions    = make(map[Handle]*sessionWrapper)
	nextHandle  = Handle(1)
	sessionsMux sync.RWMutex
)

// register stores an engine under a fresh handle.
func register(engine *session.Session) Handle {
	sessionsMux.Lock()
	defer sessionsMux.Unlock()

	h := nextHandle
	nextHandle++
	sessions[h] = &sessionWrapper{engine: engine, lastError: StatusOK}
	return h
}

// resolve looks up the wrapper for a handle, or nil for the null handle
// and for destroyed or never-issued handles.
func resolve(h Handle) *sessionWrapper {
	if h == 0 {
		return nil
	}
	sessionsMux.RLock()
	defer sessionsMux.RUnlock()
	return sessions[h]
}

// create builds a session engine and registers it, returning 0 on failure.
func create(role session.Role, privateKey []byte) Handle {
	var (
		engine *session.Session
		err    error
	)
	if privateKey != nil {
		engine, err = session.NewWithKey(privateKey, role)
	} else {
		engine, err = session.New(role)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "create",
			"role":     role.String(),
			"error":    err.Error(),
		}).Error("Failed to create session")
		return 0
	}
	return register(engine)
}
