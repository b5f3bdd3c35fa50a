package rxtest

import (
	"sync"
	"testing"

	"github.com/xinjiayu/rx"
)

// Handler is an rx.ErrorHandler that keeps what it receives.
type Handler struct {
	mu     sync.Mutex
	errors []*rx.StreamError
	panics []*rx.PanicError
}

// NewHandler constructs an empty Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Capture installs a new Handler as the global rx handler for the duration of
// the test.
func Capture(t testing.TB) *Handler {
	t.Helper()
	h := NewHandler()
	prev := rx.SetHandler(h)
	t.Cleanup(func() {
		rx.SetHandler(prev)
	})
	return h
}

// HandleError implements rx.ErrorHandler.
func (h *Handler) HandleError(err *rx.StreamError) {
	h.mu.Lock()
	h.errors = append(h.errors, err)
	h.mu.Unlock()
}

// HandlePanic implements rx.ErrorHandler.
func (h *Handler) HandlePanic(err *rx.PanicError) {
	h.mu.Lock()
	h.panics = append(h.panics, err)
	h.mu.Unlock()
}

// Errors returns a snapshot copy of the reported errors.
func (h *Handler) Errors() []*rx.StreamError {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*rx.StreamError(nil), h.errors...)
}

// Panics returns a snapshot copy of the reported panics.
func (h *Handler) Panics() []*rx.PanicError {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*rx.PanicError(nil), h.panics...)
}

// Reported counts everything the handler received.
func (h *Handler) Reported() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.errors) + len(h.panics)
}
