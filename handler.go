// Host error reporting for rx
// 宿主错误处理：观察者回调和清理动作中的失败不会传回生产者，而是报告到这里
package rx

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrorHandler receives errors that cannot be delivered through a stream.
type ErrorHandler interface {
	// HandleError is called for unhandled and structured errors.
	HandleError(err *StreamError)
	// HandlePanic is called when a panic is recovered from a callback.
	HandlePanic(err *PanicError)
}

var (
	// DefaultHandler is the global error handler.
	// It defaults to LogHandler with verbose=false.
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler configures the global error handler and returns the previous one.
// Pass nil to restore the default LogHandler.
func SetHandler(h ErrorHandler) ErrorHandler {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	prev := DefaultHandler
	if h == nil {
		DefaultHandler = &LogHandler{}
	} else {
		DefaultHandler = h
	}
	return prev
}

func getHandler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return DefaultHandler
}

// Report sends an error to the global handler.
// If err.Timestamp is zero, it is set to the current time.
func Report(err *StreamError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandleError(err)
	}
}

// ReportPanic sends a panic error to the global handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandlePanic(err)
	}
}

// Recover is a helper for deferred panic recovery.
// Usage: defer rx.Recover("operation.name")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(&PanicError{
			Op:         op,
			Value:      r,
			StackTrace: CaptureStack(),
			Timestamp:  time.Now(),
		})
	}
}

// safeCall 执行回调，panic报告给宿主而不向上传播
func safeCall(op string, fn func()) {
	defer Recover(op)
	fn()
}

// recoverAs 恢复panic，以指定类别的StreamError报告给宿主，必须直接defer
func recoverAs(op string, kind ErrorKind) {
	if r := recover(); r != nil {
		Report(&StreamError{
			Op:         op,
			Kind:       kind,
			Err:        panicToError(op, r),
			StackTrace: CaptureStack(),
			Timestamp:  time.Now(),
		})
	}
}

// sinkCall 执行观察者回调，panic作为KindSink报告
func sinkCall(op string, fn func()) {
	defer recoverAs(op, KindSink)
	fn()
}

// CaptureStack returns the current call stack as a string.
// It skips the first few frames to exclude the CaptureStack call itself.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}

// LogHandler is an ErrorHandler that writes to the package logger.
type LogHandler struct {
	// Verbose enables stack traces in the output.
	Verbose bool
}

// HandleError logs a StreamError.
func (h *LogHandler) HandleError(err *StreamError) {
	if err == nil {
		return
	}
	entry := GetLogger().With(map[string]interface{}{
		"op":   err.Op,
		"kind": err.Kind.String(),
	})
	if h.Verbose && err.StackTrace != "" {
		entry = entry.WithField("stack", err.StackTrace)
	}
	entry.Errorf("stream error: %v", err.Err)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	entry := GetLogger().With(map[string]interface{}{
		"op":   err.Op,
		"kind": KindPanic.String(),
	})
	if h.Verbose && err.StackTrace != "" {
		entry = entry.WithField("stack", err.StackTrace)
	}
	entry.Errorf("recovered panic: %v", err.Value)
}
