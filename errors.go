// Error types for rx
// 结构化错误定义
package rx

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNilProducer New 收到nil生产者
	ErrNilProducer = errors.New("observable producer must be a function")
	// ErrNotObservable From 的参数既不能互操作也不能迭代
	ErrNotObservable = errors.New("value is not observable")
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindContract indicates misuse of the API by the caller.
	KindContract
	// KindSink indicates an observer callback panicked.
	KindSink
	// KindUnhandled indicates an error reached an observer without an Error callback.
	KindUnhandled
	// KindTeardown indicates a teardown action panicked.
	KindTeardown
	// KindPanic indicates a recovered panic outside a stream, such as a scheduled task.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindContract:
		return "contract"
	case KindSink:
		return "sink"
	case KindUnhandled:
		return "unhandled"
	case KindTeardown:
		return "teardown"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// StreamError represents a structured error raised by a stream.
type StreamError struct {
	// Op is the operation that failed (e.g., "rx.From").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "rx.SubscriptionObserver.Next").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// contractError 构造调用方误用API的错误
func contractError(op string, err error) *StreamError {
	return &StreamError{
		Op:        op,
		Kind:      KindContract,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// panicToError 把恢复的panic值转换为可以投递给观察者的错误
func panicToError(op string, r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{
		Op:         op,
		Value:      r,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
}
