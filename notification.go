package rx

import "fmt"

// NotificationKind identifies which of the three signals a Notification carries.
type NotificationKind string

const (
	OnNext     NotificationKind = "next"
	OnError    NotificationKind = "error"
	OnComplete NotificationKind = "complete"
)

// Notification is a stream signal reified as a value.
type Notification[T any] struct {
	Kind  NotificationKind
	Value T
	Err   error
}

// NextNotification wraps a value.
func NextNotification[T any](value T) Notification[T] {
	return Notification[T]{Kind: OnNext, Value: value}
}

// ErrorNotification wraps an error.
func ErrorNotification[T any](err error) Notification[T] {
	return Notification[T]{Kind: OnError, Err: err}
}

// CompleteNotification marks completion.
func CompleteNotification[T any]() Notification[T] {
	return Notification[T]{Kind: OnComplete}
}

func (n Notification[T]) String() string {
	switch n.Kind {
	case OnNext:
		return fmt.Sprintf("next %v", n.Value)
	case OnError:
		return fmt.Sprintf("error %v", n.Err)
	default:
		return string(n.Kind)
	}
}

// Accept delivers the notification to observer.
func (n Notification[T]) Accept(observer *SubscriptionObserver[T]) {
	switch n.Kind {
	case OnNext:
		observer.Next(n.Value)
	case OnError:
		observer.Error(n.Err)
	case OnComplete:
		observer.Complete()
	}
}

// Materialize turns every signal of source into a value. The returned stream
// completes right after the source terminates.
func Materialize[T any](source Interop[T]) *Observable[Notification[T]] {
	upstream := lift(source)
	return New(func(observer *SubscriptionObserver[Notification[T]]) Teardown {
		return upstream.Subscribe(Observer[T]{
			Next: func(value T) {
				observer.Next(NextNotification(value))
			},
			Error: func(err error) {
				observer.Next(ErrorNotification[T](err))
				observer.Complete()
			},
			Complete: func() {
				observer.Next(CompleteNotification[T]())
				observer.Complete()
			},
		})
	})
}
