// Package rxtest provides helpers for testing rx streams.
package rxtest

import (
	"sync"
	"time"

	"github.com/xinjiayu/rx"
)

// Record is a notification stamped with the scheduler time it was observed at.
type Record[T any] struct {
	At time.Duration
	rx.Notification[T]
}

// Recorder records the notifications delivered to its Observer.
//
// Recorder is safe to read from a goroutine other than the one delivering
// notifications.
type Recorder[T any] struct {
	scheduler    rx.Scheduler
	start        time.Time
	records      []Record[T]
	subscription *rx.Subscription[T]
	mu           sync.Mutex
}

// NewRecorder constructs a Recorder. When scheduler is nil every record is
// stamped with zero.
func NewRecorder[T any](scheduler rx.Scheduler) *Recorder[T] {
	r := &Recorder[T]{scheduler: scheduler}
	if scheduler != nil {
		r.start = scheduler.Now()
	}
	return r
}

// Observer returns an observer with every capability that records into r.
func (r *Recorder[T]) Observer() rx.Observer[T] {
	return rx.Observer[T]{
		Start: func(s *rx.Subscription[T]) {
			r.mu.Lock()
			r.subscription = s
			r.mu.Unlock()
		},
		Next: func(value T) {
			r.add(rx.NextNotification(value))
		},
		Error: func(err error) {
			r.add(rx.ErrorNotification[T](err))
		},
		Complete: func() {
			r.add(rx.CompleteNotification[T]())
		},
	}
}

// Subscribe subscribes r to source and returns the subscription.
func (r *Recorder[T]) Subscribe(source *rx.Observable[T]) *rx.Subscription[T] {
	return source.Subscribe(r.Observer())
}

// Subscription returns the subscription handed to Start, if any.
func (r *Recorder[T]) Subscription() *rx.Subscription[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscription
}

func (r *Recorder[T]) add(n rx.Notification[T]) {
	var at time.Duration
	if r.scheduler != nil {
		at = r.scheduler.Now().Sub(r.start)
	}
	r.mu.Lock()
	r.records = append(r.records, Record[T]{At: at, Notification: n})
	r.mu.Unlock()
}

// Records returns a snapshot copy of the recorded notifications with times.
func (r *Recorder[T]) Records() []Record[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Record[T], len(r.records))
	copy(cp, r.records)
	return cp
}

// Notifications returns a snapshot copy of the recorded notifications.
func (r *Recorder[T]) Notifications() []rx.Notification[T] {
	records := r.Records()
	out := make([]rx.Notification[T], 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Notification)
	}
	return out
}

// Values returns the values delivered through Next, in order. It never
// returns nil so it can be compared against an empty literal.
func (r *Recorder[T]) Values() []T {
	out := []T{}
	for _, rec := range r.Records() {
		if rec.Kind == rx.OnNext {
			out = append(out, rec.Value)
		}
	}
	return out
}

// Err returns the first error delivered, or nil.
func (r *Recorder[T]) Err() error {
	for _, rec := range r.Records() {
		if rec.Kind == rx.OnError {
			return rec.Err
		}
	}
	return nil
}

// Completed reports whether Complete was delivered.
func (r *Recorder[T]) Completed() bool {
	return r.count(rx.OnComplete) > 0
}

// Terminations counts the Error and Complete notifications. A well-behaved
// stream never exceeds one.
func (r *Recorder[T]) Terminations() int {
	return r.count(rx.OnError) + r.count(rx.OnComplete)
}

// Terminated reports whether an Error or Complete was delivered.
func (r *Recorder[T]) Terminated() bool {
	return r.Terminations() > 0
}

func (r *Recorder[T]) count(kind rx.NotificationKind) int {
	n := 0
	for _, rec := range r.Records() {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}

// Reset clears the recorded notifications.
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}
