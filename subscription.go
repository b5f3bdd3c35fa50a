// Subscription implementation for rx
// 订阅的生命周期状态机与转发观察者
package rx

// ============================================================================
// Subscription 订阅
// ============================================================================

// Subscription 一次Subscribe调用建立的生产者与消费者之间的连接
//
// state为nil即表示已关闭，关闭是单向的。Subscription 不是并发安全的，
// 同一条流的所有回调必须在同一个goroutine上执行（参见 Loop）。
type Subscription[T any] struct {
	state *active[T]
}

// active 订阅处于活动状态时持有的资源
type active[T any] struct {
	observer Observer[T]
	cleanup  Disposable
}

// newSubscription 按启动协议创建订阅并调用生产者
func newSubscription[T any](observer Observer[T], producer Producer[T]) *Subscription[T] {
	s := &Subscription[T]{state: &active[T]{observer: observer}}

	if observer.Start != nil {
		sinkCall("rx.Observer.Start", func() {
			observer.Start(s)
		})
	}

	// 在Start中已经取消订阅，生产者不会被调用
	if s.Closed() {
		return s
	}

	so := &SubscriptionObserver[T]{subscription: s}
	teardown, err := runProducer(producer, so)
	if err != nil {
		so.Error(err)
		return s
	}
	if teardown == nil {
		return s
	}

	guard := NewBaseDisposable(func() {
		teardown.Unsubscribe()
	})
	if s.state != nil {
		s.state.cleanup = guard
		return s
	}

	// 生产者在启动期间已经结束了流
	runCleanup(guard)
	return s
}

// runProducer 调用生产者，把同步panic转换为错误
func runProducer[T any](producer Producer[T], so *SubscriptionObserver[T]) (teardown Teardown, err error) {
	defer func() {
		if r := recover(); r != nil {
			teardown = nil
			err = panicToError("rx.Producer", r)
		}
	}()
	return producer(so), nil
}

// Closed 检查订阅是否已关闭
func (s *Subscription[T]) Closed() bool {
	return s == nil || s.state == nil
}

// Unsubscribe 关闭订阅并执行清理，重复调用无效果
func (s *Subscription[T]) Unsubscribe() {
	if s.Closed() {
		return
	}
	st := s.state
	s.state = nil
	runCleanup(st.cleanup)
}

// close 关闭订阅并返回关闭前的状态，已关闭时返回nil
func (s *Subscription[T]) close() *active[T] {
	st := s.state
	s.state = nil
	return st
}

// runCleanup 执行清理守卫，panic作为KindTeardown报告给宿主
func runCleanup(cleanup Disposable) {
	if cleanup == nil {
		return
	}
	defer recoverAs("rx.Teardown", KindTeardown)
	cleanup.Dispose()
}

// ============================================================================
// SubscriptionObserver 转发观察者
// ============================================================================

// SubscriptionObserver 交给生产者的转发代理，关闭后所有调用都是静默的
type SubscriptionObserver[T any] struct {
	subscription *Subscription[T]
}

// Closed 检查绑定的订阅是否已关闭
func (so *SubscriptionObserver[T]) Closed() bool {
	return so.subscription.Closed()
}

// Next 向消费者发送下一个值
func (so *SubscriptionObserver[T]) Next(value T) {
	st := so.subscription.state
	if st == nil || st.observer.Next == nil {
		return
	}
	sinkCall("rx.Observer.Next", func() {
		st.observer.Next(value)
	})
}

// Error 以错误结束流，消费者没有Error回调时报告给宿主
func (so *SubscriptionObserver[T]) Error(err error) {
	st := so.subscription.close()
	if st == nil {
		return
	}

	if st.observer.Error != nil {
		sinkCall("rx.Observer.Error", func() {
			st.observer.Error(err)
		})
	} else {
		Report(&StreamError{
			Op:         "rx.SubscriptionObserver.Error",
			Kind:       KindUnhandled,
			Err:        err,
			StackTrace: CaptureStack(),
		})
	}

	runCleanup(st.cleanup)
}

// Complete 以完成结束流
func (so *SubscriptionObserver[T]) Complete() {
	st := so.subscription.close()
	if st == nil {
		return
	}

	if st.observer.Complete != nil {
		sinkCall("rx.Observer.Complete", st.observer.Complete)
	}

	runCleanup(st.cleanup)
}

// Observer 返回转发到该SubscriptionObserver的观察者，用于向上游订阅
func (so *SubscriptionObserver[T]) Observer() Observer[T] {
	return Observer[T]{
		Next:     so.Next,
		Error:    so.Error,
		Complete: so.Complete,
	}
}
