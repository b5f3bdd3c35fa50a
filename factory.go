// Factory functions for rx
// 工厂函数，所有同步生产者在每次推送后都重新检查订阅是否已关闭
package rx

import (
	"fmt"
	"iter"
)

// ============================================================================
// 基础工厂函数
// ============================================================================

// Of 依次发射给定的值然后完成
func Of[T any](items ...T) *Observable[T] {
	return FromSlice(items)
}

// Empty 创建一个空的Observable，立即完成
func Empty[T any]() *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		observer.Complete()
		return nil
	})
}

// Never 创建一个永不发射任何通知的Observable
func Never[T any]() *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		return nil
	})
}

// Throw 创建一个立即以错误结束的Observable
func Throw[T any](err error) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		observer.Error(err)
		return nil
	})
}

// Range 发射 [start, start+count) 范围内的整数
func Range(start, count int) *Observable[int] {
	return New(func(observer *SubscriptionObserver[int]) Teardown {
		for i := 0; i < count; i++ {
			observer.Next(start + i)
			if observer.Closed() {
				return nil
			}
		}
		observer.Complete()
		return nil
	})
}

// ============================================================================
// 从数据源创建
// ============================================================================

// FromSlice 从切片创建Observable
func FromSlice[T any](items []T) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		for _, item := range items {
			observer.Next(item)
			if observer.Closed() {
				return nil
			}
		}
		observer.Complete()
		return nil
	})
}

// FromSeq 从迭代器创建Observable，每次订阅重新迭代
func FromSeq[T any](seq iter.Seq[T]) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		for item := range seq {
			observer.Next(item)
			if observer.Closed() {
				return nil
			}
		}
		observer.Complete()
		return nil
	})
}

// From 从互操作值或可迭代值创建Observable
//
// 实现了Interop的值优先委托给它的Observable方法；否则接受 iter.Seq、
// 等价的函数类型和切片。其他值返回包装了 ErrNotObservable 的错误。
func From[T any](source any) (*Observable[T], error) {
	switch s := source.(type) {
	case nil:
		return nil, contractError("rx.From", fmt.Errorf("%w: <nil>", ErrNotObservable))
	case Interop[T]:
		return fromInterop(s)
	case iter.Seq[T]:
		return FromSeq(s), nil
	case func(yield func(T) bool):
		return FromSeq(s), nil
	case []T:
		return FromSlice(s), nil
	}
	return nil, contractError("rx.From", fmt.Errorf("%w: %T", ErrNotObservable, source))
}

// FromChannel 从Go channel创建Observable
//
// 后台goroutine读取channel，每个值都经由调度器投递，保证回调运行在调度器的
// goroutine上（默认是调用方运行的 DefaultLoop）。channel关闭时流完成，取消订阅时停止读取。
func FromChannel[T any](ch <-chan T, options ...Option) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		scheduler := newConfig(options).Scheduler
		stop := make(chan struct{})

		go func() {
			for {
				select {
				case <-stop:
					return
				case value, ok := <-ch:
					if !ok {
						scheduler.Schedule(observer.Complete)
						return
					}
					scheduler.Schedule(func() {
						observer.Next(value)
					})
				}
			}
		}()

		return TeardownFunc(func() {
			close(stop)
		})
	})
}

// FromEvent 把事件源桥接为Observable，事件流是无界的，只有取消订阅才会结束
func FromEvent[E any](target EventTarget[E], event string) *Observable[E] {
	return New(func(observer *SubscriptionObserver[E]) Teardown {
		remove := target.AddEventListener(event, observer.Next)
		if observer.Closed() {
			if remove != nil {
				remove()
			}
			return nil
		}
		return TeardownFunc(remove)
	})
}
