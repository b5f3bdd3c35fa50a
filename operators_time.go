// Time-based operators for rx
// 时间操作符，计时器都由调度器创建，并在取消订阅、错误或完成中最先发生的一个时释放
//
// 未指定调度器时使用 DefaultScheduler：定时回调在调用方运行 DefaultLoop 的goroutine上执行。
package rx

import "time"

// Debounce 防抖操作符，只有在指定时间内没有新值时才发射最后一个值
//
// 被新值取代的值永远不会发射；错误和完成会先取消待发射的值再转发。
func (o *Observable[T]) Debounce(duration time.Duration, options ...Option) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		scheduler := newConfig(options).Scheduler

		var pending Disposable
		cancel := func() {
			if pending != nil {
				pending.Dispose()
				pending = nil
			}
		}

		subscription := o.Subscribe(Observer[T]{
			Next: func(value T) {
				cancel()
				pending = scheduler.ScheduleWithDelay(func() {
					pending = nil
					observer.Next(value)
				}, duration)
			},
			Error: func(err error) {
				cancel()
				observer.Error(err)
			},
			Complete: func() {
				cancel()
				observer.Complete()
			},
		})

		return TeardownFunc(func() {
			cancel()
			subscription.Unsubscribe()
		})
	})
}

// Interval 以固定周期发射递增计数，与上游的值无关
//
// 上游只决定生命周期：上游出错或完成时停止计时并转发。
func (o *Observable[T]) Interval(period time.Duration, options ...Option) *Observable[int] {
	return New(func(observer *SubscriptionObserver[int]) Teardown {
		scheduler := newConfig(options).Scheduler

		count := 0
		ticker := scheduler.ScheduleAtInterval(func() {
			observer.Next(count)
			count++
		}, period)
		resources := NewCompositeDisposable(ticker)

		subscription := o.Subscribe(Observer[T]{
			Error: func(err error) {
				ticker.Dispose()
				observer.Error(err)
			},
			Complete: func() {
				ticker.Dispose()
				observer.Complete()
			},
		})
		resources.Add(NewBaseDisposable(subscription.Unsubscribe))

		return resources
	})
}

// Timer 在指定延迟后发射0然后完成
func Timer(delay time.Duration, options ...Option) *Observable[int] {
	return New(func(observer *SubscriptionObserver[int]) Teardown {
		scheduler := newConfig(options).Scheduler
		task := scheduler.ScheduleWithDelay(func() {
			observer.Next(0)
			observer.Complete()
		}, delay)
		return TeardownFunc(task.Dispose)
	})
}
