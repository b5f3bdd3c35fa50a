// Operators for rx
// 转换、过滤与聚合操作符，每个操作符都是一个订阅上游的新Observable
package rx

// ============================================================================
// 转换操作符
// ============================================================================

// Map 对每个值应用fn，错误和完成原样传递
func Map[T, U any](source Interop[T], fn func(T) U) *Observable[U] {
	upstream := lift(source)
	return New(func(observer *SubscriptionObserver[U]) Teardown {
		return upstream.Subscribe(Observer[T]{
			Next: func(value T) {
				observer.Next(fn(value))
			},
			Error:    observer.Error,
			Complete: observer.Complete,
		})
	})
}

// Map 同类型的Map
func (o *Observable[T]) Map(fn func(T) T) *Observable[T] {
	return Map(o, fn)
}

// Scan 发射每一步的累积值
func Scan[T, R any](source Interop[T], seed R, fn func(acc R, value T) R) *Observable[R] {
	upstream := lift(source)
	return New(func(observer *SubscriptionObserver[R]) Teardown {
		acc := seed
		return upstream.Subscribe(Observer[T]{
			Next: func(value T) {
				acc = fn(acc, value)
				observer.Next(acc)
			},
			Error:    observer.Error,
			Complete: observer.Complete,
		})
	})
}

// DoOnNext 对每个值执行副作用后原样转发
func (o *Observable[T]) DoOnNext(action func(T)) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		return o.Subscribe(Observer[T]{
			Next: func(value T) {
				action(value)
				observer.Next(value)
			},
			Error:    observer.Error,
			Complete: observer.Complete,
		})
	})
}

// ============================================================================
// 过滤操作符
// ============================================================================

// Filter 只转发满足谓词的值
func (o *Observable[T]) Filter(predicate func(T) bool) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		return o.Subscribe(Observer[T]{
			Next: func(value T) {
				if predicate(value) {
					observer.Next(value)
				}
			},
			Error:    observer.Error,
			Complete: observer.Complete,
		})
	})
}

// Take 取前count个值后自行完成并取消上游订阅
func (o *Observable[T]) Take(count int) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		if count <= 0 {
			observer.Complete()
			return nil
		}

		remaining := count
		var upstream *Subscription[T]
		return o.Subscribe(Observer[T]{
			Start: func(s *Subscription[T]) {
				upstream = s
			},
			Next: func(value T) {
				if remaining <= 0 {
					observer.Complete()
					upstream.Unsubscribe()
					return
				}
				remaining--
				observer.Next(value)
				if remaining == 0 {
					observer.Complete()
					upstream.Unsubscribe()
				}
			},
			Error:    observer.Error,
			Complete: observer.Complete,
		})
	})
}

// TakeLast 只取最后count个值，在上游完成时按顺序发射
func (o *Observable[T]) TakeLast(count int) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		buffer := make([]T, 0, max(count, 0))
		return o.Subscribe(Observer[T]{
			Next: func(value T) {
				if count <= 0 {
					return
				}
				if len(buffer) == count {
					copy(buffer, buffer[1:])
					buffer[len(buffer)-1] = value
					return
				}
				buffer = append(buffer, value)
			},
			Error: observer.Error,
			Complete: func() {
				for _, value := range buffer {
					observer.Next(value)
					if observer.Closed() {
						return
					}
				}
				buffer = nil
				observer.Complete()
			},
		})
	})
}

// TakeWhile 在谓词成立时转发，第一次不成立时自行完成并取消上游订阅
func (o *Observable[T]) TakeWhile(predicate func(T) bool) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		var upstream *Subscription[T]
		return o.Subscribe(Observer[T]{
			Start: func(s *Subscription[T]) {
				upstream = s
			},
			Next: func(value T) {
				if !predicate(value) {
					observer.Complete()
					upstream.Unsubscribe()
					return
				}
				observer.Next(value)
			},
			Error:    observer.Error,
			Complete: observer.Complete,
		})
	})
}

// Skip 跳过前count个值
func (o *Observable[T]) Skip(count int) *Observable[T] {
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		skipped := 0
		return o.Subscribe(Observer[T]{
			Next: func(value T) {
				if skipped < count {
					skipped++
					return
				}
				observer.Next(value)
			},
			Error:    observer.Error,
			Complete: observer.Complete,
		})
	})
}

// ============================================================================
// 聚合操作符
// ============================================================================

// Reduce 累积所有值，上游完成时发射最终结果
//
// 累加器从R的零值开始；空序列发射零值。错误直接传递，不发射累加器。
func Reduce[T, R any](source Interop[T], fn func(acc R, value T) R) *Observable[R] {
	upstream := lift(source)
	return New(func(observer *SubscriptionObserver[R]) Teardown {
		var acc R
		return upstream.Subscribe(Observer[T]{
			Next: func(value T) {
				acc = fn(acc, value)
			},
			Error: observer.Error,
			Complete: func() {
				observer.Next(acc)
				observer.Complete()
			},
		})
	})
}

// Reduce 同类型的Reduce
func (o *Observable[T]) Reduce(fn func(acc, value T) T) *Observable[T] {
	return Reduce(o, fn)
}
