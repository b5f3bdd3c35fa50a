// Observable implementation for rx
// 冷Observable：订阅之前不做任何工作，每次订阅都相互独立
package rx

// ============================================================================
// Observable 核心实现
// ============================================================================

// Producer 生产者函数，向SubscriptionObserver推送通知并返回可选的清理动作
type Producer[T any] func(observer *SubscriptionObserver[T]) Teardown

// Observable 可观察序列，构造后不可变
type Observable[T any] struct {
	producer Producer[T]
}

// Subscribable 最小的推送契约，外部流类型实现它即可参与互操作
type Subscribable[T any] interface {
	SubscribeObserver(observer Observer[T]) Teardown
}

// Interop 可转换为Observable的类型
type Interop[T any] interface {
	Observable() Subscribable[T]
}

// New 创建新的Observable，producer为nil时panic
func New[T any](producer Producer[T]) *Observable[T] {
	if producer == nil {
		panic(contractError("rx.New", ErrNilProducer))
	}
	return &Observable[T]{producer: producer}
}

// Subscribe 订阅观察者，这是启动生产的唯一入口
func (o *Observable[T]) Subscribe(observer Observer[T]) *Subscription[T] {
	return newSubscription(observer, o.producer)
}

// SubscribeFunc 使用回调函数订阅，nil回调表示不具备该能力
func (o *Observable[T]) SubscribeFunc(onNext func(T), onError func(error), onComplete func()) *Subscription[T] {
	return o.Subscribe(Observer[T]{
		Next:     onNext,
		Error:    onError,
		Complete: onComplete,
	})
}

// SubscribeAny 订阅任意观察者形态的值，规则见 ObserverOf
func (o *Observable[T]) SubscribeAny(observer any) *Subscription[T] {
	return o.Subscribe(ObserverOf[T](observer))
}

// SubscribeObserver 实现Subscribable
func (o *Observable[T]) SubscribeObserver(observer Observer[T]) Teardown {
	return o.Subscribe(observer)
}

// Observable 实现Interop，返回自身
func (o *Observable[T]) Observable() Subscribable[T] {
	return o
}

// fromInterop 把互操作值适配为Observable，已经是*Observable时直接返回
func fromInterop[T any](source Interop[T]) (*Observable[T], error) {
	if source == nil {
		return nil, contractError("rx.From", ErrNotObservable)
	}
	if obs, ok := source.(*Observable[T]); ok {
		if obs == nil {
			return nil, contractError("rx.From", ErrNotObservable)
		}
		return obs, nil
	}
	subscribable := source.Observable()
	if subscribable == nil {
		return nil, contractError("rx.From", ErrNotObservable)
	}
	if obs, ok := subscribable.(*Observable[T]); ok && obs != nil {
		return obs, nil
	}
	return New(func(observer *SubscriptionObserver[T]) Teardown {
		return subscribable.SubscribeObserver(observer.Observer())
	}), nil
}

// lift 操作符使用的互操作适配，无法转换时返回一个立即出错的Observable
func lift[T any](source Interop[T]) *Observable[T] {
	obs, err := fromInterop(source)
	if err != nil {
		return Throw[T](err)
	}
	return obs
}
