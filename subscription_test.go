package rx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// 启动协议
// ============================================================================

func TestSubscriptionStart(t *testing.T) {
	t.Run("Start在生产者之前收到订阅", func(t *testing.T) {
		var order []string
		var got *Subscription[int]

		obs := New(func(observer *SubscriptionObserver[int]) Teardown {
			order = append(order, "producer")
			return nil
		})
		sub := obs.Subscribe(Observer[int]{
			Start: func(s *Subscription[int]) {
				order = append(order, "start")
				got = s
			},
		})

		assert.Equal(t, []string{"start", "producer"}, order)
		assert.Same(t, sub, got)
		assert.False(t, sub.Closed())
	})

	t.Run("Start中取消订阅则不调用生产者", func(t *testing.T) {
		called := false
		obs := New(func(observer *SubscriptionObserver[int]) Teardown {
			called = true
			return nil
		})

		sub := obs.Subscribe(Observer[int]{
			Start: func(s *Subscription[int]) {
				s.Unsubscribe()
			},
		})

		assert.False(t, called)
		assert.True(t, sub.Closed())
	})

	t.Run("Start中的panic报告给宿主", func(t *testing.T) {
		h := captureHandler(t)
		var values []int

		Of(1, 2).Subscribe(Observer[int]{
			Start: func(*Subscription[int]) {
				panic("start")
			},
			Next: func(v int) {
				values = append(values, v)
			},
		})

		assert.Equal(t, []int{1, 2}, values)
		require.Len(t, h.errors, 1)
		assert.Equal(t, "rx.Observer.Start", h.errors[0].Op)
		assert.Equal(t, KindSink, h.errors[0].Kind)
	})

	t.Run("nil生产者panic", func(t *testing.T) {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			err, ok := r.(*StreamError)
			require.True(t, ok)
			assert.Equal(t, KindContract, err.Kind)
			assert.ErrorIs(t, err, ErrNilProducer)
		}()
		New[int](nil)
	})
}

// ============================================================================
// 生产者失败
// ============================================================================

func TestSubscriptionProducerFailure(t *testing.T) {
	t.Run("错误值直接投递", func(t *testing.T) {
		cause := errors.New("setup failed")
		var got error

		sub := New(func(observer *SubscriptionObserver[int]) Teardown {
			panic(cause)
		}).SubscribeFunc(nil, func(err error) {
			got = err
		}, nil)

		assert.Same(t, cause, got)
		assert.True(t, sub.Closed())
	})

	t.Run("其他值包装为PanicError", func(t *testing.T) {
		var got error

		New(func(observer *SubscriptionObserver[int]) Teardown {
			panic("boom")
		}).SubscribeFunc(nil, func(err error) {
			got = err
		}, nil)

		var pe *PanicError
		require.ErrorAs(t, got, &pe)
		assert.Equal(t, "rx.Producer", pe.Op)
		assert.Equal(t, "boom", pe.Value)
	})

	t.Run("已关闭后panic被丢弃", func(t *testing.T) {
		h := captureHandler(t)
		completions := 0
		errs := 0

		New(func(observer *SubscriptionObserver[int]) Teardown {
			observer.Complete()
			panic("late")
		}).SubscribeFunc(nil, func(error) {
			errs++
		}, func() {
			completions++
		})

		assert.Equal(t, 1, completions)
		assert.Zero(t, errs)
		assert.Empty(t, h.errors)
	})
}

// ============================================================================
// 关闭门与清理
// ============================================================================

func TestSubscriptionCleanup(t *testing.T) {
	t.Run("完成时清理只执行一次", func(t *testing.T) {
		cleanups := 0
		var so *SubscriptionObserver[int]

		sub := New(func(observer *SubscriptionObserver[int]) Teardown {
			so = observer
			return TeardownFunc(func() {
				cleanups++
			})
		}).Subscribe(Observer[int]{})

		so.Complete()
		so.Complete()
		sub.Unsubscribe()

		assert.Equal(t, 1, cleanups)
		assert.True(t, sub.Closed())
		assert.True(t, so.Closed())
	})

	t.Run("同步结束时立即清理", func(t *testing.T) {
		cleanups := 0

		New(func(observer *SubscriptionObserver[int]) Teardown {
			observer.Next(1)
			observer.Complete()
			return TeardownFunc(func() {
				cleanups++
			})
		}).Subscribe(Observer[int]{})

		assert.Equal(t, 1, cleanups)
	})

	t.Run("取消订阅可以重复调用", func(t *testing.T) {
		cleanups := 0

		sub := New(func(observer *SubscriptionObserver[int]) Teardown {
			return TeardownFunc(func() {
				cleanups++
			})
		}).Subscribe(Observer[int]{})

		sub.Unsubscribe()
		sub.Unsubscribe()

		assert.Equal(t, 1, cleanups)
	})

	t.Run("订阅可以作为清理动作返回", func(t *testing.T) {
		inner := 0
		source := New(func(observer *SubscriptionObserver[int]) Teardown {
			return TeardownFunc(func() {
				inner++
			})
		})

		sub := New(func(observer *SubscriptionObserver[int]) Teardown {
			return source.Subscribe(observer.Observer())
		}).Subscribe(Observer[int]{})
		sub.Unsubscribe()

		assert.Equal(t, 1, inner)
	})

	t.Run("清理中的panic报告给宿主", func(t *testing.T) {
		h := captureHandler(t)

		sub := New(func(observer *SubscriptionObserver[int]) Teardown {
			return TeardownFunc(func() {
				panic("teardown")
			})
		}).Subscribe(Observer[int]{})

		assert.NotPanics(t, sub.Unsubscribe)
		require.Len(t, h.errors, 1)
		assert.Equal(t, "rx.Teardown", h.errors[0].Op)
		assert.Equal(t, KindTeardown, h.errors[0].Kind)
		assert.Empty(t, h.panics)
		assert.True(t, sub.Closed())

		var pe *PanicError
		require.ErrorAs(t, h.errors[0], &pe)
		assert.Equal(t, "teardown", pe.Value)
	})

	t.Run("nil订阅视为已关闭", func(t *testing.T) {
		var sub *Subscription[int]
		assert.True(t, sub.Closed())
		assert.NotPanics(t, sub.Unsubscribe)
	})
}

func TestSubscriptionObserverGate(t *testing.T) {
	t.Run("关闭后的通知被静默丢弃", func(t *testing.T) {
		var values []int
		completions := 0
		errs := 0

		New(func(observer *SubscriptionObserver[int]) Teardown {
			observer.Next(1)
			observer.Complete()
			observer.Next(2)
			observer.Error(errors.New("late"))
			observer.Complete()
			return nil
		}).SubscribeFunc(func(v int) {
			values = append(values, v)
		}, func(error) {
			errs++
		}, func() {
			completions++
		})

		assert.Equal(t, []int{1}, values)
		assert.Equal(t, 1, completions)
		assert.Zero(t, errs)
	})

	t.Run("取消订阅后不再投递", func(t *testing.T) {
		var so *SubscriptionObserver[int]
		var values []int

		sub := New(func(observer *SubscriptionObserver[int]) Teardown {
			so = observer
			return nil
		}).SubscribeFunc(func(v int) {
			values = append(values, v)
		}, nil, nil)

		so.Next(1)
		sub.Unsubscribe()
		so.Next(2)

		assert.Equal(t, []int{1}, values)
		assert.True(t, so.Closed())
	})

	t.Run("Next中取消订阅", func(t *testing.T) {
		var values []int
		var sub *Subscription[int]

		sub = Range(1, 10).Subscribe(Observer[int]{
			Start: func(s *Subscription[int]) {
				sub = s
			},
			Next: func(v int) {
				values = append(values, v)
				if v == 3 {
					sub.Unsubscribe()
				}
			},
		})

		assert.Equal(t, []int{1, 2, 3}, values)
	})

	t.Run("Error时先关闭再清理", func(t *testing.T) {
		var order []string
		var so *SubscriptionObserver[int]

		New(func(observer *SubscriptionObserver[int]) Teardown {
			so = observer
			return TeardownFunc(func() {
				order = append(order, "cleanup")
			})
		}).SubscribeFunc(nil, func(error) {
			order = append(order, "error")
			assert.True(t, so.Closed())
		}, nil)

		so.Error(errors.New("boom"))
		assert.Equal(t, []string{"error", "cleanup"}, order)
	})

	t.Run("没有Error回调时报告给宿主", func(t *testing.T) {
		h := captureHandler(t)
		cause := errors.New("boom")

		sub := Throw[int](cause).Subscribe(Observer[int]{})

		assert.True(t, sub.Closed())
		require.Len(t, h.errors, 1)
		assert.Equal(t, KindUnhandled, h.errors[0].Kind)
		assert.ErrorIs(t, h.errors[0], cause)
	})

	t.Run("观察者回调中的panic不会传回生产者", func(t *testing.T) {
		h := captureHandler(t)
		var values []int

		Of(1, 2, 3).SubscribeFunc(func(v int) {
			if v == 2 {
				panic("sink")
			}
			values = append(values, v)
		}, nil, nil)

		assert.Equal(t, []int{1, 3}, values)
		require.Len(t, h.errors, 1)
		assert.Equal(t, "rx.Observer.Next", h.errors[0].Op)
		assert.Equal(t, KindSink, h.errors[0].Kind)

		var pe *PanicError
		require.ErrorAs(t, h.errors[0], &pe)
		assert.Equal(t, "sink", pe.Value)
	})

	t.Run("缺少的能力被忽略", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Of(1, 2).Subscribe(Observer[int]{})
		})
	})
}

// ============================================================================
// 观察者规范化
// ============================================================================

type partialObserver struct {
	values    []int
	completed bool
}

func (p *partialObserver) Next(v int) {
	p.values = append(p.values, v)
}

func (p *partialObserver) Complete() {
	p.completed = true
}

func TestObserverOf(t *testing.T) {
	t.Run("能力接口的子集", func(t *testing.T) {
		p := &partialObserver{}
		Of(1, 2).SubscribeAny(p)

		assert.Equal(t, []int{1, 2}, p.values)
		assert.True(t, p.completed)
	})

	t.Run("函数视为Next", func(t *testing.T) {
		var values []int
		Of(1, 2).SubscribeAny(func(v int) {
			values = append(values, v)
		})

		assert.Equal(t, []int{1, 2}, values)
	})

	t.Run("其他值得到空观察者", func(t *testing.T) {
		observer := ObserverOf[int](42)
		assert.Nil(t, observer.Next)
		assert.Nil(t, observer.Error)
		assert.Nil(t, observer.Complete)
		assert.Nil(t, observer.Start)

		assert.Nil(t, ObserverOf[int](nil).Next)
		assert.Nil(t, ObserverOf[int]((*Observer[int])(nil)).Next)
	})
}

// ============================================================================
// 资源释放
// ============================================================================

func TestCompositeDisposable(t *testing.T) {
	var order []int
	a := NewBaseDisposable(func() { order = append(order, 1) })
	b := NewBaseDisposable(func() { order = append(order, 2) })

	cd := NewCompositeDisposable(a, nil, b)
	cd.Dispose()
	cd.Dispose()

	assert.Equal(t, []int{1, 2}, order)
	assert.True(t, cd.IsDisposed())
	assert.True(t, a.IsDisposed())

	late := NewBaseDisposable(func() { order = append(order, 3) })
	cd.Add(late)
	assert.True(t, late.IsDisposed())
	assert.Equal(t, []int{1, 2, 3}, order)
}
