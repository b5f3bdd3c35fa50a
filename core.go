// Package rx provides a push-based observable stream primitive for Go
// 基于单订阅者推送模型的Observable核心类型定义
package rx

import "sync/atomic"

// ============================================================================
// 观察者定义
// ============================================================================

// Observer 观察者，所有回调都是可选的，nil表示不具备该能力
type Observer[T any] struct {
	Start    func(subscription *Subscription[T])
	Next     func(value T)
	Error    func(err error)
	Complete func()
}

// Starter 具备Start能力的观察者
type Starter[T any] interface {
	Start(subscription *Subscription[T])
}

// Nexter 具备Next能力的观察者
type Nexter[T any] interface {
	Next(value T)
}

// Errorer 具备Error能力的观察者
type Errorer interface {
	Error(err error)
}

// Completer 具备Complete能力的观察者
type Completer interface {
	Complete()
}

// ObserverOf 将任意值规范化为Observer
//
// 函数 func(T) 视为只有Next的观察者；实现了能力接口任意子集的值
// 按能力逐个映射；其他值得到空观察者，所有通知都被静默丢弃。
func ObserverOf[T any](v any) Observer[T] {
	switch o := v.(type) {
	case nil:
		return Observer[T]{}
	case Observer[T]:
		return o
	case *Observer[T]:
		if o == nil {
			return Observer[T]{}
		}
		return *o
	case func(T):
		return Observer[T]{Next: o}
	}

	var observer Observer[T]
	if s, ok := v.(Starter[T]); ok {
		observer.Start = s.Start
	}
	if n, ok := v.(Nexter[T]); ok {
		observer.Next = n.Next
	}
	if e, ok := v.(Errorer); ok {
		observer.Error = e.Error
	}
	if c, ok := v.(Completer); ok {
		observer.Complete = c.Complete
	}
	return observer
}

// ============================================================================
// 资源释放
// ============================================================================

// Teardown 生产者返回的清理动作，*Subscription 本身也满足该接口
type Teardown interface {
	Unsubscribe()
}

// TeardownFunc 将普通函数适配为Teardown
type TeardownFunc func()

// Unsubscribe 执行清理函数
func (f TeardownFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// Disposable 可释放资源的接口
type Disposable interface {
	// Dispose 释放资源
	Dispose()
	// IsDisposed 检查是否已释放
	IsDisposed() bool
}

// baseDisposable 只执行一次的释放守卫
type baseDisposable struct {
	disposed atomic.Bool
	action   func()
}

// NewBaseDisposable 创建只执行一次的释放守卫
func NewBaseDisposable(action func()) Disposable {
	return &baseDisposable{action: action}
}

// Dispose 释放资源
func (d *baseDisposable) Dispose() {
	if d.disposed.CompareAndSwap(false, true) {
		if d.action != nil {
			d.action()
		}
	}
}

// IsDisposed 检查是否已释放
func (d *baseDisposable) IsDisposed() bool {
	return d.disposed.Load()
}

// CompositeDisposable 组合式资源管理器
type CompositeDisposable struct {
	disposed  bool
	resources []Disposable
}

// NewCompositeDisposable 创建组合式资源管理器
func NewCompositeDisposable(resources ...Disposable) *CompositeDisposable {
	cd := &CompositeDisposable{}
	for _, r := range resources {
		cd.Add(r)
	}
	return cd
}

// Add 添加可释放资源，已释放时立即释放新资源
func (cd *CompositeDisposable) Add(disposable Disposable) {
	if disposable == nil {
		return
	}
	if cd.disposed {
		disposable.Dispose()
		return
	}
	cd.resources = append(cd.resources, disposable)
}

// Dispose 按添加顺序释放所有资源
func (cd *CompositeDisposable) Dispose() {
	if cd.disposed {
		return
	}
	cd.disposed = true
	resources := cd.resources
	cd.resources = nil
	for _, resource := range resources {
		resource.Dispose()
	}
}

// IsDisposed 检查是否已释放
func (cd *CompositeDisposable) IsDisposed() bool {
	return cd.disposed
}

// Unsubscribe 让CompositeDisposable可以直接作为Teardown返回
func (cd *CompositeDisposable) Unsubscribe() {
	cd.Dispose()
}

// ============================================================================
// 配置选项
// ============================================================================

// Option 配置选项接口
type Option interface {
	Apply(config *Config)
}

// Config 配置结构
type Config struct {
	Scheduler Scheduler
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{}
}

// newConfig 应用选项，未指定调度器时使用默认调度器
func newConfig(options []Option) *Config {
	config := DefaultConfig()
	for _, opt := range options {
		if opt != nil {
			opt.Apply(config)
		}
	}
	if config.Scheduler == nil {
		config.Scheduler = DefaultScheduler()
	}
	return config
}

// WithScheduler 创建使用指定调度器的选项
func WithScheduler(scheduler Scheduler) Option {
	return &schedulerOption{scheduler: scheduler}
}

// schedulerOption 调度器选项
type schedulerOption struct {
	scheduler Scheduler
}

// Apply 应用调度器选项
func (o *schedulerOption) Apply(config *Config) {
	config.Scheduler = o.scheduler
}
