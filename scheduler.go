// Scheduler implementations for rx
// 调度器：所有时间相关的回调都经由调度器在同一个goroutine上执行
package rx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ============================================================================
// 调度器接口
// ============================================================================

// Scheduler 调度器接口，控制任务执行时机
type Scheduler interface {
	// Now 返回调度器的当前时间
	Now() time.Time
	// Schedule 调度一个任务
	Schedule(action func()) Disposable
	// ScheduleWithDelay 延迟调度一个任务
	ScheduleWithDelay(action func(), delay time.Duration) Disposable
	// ScheduleAtInterval 周期性调度一个任务，第一次执行在一个周期之后
	ScheduleAtInterval(action func(), period time.Duration) Disposable
}

var (
	// ErrLoopRunning Run 被重复调用
	ErrLoopRunning = errors.New("rx: loop is already running")
	// ErrLoopStopped 事件循环已停止
	ErrLoopStopped = errors.New("rx: loop is stopped")
)

// ============================================================================
// 事件循环调度器 - Loop
// ============================================================================

const defaultLoopQueue = 64

// Loop 单goroutine的协作式调度器
//
// 所有任务按提交顺序在调用Run或RunPending的goroutine上执行；计时器只负责
// 把任务投递到队列中。已释放的任务即使之后才被投递也不会执行。
type Loop struct {
	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

// NewLoop 创建事件循环，queueCap为队列初始容量
func NewLoop(queueCap int) *Loop {
	if queueCap <= 0 {
		queueCap = defaultLoopQueue
	}
	return &Loop{
		queue:   make([]func(), 0, queueCap),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Now 返回系统时间
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Run 执行任务直到ctx结束或调用Stop
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	GetLogger().Debugf("rx loop started")
	defer GetLogger().Debugf("rx loop stopped")

	for {
		if _, ok := l.drain(); !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopped:
			return nil
		case <-l.wake:
		}
	}
}

// RunPending 在调用方的goroutine上执行已入队的任务，返回执行的数量
//
// 用于不想单独开goroutine的调用方：订阅、发射事件和执行定时回调都在同一个
// goroutine上完成。不能与Run同时使用。
func (l *Loop) RunPending() (int, error) {
	if !l.running.CompareAndSwap(false, true) {
		return 0, ErrLoopRunning
	}
	defer l.running.Store(false)

	n, ok := l.drain()
	if !ok {
		return n, ErrLoopStopped
	}
	return n, nil
}

// Stop 停止事件循环，未执行的任务被丢弃
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopped)
	})
}

// Call 在事件循环上执行fn并等待其返回
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Schedule(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// Schedule 把任务加入队列
func (l *Loop) Schedule(action func()) Disposable {
	task := NewBaseDisposable(nil)
	l.post(task, action)
	return task
}

// ScheduleWithDelay 延迟后把任务加入队列
func (l *Loop) ScheduleWithDelay(action func(), delay time.Duration) Disposable {
	var timer *time.Timer
	task := NewBaseDisposable(func() {
		timer.Stop()
	})
	timer = time.AfterFunc(delay, func() {
		l.post(task, action)
	})
	return task
}

// ScheduleAtInterval 每个周期把任务加入队列一次
//
// 上一次投递尚未执行时丢弃本次触发，与 time.Ticker 的行为一致。
func (l *Loop) ScheduleAtInterval(action func(), period time.Duration) Disposable {
	if period <= 0 {
		period = time.Nanosecond
	}
	stop := make(chan struct{})
	task := NewBaseDisposable(func() {
		close(stop)
	})

	var queued atomic.Bool
	tick := func() {
		queued.Store(false)
		action()
	}

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-l.stopped:
				return
			case <-ticker.C:
				if queued.CompareAndSwap(false, true) {
					l.post(task, tick)
				}
			}
		}
	}()

	return task
}

// post 入队，任务在执行时再检查是否已释放
func (l *Loop) post(task Disposable, action func()) {
	select {
	case <-l.stopped:
		return
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, func() {
		if !task.IsDisposed() {
			action()
		}
	})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// drain 执行队列中的所有任务，循环已停止时ok为false
func (l *Loop) drain() (n int, ok bool) {
	for {
		select {
		case <-l.stopped:
			return n, false
		default:
		}

		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n, true
		}
		action := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		safeCall("rx.Loop", action)
		n++
	}
}

// ============================================================================
// 虚拟时间调度器 - VirtualScheduler
// ============================================================================

// VirtualScheduler 用于测试的调度器，可以手动控制时间
//
// 任务按 (到期时间, 提交顺序) 执行，执行前时钟被设置为任务的到期时间。
type VirtualScheduler struct {
	mu    sync.Mutex
	start time.Time
	clock time.Duration
	seq   uint64
	queue []*virtualTask
}

// virtualTask 调度的动作
type virtualTask struct {
	due    time.Duration
	seq    uint64
	period time.Duration
	action func()
}

// NewVirtualScheduler 创建时钟从零开始的虚拟调度器
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{
		start: time.Unix(0, 0).UTC(),
	}
}

// Now 返回虚拟时间
func (s *VirtualScheduler) Now() time.Time {
	return s.start.Add(s.Elapsed())
}

// Elapsed 返回时钟从零开始经过的时间
func (s *VirtualScheduler) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Schedule 在当前时刻调度任务
func (s *VirtualScheduler) Schedule(action func()) Disposable {
	return s.scheduleAt(0, 0, action)
}

// ScheduleWithDelay 延迟调度任务
func (s *VirtualScheduler) ScheduleWithDelay(action func(), delay time.Duration) Disposable {
	return s.scheduleAt(delay, 0, action)
}

// ScheduleAtInterval 周期性调度任务
func (s *VirtualScheduler) ScheduleAtInterval(action func(), period time.Duration) Disposable {
	if period <= 0 {
		period = time.Nanosecond
	}
	return s.scheduleAt(period, period, action)
}

// scheduleAt 以相对当前时钟的延迟调度任务
func (s *VirtualScheduler) scheduleAt(delay, period time.Duration, action func()) Disposable {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	task := &virtualTask{
		due:    s.clock + delay,
		period: period,
		action: action,
	}
	s.insert(task)
	s.mu.Unlock()

	return NewBaseDisposable(func() {
		s.remove(task)
	})
}

// insert 插入到正确的位置以保持时间顺序，调用方持有锁
func (s *VirtualScheduler) insert(task *virtualTask) {
	s.seq++
	task.seq = s.seq

	for i, existing := range s.queue {
		if task.due < existing.due {
			s.queue = append(s.queue[:i], append([]*virtualTask{task}, s.queue[i:]...)...)
			return
		}
	}
	s.queue = append(s.queue, task)
}

// remove 移除任务
func (s *VirtualScheduler) remove(task *virtualTask) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.queue {
		if existing == task {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// AdvanceTimeBy 推进时间
func (s *VirtualScheduler) AdvanceTimeBy(d time.Duration) {
	s.AdvanceTimeTo(s.Elapsed() + d)
}

// AdvanceTimeTo 推进时间到指定时刻，执行所有在此之前到期的任务
func (s *VirtualScheduler) AdvanceTimeTo(t time.Duration) {
	for {
		task, ok := s.next(func(task *virtualTask) bool {
			return task.due <= t
		})
		if !ok {
			break
		}
		safeCall("rx.VirtualScheduler", task.action)
	}

	s.mu.Lock()
	if s.clock < t {
		s.clock = t
	}
	s.mu.Unlock()
}

// RunUntilIdle 执行任务直到队列中只剩下周期任务
func (s *VirtualScheduler) RunUntilIdle() {
	for {
		task, ok := s.next(func(task *virtualTask) bool {
			return s.hasOneShotLocked()
		})
		if !ok {
			return
		}
		safeCall("rx.VirtualScheduler", task.action)
	}
}

// Pending 返回尚未执行的任务数量
func (s *VirtualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// next 取出队首任务，推进时钟并重新安排周期任务
func (s *VirtualScheduler) next(ready func(*virtualTask) bool) (*virtualTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 || !ready(s.queue[0]) {
		return nil, false
	}
	task := s.queue[0]
	s.queue = s.queue[1:]
	if task.due > s.clock {
		s.clock = task.due
	}
	if task.period > 0 {
		task.due += task.period
		s.insert(task)
	}
	return task, true
}

func (s *VirtualScheduler) hasOneShotLocked() bool {
	for _, task := range s.queue {
		if task.period == 0 {
			return true
		}
	}
	return false
}

// ============================================================================
// 默认调度器
// ============================================================================

var (
	defaultMu        sync.Mutex
	defaultScheduler Scheduler
	defaultLoop      *Loop
	loopQueue        = defaultLoopQueue
)

// DefaultLoop 返回包级事件循环
//
// 包本身从不运行它。调用方在自己的goroutine上调用Run或RunPending，
// 并在同一个goroutine上订阅和发射事件（或经由Call投递）。
func DefaultLoop() *Loop {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLoop == nil {
		defaultLoop = NewLoop(loopQueue)
	}
	return defaultLoop
}

// DefaultScheduler 返回SetDefaultScheduler设置的调度器，未设置时返回DefaultLoop
func DefaultScheduler() Scheduler {
	defaultMu.Lock()
	s := defaultScheduler
	defaultMu.Unlock()

	if s != nil {
		return s
	}
	return DefaultLoop()
}

// SetDefaultScheduler 替换默认调度器并返回之前设置的调度器，nil恢复为DefaultLoop
func SetDefaultScheduler(s Scheduler) Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	prev := defaultScheduler
	defaultScheduler = s
	return prev
}

// setLoopQueue 设置DefaultLoop的队列初始容量，只在它创建之前生效
func setLoopQueue(n int) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if n > 0 {
		loopQueue = n
	}
}
