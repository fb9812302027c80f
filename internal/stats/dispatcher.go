package stats

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// Dispatcher 在后台协程中异步写入统计事件，队列满时丢弃新事件
type Dispatcher struct {
	recorder Recorder
	queue    chan Event
	timeout  time.Duration
	logger   *logr.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewDispatcher 创建新的异步分发器
// size: 队列长度
// timeout: 单次写入超时
func NewDispatcher(recorder Recorder, size int, timeout time.Duration, logger *logr.Logger) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		discard := logr.Discard()
		logger = &discard
	}
	return &Dispatcher{
		recorder: recorder,
		queue:    make(chan Event, size),
		timeout:  timeout,
		logger:   logger,
	}
}

// Start 启动写入协程，重复调用无效果
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})

	d.wg.Add(1)
	go d.loop(d.stopCh)
}

// Stop 停止写入协程，队列中剩余的事件会在退出前写完
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
}

// Submit 将事件放入队列，队列已满时返回 false
func (d *Dispatcher) Submit(ev Event) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Dropped 返回因队列已满而丢弃的事件数
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Failed 返回写入失败的事件数
func (d *Dispatcher) Failed() uint64 {
	return d.failed.Load()
}

// Recorder 返回底层记录器
func (d *Dispatcher) Recorder() Recorder {
	return d.recorder
}

func (d *Dispatcher) loop(stopCh <-chan struct{}) {
	defer d.wg.Done()

	for {
		select {
		case ev := <-d.queue:
			d.write(ev)
		case <-stopCh:
			d.drain()
			return
		}
	}
}

// drain 写完队列中已有的事件
func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.write(ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.recorder.Record(ctx, ev); err != nil {
		d.failed.Add(1)
		d.logger.V(1).Info("Failed to record rate limit stats", "client", ev.ClientID, "error", err.Error())
	}
}
