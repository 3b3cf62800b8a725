package agent

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
)

// Observer receives telemetry about runs. Implementations must never block
// the loop.
type Observer interface {
	NewObservable() *types.Observable
	Update(types.Observable)
	History() []types.Observable
}

type noopObserver struct{}

func (noopObserver) NewObservable() *types.Observable { return &types.Observable{} }
func (noopObserver) Update(types.Observable)          {}
func (noopObserver) History() []types.Observable      { return nil }

const (
	historySize = 100
	bufferSize  = 64
)

// BufferedObserver queues updates on a bounded channel and drains them in
// its own goroutine into a history ring and an optional sink. When the
// queue is full updates are dropped.
type BufferedObserver struct {
	agent string
	maxID int32
	sink  func(types.Observable)

	queue   chan types.Observable
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mutex       sync.Mutex
	history     []types.Observable
	historyLast int
	dropped     int64
}

// NewBufferedObserver starts the drain goroutine. Call Close to stop it.
func NewBufferedObserver(agent string, sink func(types.Observable)) *BufferedObserver {
	b := &BufferedObserver{
		agent:   agent,
		maxID:   1,
		sink:    sink,
		queue:   make(chan types.Observable, bufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		history: make([]types.Observable, historySize),
	}
	go b.drain()
	return b
}

// LogSink writes every observable as a debug log line.
func LogSink(obs types.Observable) {
	data, err := json.Marshal(obs)
	if err != nil {
		xlog.Error("Error marshaling observable", "error", err)
		return
	}
	xlog.Debug("Observable update", "name", obs.Name, "run", obs.RunID, "data", string(data))
}

func (b *BufferedObserver) NewObservable() *types.Observable {
	id := atomic.AddInt32(&b.maxID, 1)
	return &types.Observable{
		ID:    id - 1,
		Agent: b.agent,
	}
}

func (b *BufferedObserver) Update(obs types.Observable) {
	select {
	case <-b.done:
		return
	default:
	}

	select {
	case b.queue <- obs:
	default:
		atomic.AddInt64(&b.dropped, 1)
	}
}

func (b *BufferedObserver) drain() {
	defer close(b.stopped)
	for {
		select {
		case obs := <-b.queue:
			b.record(obs)
		case <-b.done:
			for {
				select {
				case obs := <-b.queue:
					b.record(obs)
				default:
					return
				}
			}
		}
	}
}

func (b *BufferedObserver) record(obs types.Observable) {
	if b.sink != nil {
		b.sink(obs)
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	for i, o := range b.history {
		if o.ID == obs.ID {
			b.history[i] = obs
			return
		}
	}

	b.history[b.historyLast] = obs
	b.historyLast += 1
	if b.historyLast >= len(b.history) {
		b.historyLast = 0
	}
}

func (b *BufferedObserver) History() []types.Observable {
	h := make([]types.Observable, 0, 20)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, obs := range b.history {
		if obs.ID == 0 {
			continue
		}
		h = append(h, obs)
	}

	return h
}

// Dropped is the number of updates discarded because the queue was full.
func (b *BufferedObserver) Dropped() int64 {
	return atomic.LoadInt64(&b.dropped)
}

// Close stops the drain goroutine once pending updates are recorded.
func (b *BufferedObserver) Close() {
	b.once.Do(func() { close(b.done) })
	<-b.stopped
}
