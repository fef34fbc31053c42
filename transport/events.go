package transport

import (
	"sync"

	"go.uber.org/zap"

	"github.com/luma/lockdown/internal/metrics"
)

// Observer receives the server's human readable log lines and session state
// changes. Callbacks are made from a single goroutine in the order the events
// happened, never from a connection handler.
type Observer interface {
	OnLog(text string)
	OnSessionActiveChanged(active bool)
}

// ObserverFuncs adapts a pair of functions to the Observer interface. Either
// may be nil.
type ObserverFuncs struct {
	Log                  func(text string)
	SessionActiveChanged func(active bool)
}

func (o ObserverFuncs) OnLog(text string) {
	if o.Log != nil {
		o.Log(text)
	}
}

func (o ObserverFuncs) OnSessionActiveChanged(active bool) {
	if o.SessionActiveChanged != nil {
		o.SessionActiveChanged(active)
	}
}

var _ Observer = ObserverFuncs{}

type eventKind int

const (
	eventLog eventKind = iota
	eventSession
)

type event struct {
	kind   eventKind
	text   string
	active bool
}

// eventQueue hands events from connection handlers to the observer. emit
// never blocks, when the queue is full the event is dropped.
type eventQueue struct {
	mu     sync.RWMutex
	closed bool
	queue  chan event
	done   chan struct{}

	observer Observer
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func newEventQueue(size int, observer Observer, m *metrics.Metrics, log *zap.Logger) *eventQueue {
	q := &eventQueue{
		queue:    make(chan event, size),
		done:     make(chan struct{}),
		observer: observer,
		metrics:  m,
		log:      log,
	}

	go q.run()

	return q
}

func (q *eventQueue) run() {
	defer close(q.done)

	for ev := range q.queue {
		if q.observer == nil {
			continue
		}

		switch ev.kind {
		case eventLog:
			q.observer.OnLog(ev.text)

		case eventSession:
			q.observer.OnSessionActiveChanged(ev.active)
		}
	}
}

func (q *eventQueue) emit(ev event) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return
	}

	select {
	case q.queue <- ev:
	default:
		q.metrics.EventDropped()
		q.log.Warn("Observer is too slow, dropping event",
			zap.String("text", ev.text),
			zap.Bool("active", ev.active))
	}
}

func (q *eventQueue) logf(text string) {
	q.emit(event{kind: eventLog, text: text})
}

func (q *eventQueue) sessionChanged(active bool) {
	q.emit(event{kind: eventSession, active: active})
}

// close stops accepting events and waits for the queued ones to be
// delivered.
func (q *eventQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
	q.mu.Unlock()

	<-q.done
}
