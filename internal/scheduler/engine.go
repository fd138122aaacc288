// Package scheduler fires timed events in trigger order. Reminders use it to
// send an email at the exact reminder instant instead of waiting for the
// next poll.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrMissingKey         = errors.New("scheduler: event key is required")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

// Event is keyed; scheduling a key that is already queued replaces it.
type Event struct {
	Key       string
	TodoID    string
	Kind      string
	TriggerAt time.Time
}

type queueItem struct {
	event Event
	index int
}

type eventQueue []*queueItem

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	return q[i].event.TriggerAt.Before(q[j].event.TriggerAt)
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

type Engine struct {
	mu      sync.Mutex
	queue   eventQueue
	byKey   map[string]*queueItem
	now     func() time.Time
	out     chan Event
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	return NewEngineWithClock(bufferSize, time.Now)
}

func NewEngineWithClock(bufferSize int, now func() time.Time) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{
		queue:  make(eventQueue, 0),
		byKey:  make(map[string]*queueItem),
		now:    now,
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// C delivers due events. It is closed after Stop.
func (e *Engine) C() <-chan Event {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(ev Event) error {
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}
	if ev.Key == "" {
		return ErrMissingKey
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	if item, ok := e.byKey[ev.Key]; ok {
		item.event = ev
		heap.Fix(&e.queue, item.index)
	} else {
		item := &queueItem{event: ev}
		heap.Push(&e.queue, item)
		e.byKey[ev.Key] = item
	}
	e.signalWakeup()
	return nil
}

// Cancel removes a queued event. It reports whether the key was queued.
func (e *Engine) Cancel(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	item, ok := e.byKey[key]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, item.index)
	delete(e.byKey, key)
	e.signalWakeup()
	return true
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Dropped counts events discarded because the consumer was not keeping up.
func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.TriggerAt.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, ev := range e.popDue(e.now()) {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Event{}, false
	}
	return e.queue[0].event, true
}

func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Event
	for len(e.queue) > 0 {
		if e.queue[0].event.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(*queueItem)
		delete(e.byKey, item.event.Key)
		out = append(out, item.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
