package eventlog

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when appending to a log that has already recorded its
// final event.
var ErrClosed = errors.New("event log closed")

// Log stores a session's events and wakes waiters when new events arrive.
type Log struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []Event
	closed bool
	now    func() time.Time
}

// New constructs an empty, open log.
func New() *Log {
	return NewWithClock(nil)
}

// NewWithClock constructs a log that stamps events using now.
func NewWithClock(now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	l := &Log{now: now}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Append assigns the next sequence number to evt and stores it.
func (l *Log) Append(evt Event) (Event, error) {
	return l.append(evt, false)
}

// AppendFinal stores evt and closes the log in the same critical section.
func (l *Log) AppendFinal(evt Event) (Event, error) {
	return l.append(evt, true)
}

func (l *Log) append(evt Event, final bool) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Event{}, ErrClosed
	}
	evt.Sequence = uint64(len(l.events)) + 1
	if evt.Timestamp.IsZero() {
		evt.Timestamp = l.now().UTC()
	}
	l.events = append(l.events, evt)
	if final {
		l.closed = true
	}
	l.cond.Broadcast()
	return evt, nil
}

// Close marks the log closed without appending. Closing twice is a no-op.
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.cond.Broadcast()
}

// Closed reports whether the log has stopped accepting events.
func (l *Log) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Len returns the number of stored events, which equals the last sequence.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Snapshot returns a copy of every stored event.
func (l *Log) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Fetch returns events with sequence greater than since, at most limit of
// them (limit <= 0 means all). When wait is true and nothing is available,
// Fetch blocks until an event is appended, the log closes, or ctx ends.
//
// The returned cursor is the sequence of the last event returned (or since
// when none were). done is true once the log is closed and the caller has
// received every event.
func (l *Log) Fetch(ctx context.Context, since uint64, limit int, wait bool) (events []Event, next uint64, done bool, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cancelWait := make(chan struct{})
	if wait && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				l.mu.Lock()
				l.cond.Broadcast()
				l.mu.Unlock()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		events, next = l.sliceLocked(since, limit)
		done = l.closed && next >= uint64(len(l.events))
		if len(events) > 0 || done || !wait {
			return events, next, done, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, since, false, err
		}
		l.cond.Wait()
	}
}

func (l *Log) sliceLocked(since uint64, limit int) ([]Event, uint64) {
	total := uint64(len(l.events))
	if since >= total {
		return nil, since
	}
	end := total
	if limit > 0 && since+uint64(limit) < end {
		end = since + uint64(limit)
	}
	out := make([]Event, end-since)
	copy(out, l.events[since:end])
	return out, end
}
