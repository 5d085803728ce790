package broadcast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"quill/internal/eventlog"
	"quill/internal/logging"
	"quill/internal/services"
)

// ErrAlreadySubscribed rejects a second concurrent subscriber.
var ErrAlreadySubscribed = errors.New("session already has a subscriber")

const defaultBatch = 64

// Broadcaster tracks the active subscription of every session.
type Broadcaster struct {
	mu     sync.Mutex
	active map[string]*Subscription
	batch  int
	logger *slog.Logger
}

// New constructs a Broadcaster.
func New(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Broadcaster{
		active: make(map[string]*Subscription),
		batch:  defaultBatch,
		logger: logger.With(logging.String(logging.FieldComponent, "broadcast")),
	}
}

// Subscribe attaches the single subscriber for sessionID. The subscription
// replays from sequence 1.
func (b *Broadcaster) Subscribe(sessionID string, log *eventlog.Log) (*Subscription, error) {
	if log == nil {
		return nil, services.Wrap(services.ErrNotFound, "broadcast", "subscribe", "session has no event log", nil)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.active[sessionID]; busy {
		return nil, services.Wrap(services.ErrInvalidState, "broadcast", "subscribe", "stream already attached", ErrAlreadySubscribed)
	}
	sub := &Subscription{owner: b, sessionID: sessionID, log: log}
	b.active[sessionID] = sub
	b.logger.Debug("subscriber attached", logging.SessionID(sessionID))
	return sub, nil
}

// Publish appends evt to log, waking the session's subscriber. Sessions call
// it from their state machine with their own lock held.
func (b *Broadcaster) Publish(log *eventlog.Log, evt eventlog.Event) (eventlog.Event, error) {
	return log.Append(evt)
}

// PublishFinal appends the terminal event and closes the stream; the
// subscriber drains the backlog and then sees io.EOF.
func (b *Broadcaster) PublishFinal(log *eventlog.Log, evt eventlog.Event) (eventlog.Event, error) {
	published, err := log.AppendFinal(evt)
	if err != nil {
		return published, err
	}
	b.logger.Debug("stream closed",
		logging.String("kind", string(published.Kind)),
		logging.Uint64("seq", published.Sequence),
	)
	return published, nil
}

// Active reports whether sessionID currently has a subscriber.
func (b *Broadcaster) Active(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.active[sessionID]
	return ok
}

// Forget drops any subscription bookkeeping for an evicted session.
func (b *Broadcaster) Forget(sessionID string) {
	b.mu.Lock()
	delete(b.active, sessionID)
	b.mu.Unlock()
}

func (b *Broadcaster) release(sub *Subscription) {
	b.mu.Lock()
	if b.active[sub.sessionID] == sub {
		delete(b.active, sub.sessionID)
	}
	b.mu.Unlock()
}

// Subscription is a cursor over one session's log.
type Subscription struct {
	owner     *Broadcaster
	sessionID string
	log       *eventlog.Log

	mu     sync.Mutex
	next   uint64
	eof    bool
	closed bool
}

// SessionID returns the session the subscription reads.
func (s *Subscription) SessionID() string { return s.sessionID }

// Next blocks until at least one event is available and returns the batch in
// sequence order. It returns io.EOF after the terminal event has been
// delivered, and ctx's error if ctx ends first.
func (s *Subscription) Next(ctx context.Context) ([]eventlog.Event, error) {
	for {
		s.mu.Lock()
		closed, eof, since := s.closed, s.eof, s.next
		s.mu.Unlock()
		if closed {
			return nil, io.ErrClosedPipe
		}
		if eof {
			return nil, io.EOF
		}

		events, next, done, err := s.log.Fetch(ctx, since, s.owner.batch, true)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.next = next
		if len(events) == 0 && done {
			s.eof = true
		}
		s.mu.Unlock()
		if len(events) > 0 {
			return events, nil
		}
	}
}

// Close detaches the subscriber. It reports true when the log was still open,
// meaning the client left before the session finished.
func (s *Subscription) Close() (live bool) {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	eof := s.eof
	s.mu.Unlock()
	if already {
		return false
	}
	s.owner.release(s)
	live = !eof && !s.log.Closed()
	if live {
		s.owner.logger.Debug("subscriber left a live session", logging.SessionID(s.sessionID))
	}
	return live
}
