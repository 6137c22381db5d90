package session

import (
	"context"
	"sync"
	"time"

	"github.com/YuToutCourt/ZhonyaS/internal/constants"
)

type Status string

const (
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

type EventType string

const (
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event is one progress notification published to a session's subscribers.
type Event struct {
	Type     EventType `json:"type"`
	Progress int       `json:"progress"`
	Error    string    `json:"error,omitempty"`
	Note     string    `json:"note,omitempty"`
}

func (e Event) Terminal() bool {
	return e.Type == EventCompleted || e.Type == EventError
}

// State is a point-in-time snapshot for polling clients.
type State struct {
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// Session tracks one in-flight or recently finished ingestion job. It is a
// single-writer (the job goroutine) multi-reader broadcast primitive with a
// cached last event, so subscribers attaching after a terminal event still
// receive it exactly once.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	status   Status
	progress int
	errMsg   string
	closed   bool
	terminal *Event
	subs     map[int]chan Event
	nextSub  int
	cancel   context.CancelFunc
}

func newSession(id string, cancel context.CancelFunc) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		status:    StatusStarting,
		subs:      make(map[int]chan Event),
		cancel:    cancel,
	}
}

// Publish fans an event out to all subscribers without blocking the writer:
// a subscriber whose buffer is full misses that event (it will catch up from
// a later one, progress is cumulative). Terminal events close every
// subscriber channel and flip the closed flag; later publishes are dropped.
func (s *Session) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	switch ev.Type {
	case EventProgress:
		if s.status == StatusStarting {
			s.status = StatusRunning
		}
		if ev.Progress > s.progress {
			s.progress = ev.Progress
		}
	case EventCompleted:
		s.status = StatusCompleted
		s.progress = 100
		ev.Progress = 100
	case EventError:
		s.status = StatusError
		s.errMsg = ev.Error
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}

	if ev.Terminal() {
		s.terminal = &ev
		s.closed = true
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
	}
}

// Subscribe returns a channel of events and a release function the consumer
// must call when done. If the session already reached a terminal state the
// channel replays that single event and is closed immediately.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		ch := make(chan Event, 1)
		if s.terminal != nil {
			ch <- *s.terminal
		}
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, constants.SubscriberBuffer)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Status: s.status, Progress: s.progress, Error: s.errMsg}
}

// Cancel asks the owning job to stop. The job observes the cancellation at
// its next per-match boundary and publishes the terminal event itself.
func (s *Session) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// expire tears the session down when the registry evicts it. An in-flight
// job also gets cancelled so it stops publishing into the void.
func (s *Session) expire() {
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}
