package live

import (
	"context"
	"sync"
	"time"

	"interviewprep/internal/interview/orchestrator"
)

const eventLogSize = 64

// ResumeTexts resolves an uploaded resume id to its extracted text.
type ResumeTexts interface {
	Text(ctx context.Context, id string) (string, error)
}

type EventKind string

const (
	EventQuestion EventKind = "question"
	EventFeedback EventKind = "feedback"
	EventReport   EventKind = "report"
	EventState    EventKind = "state"
)

// Event is one update published to subscribers of a live interview.
type Event struct {
	Kind     EventKind              `json:"kind"`
	Seq      uint64                 `json:"seq,omitempty"`
	Text     string                 `json:"text,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Snapshot *orchestrator.Snapshot `json:"snapshot,omitempty"`
}

type StartInput struct {
	Topic      string
	ResumeText string
	ResumeID   string
	TurnLimit  int
}

type Config struct {
	TurnLimit int
	IdleTTL   time.Duration
}

type Service struct {
	gen     orchestrator.Generator
	resumes ResumeTexts
	cfg     Config
	opts    []orchestrator.Option
	now     func() time.Time
	newID   func() string

	mu   sync.Mutex
	live map[string]*liveState
}

type liveState struct {
	orch         *orchestrator.Orchestrator
	cfg          orchestrator.Config
	events       []Event
	seq          uint64
	lastFeedback string
	ended        bool
	changed      chan struct{}
	touchedAt    time.Time
}

func notifyLocked(st *liveState) {
	close(st.changed)
	st.changed = make(chan struct{})
}

func (st *liveState) appendLocked(ev Event) {
	st.seq++
	ev.Seq = st.seq
	st.events = append(st.events, ev)
	if over := len(st.events) - eventLogSize; over > 0 {
		st.events = append([]Event(nil), st.events[over:]...)
	}
}

func (st *liveState) eventsAfterLocked(cursor uint64) []Event {
	out := make([]Event, 0, len(st.events))
	for _, ev := range st.events {
		if ev.Seq > cursor {
			out = append(out, ev)
		}
	}
	return out
}
