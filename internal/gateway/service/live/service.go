// Package live hosts running interviews: one orchestrator per live id, an
// event feed for subscribers, and an idle reaper.
package live

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"interviewprep/internal/interview"
	"interviewprep/internal/interview/orchestrator"
	"interviewprep/internal/observability"
)

var ErrNotFound = fmt.Errorf("live interview %w", interview.ErrNotFound)

func New(gen orchestrator.Generator, resumes ResumeTexts, cfg Config, opts ...orchestrator.Option) *Service {
	if cfg.TurnLimit <= 0 {
		cfg.TurnLimit = interview.DefaultTurnLimit
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Service{
		gen:     gen,
		resumes: resumes,
		cfg:     cfg,
		opts:    opts,
		now:     time.Now,
		newID:   uuid.NewString,
		live:    make(map[string]*liveState),
	}
}

// Start registers a new live interview and requests its first question.
// When that request fails the interview stays registered and the returned
// text is the failure message; Next retries.
func (s *Service) Start(ctx context.Context, in StartInput) (id, question string, err error) {
	id, err = s.Open(ctx, in)
	if err != nil {
		return "", "", err
	}
	question, err = s.Begin(ctx, id)
	return id, question, err
}

// Open validates in and registers an interview without contacting the
// generator. Begin asks for the first question.
func (s *Service) Open(ctx context.Context, in StartInput) (string, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return "", interview.Validationf("topic is required")
	}
	resumeText := strings.TrimSpace(in.ResumeText)
	if resumeText == "" && strings.TrimSpace(in.ResumeID) != "" && s.resumes != nil {
		text, err := s.resumes.Text(ctx, in.ResumeID)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("resume unavailable, starting without it",
				"resume_id", in.ResumeID, "error", err)
		} else {
			resumeText = text
		}
	}
	limit := in.TurnLimit
	if limit <= 0 {
		limit = s.cfg.TurnLimit
	}

	id := s.newID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[id] = &liveState{
		orch: orchestrator.New(s.gen, s.opts...),
		cfg: orchestrator.Config{
			Topic:      topic,
			ResumeText: resumeText,
			TurnLimit:  limit,
		},
		changed:   make(chan struct{}),
		touchedAt: s.now(),
	}
	return id, nil
}

// Begin starts an opened interview and requests its first question.
func (s *Service) Begin(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	st, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	question, err := st.orch.Start(ctx, st.cfg)
	if errors.Is(err, interview.ErrValidation) {
		s.remove(id)
		return "", err
	}
	if errors.Is(err, orchestrator.ErrAlreadyStarted) {
		return "", err
	}
	if !s.registered(id) {
		// Exited while the first question was in flight.
		st.orch.Exit()
		return "", orchestrator.ErrCancelled
	}
	s.publishQuestion(id, question, err)
	return question, err
}

// Answer submits the answer to the current question. next is empty when
// the turn limit was reached and the interview is report eligible.
func (s *Service) Answer(ctx context.Context, id, answer string) (next string, err error) {
	id = strings.TrimSpace(id)
	st, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	next, err = st.orch.SubmitAnswer(ctx, answer)
	switch {
	case err == nil && next == "":
		s.notify(id)
	case err == nil || interview.IsGenerationFailure(err):
		s.publishQuestion(id, next, err)
	}
	return next, err
}

// Next returns the current question or requests a new one.
func (s *Service) Next(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	st, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	q, err := st.orch.RequestNextQuestion(ctx)
	if err == nil || interview.IsGenerationFailure(err) {
		s.publishQuestion(id, q, err)
	}
	return q, err
}

// Perceive records a perception frame. A feedback event is published only
// when the feedback text changes.
func (s *Service) Perceive(id string, frame interview.PerceptionFrame) (feedback string, logged bool, err error) {
	id = strings.TrimSpace(id)
	st, err := s.lookup(id)
	if err != nil {
		return "", false, err
	}
	feedback, logged = st.orch.RecordPerception(frame)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.live[id]; ok && cur.lastFeedback != feedback {
		cur.lastFeedback = feedback
		cur.appendLocked(Event{Kind: EventFeedback, Text: feedback})
		notifyLocked(cur)
	}
	return feedback, logged, nil
}

// MediaFailure records that the client lost its camera. Perception is off
// for the rest of the interview; subscribers get a state update.
func (s *Service) MediaFailure(id, detail string) error {
	id = strings.TrimSpace(id)
	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = "camera unavailable"
	}
	if err := st.orch.DisablePerception(fmt.Errorf("%w: %s", interview.ErrMediaAccess, detail)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.live[id]; ok {
		if cur.lastFeedback != "" {
			cur.lastFeedback = ""
			cur.appendLocked(Event{Kind: EventFeedback})
		}
		notifyLocked(cur)
	}
	return nil
}

// Watch feeds frames from src into the interview until it exits or src ends.
func (s *Service) Watch(ctx context.Context, id string, src orchestrator.PerceptionSource) error {
	id = strings.TrimSpace(id)
	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	return st.orch.Watch(ctx, src, func(fb string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if cur, ok := s.live[id]; ok {
			cur.touchedAt = s.now()
			cur.lastFeedback = fb
			cur.appendLocked(Event{Kind: EventFeedback, Text: fb})
			notifyLocked(cur)
		}
	})
}

func (s *Service) Report(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	st, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	report, err := st.orch.GenerateReport(ctx)
	if err == nil || interview.IsGenerationFailure(err) {
		ev := Event{Kind: EventReport, Text: report}
		if err != nil {
			ev.Error = err.Error()
		}
		s.publish(id, ev)
	}
	return report, err
}

func (s *Service) Snapshot(id string) (orchestrator.Snapshot, error) {
	st, err := s.lookup(id)
	if err != nil {
		return orchestrator.Snapshot{}, err
	}
	return st.orch.Snapshot(), nil
}

// Exit ends the live interview, discarding any outstanding results, and
// closes its subscriptions.
func (s *Service) Exit(id string) error {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	st, ok := s.live[id]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	st.orch.Exit()
	s.remove(id)
	return nil
}

// Len reports how many live interviews are registered.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// ReapIdle exits every interview untouched for longer than the idle TTL and
// returns how many were removed.
func (s *Service) ReapIdle() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)
	s.mu.Lock()
	var stale []string
	for id, st := range s.live {
		if st.touchedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range stale {
		if s.Exit(id) == nil {
			n++
		}
	}
	return n
}

// RunReaper calls ReapIdle on every tick until ctx is done.
func (s *Service) RunReaper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.ReapIdle(); n > 0 {
				observability.Logger().Info("reaped idle live interviews", "count", n)
			}
		}
	}
}

// Close exits every live interview.
func (s *Service) Close() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.live))
	for id := range s.live {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		_ = s.Exit(id)
	}
}

func (s *Service) lookup(id string) (*liveState, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, interview.Validationf("live id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.live[id]
	if !ok {
		return nil, ErrNotFound
	}
	st.touchedAt = s.now()
	return st, nil
}

func (s *Service) registered(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[id]
	return ok
}

func (s *Service) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.live[id]
	if !ok {
		return
	}
	st.ended = true
	notifyLocked(st)
	delete(s.live, id)
}

func (s *Service) publishQuestion(id, text string, err error) {
	ev := Event{Kind: EventQuestion, Text: text}
	if err != nil {
		if errors.Is(err, orchestrator.ErrCancelled) {
			return
		}
		ev.Error = err.Error()
	}
	s.publish(id, ev)
}

func (s *Service) notify(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.live[id]; ok {
		notifyLocked(st)
	}
}

func (s *Service) publish(id string, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.live[id]
	if !ok {
		return
	}
	st.appendLocked(ev)
	notifyLocked(st)
}
