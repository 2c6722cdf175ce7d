package orchestrator

import (
	"context"
	"errors"
	"io"

	"interviewprep/internal/interview"
	"interviewprep/internal/interview/engagement"
)

// Snapshot is a copy of the orchestrator state for rendering.
type Snapshot struct {
	State           State              `json:"state"`
	Topic           string             `json:"topic,omitempty"`
	HasResume       bool               `json:"hasResume"`
	TurnLimit       int                `json:"turnLimit"`
	Answered        int                `json:"answered"`
	CurrentQuestion string             `json:"currentQuestion,omitempty"`
	Transcript      []interview.Turn   `json:"transcript"`
	Engagement      engagement.Summary `json:"engagement"`
	Report          string             `json:"report,omitempty"`
	ReportGenerated bool               `json:"reportGenerated"`
	QuestionPending bool               `json:"questionPending"`
	ReportPending   bool               `json:"reportPending"`
	LastError       string             `json:"lastError,omitempty"`
	MediaError      string             `json:"mediaError,omitempty"`
}

// ReportEligible reports whether GenerateReport would be accepted now.
func (s Snapshot) ReportEligible() bool {
	return s.State != StateIdle && !s.ReportPending && s.Answered >= s.TurnLimit
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{
		State:           o.state,
		Topic:           o.cfg.Topic,
		HasResume:       o.cfg.ResumeText != "",
		TurnLimit:       o.cfg.TurnLimit,
		Answered:        o.answeredLocked(),
		Transcript:      append([]interview.Turn(nil), o.transcript...),
		Engagement:      engagement.Summarize(o.samples),
		Report:          o.report,
		ReportGenerated: o.reportGenerated,
		QuestionPending: o.questionPending,
		ReportPending:   o.reportPending,
	}
	if t, ok := o.currentLocked(); ok {
		s.CurrentQuestion = t.Question
	}
	if o.lastErr != nil {
		s.LastError = o.lastErr.Error()
	}
	if o.mediaErr != nil {
		s.MediaError = o.mediaErr.Error()
	}
	return s
}

// Samples returns a copy of the engagement log.
func (o *Orchestrator) Samples() []interview.EngagementSample {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]interview.EngagementSample(nil), o.samples...)
}

// PerceptionSource supplies frames on its own cadence. Next blocks until a
// frame is available; io.EOF ends the stream.
type PerceptionSource interface {
	Next(ctx context.Context) (interview.PerceptionFrame, error)
}

// Watch feeds frames from src into RecordPerception until ctx is done, the
// interview exits, or src ends. onFeedback receives every feedback change.
func (o *Orchestrator) Watch(ctx context.Context, src PerceptionSource, onFeedback func(string)) error {
	done := o.Done()
	if done == nil {
		return ErrNotStarted
	}
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-done:
			cancel()
		case <-watchCtx.Done():
		}
	}()

	last := ""
	for {
		frame, err := src.Next(watchCtx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case errors.Is(err, interview.ErrMediaAccess):
				if derr := o.DisablePerception(err); derr != nil {
					return derr
				}
				if onFeedback != nil && last != "" {
					onFeedback("")
				}
				return nil
			case watchCtx.Err() != nil:
				select {
				case <-done:
					return nil
				default:
				}
				return ctx.Err()
			default:
				return err
			}
		}
		fb, _ := o.RecordPerception(frame)
		if onFeedback != nil && fb != last {
			onFeedback(fb)
		}
		last = fb
	}
}
