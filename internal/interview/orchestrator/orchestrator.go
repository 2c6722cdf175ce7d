// Package orchestrator drives a multi-turn live interview: it selects the
// context for each generated question, accumulates the transcript and
// engagement log, and gates report generation on the turn limit.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"interviewprep/internal/interview"
	"interviewprep/internal/interview/engagement"
	"interviewprep/internal/interview/prompt"
	"interviewprep/internal/interview/sanitize"
	"interviewprep/internal/llm"
)

type State string

const (
	StateIdle                  State = "idle"
	StateAwaitingFirstQuestion State = "awaiting_first_question"
	StateAwaitingAnswer        State = "awaiting_answer"
	StateReportEligible        State = "report_eligible"
	StateGeneratingReport      State = "generating_report"
	StateReportReady           State = "report_ready"
)

var (
	ErrNotStarted        = errors.New("interview not started")
	ErrAlreadyStarted    = errors.New("interview already started")
	ErrRequestInFlight   = errors.New("request already in flight")
	ErrNoCurrentQuestion = errors.New("no question is awaiting an answer")
	ErrTurnLimitReached  = errors.New("turn limit reached")
	ErrReportNotEligible = errors.New("report requires all turns to be answered")
	// ErrCancelled is returned when the interview was exited while a call
	// was outstanding; the call's result has been discarded.
	ErrCancelled = errors.New("interview exited")
)

// Generator is the single generative call the orchestrator depends on.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Config describes one live interview.
type Config struct {
	Topic      string
	ResumeText string
	TurnLimit  int
}

type Option func(*Orchestrator)

// WithRand overrides the uniform source used for context selection.
func WithRand(intn func(n int) int) Option {
	return func(o *Orchestrator) {
		if intn != nil {
			o.intn = intn
		}
	}
}

// WithClock overrides the clock used to timestamp engagement samples.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

type Orchestrator struct {
	gen  Generator
	intn func(int) int
	now  func() time.Time

	mu              sync.Mutex
	state           State
	cfg             Config
	transcript      []interview.Turn
	samples         []interview.EngagementSample
	report          string
	reportGenerated bool
	questionPending bool
	reportPending   bool
	lastErr         error
	mediaErr        error // set once the camera fails; perception is then ignored

	// epoch increments on every Exit; results from an older epoch are dropped.
	epoch  uint64
	life   context.Context
	cancel context.CancelFunc
}

func New(gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:   gen,
		intn:  rand.IntN,
		now:   time.Now,
		state: StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start enters live-interview mode and requests the first question. On a
// generation failure the failure text is returned together with the error;
// the interview stays started and RequestNextQuestion retries.
func (o *Orchestrator) Start(ctx context.Context, cfg Config) (string, error) {
	cfg.Topic = strings.TrimSpace(cfg.Topic)
	cfg.ResumeText = strings.TrimSpace(cfg.ResumeText)
	if cfg.Topic == "" {
		return "", interview.Validationf("topic is required")
	}
	if cfg.TurnLimit <= 0 {
		cfg.TurnLimit = interview.DefaultTurnLimit
	}

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return "", ErrAlreadyStarted
	}
	o.resetLocked()
	o.cfg = cfg
	o.life, o.cancel = context.WithCancel(context.Background())
	o.state = StateAwaitingFirstQuestion
	return o.fetchQuestionLocked(ctx)
}

// RequestNextQuestion returns the unanswered question if there is one,
// otherwise asks the generator for a new one.
func (o *Orchestrator) RequestNextQuestion(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.state == StateIdle {
		o.mu.Unlock()
		return "", ErrNotStarted
	}
	if o.questionPending {
		o.mu.Unlock()
		return "", ErrRequestInFlight
	}
	if turn, ok := o.currentLocked(); ok {
		o.mu.Unlock()
		return turn.Question, nil
	}
	if o.answeredLocked() >= o.cfg.TurnLimit {
		o.mu.Unlock()
		return "", ErrTurnLimitReached
	}
	return o.fetchQuestionLocked(ctx)
}

// SubmitAnswer records the answer to the current question and immediately
// requests the next one, unless the turn limit has been reached, in which
// case the interview becomes report eligible and next is empty. A submit
// while a question request is outstanding is rejected without side effects.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, answer string) (next string, err error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", interview.Validationf("answer is required")
	}

	o.mu.Lock()
	if o.state == StateIdle {
		o.mu.Unlock()
		return "", ErrNotStarted
	}
	if o.questionPending {
		o.mu.Unlock()
		return "", ErrRequestInFlight
	}
	idx := len(o.transcript) - 1
	if idx < 0 || o.transcript[idx].Answered {
		o.mu.Unlock()
		return "", ErrNoCurrentQuestion
	}
	o.transcript[idx].Answer = answer
	o.transcript[idx].Answered = true

	if o.answeredLocked() >= o.cfg.TurnLimit {
		o.state = StateReportEligible
		o.mu.Unlock()
		return "", nil
	}
	return o.fetchQuestionLocked(ctx)
}

// fetchQuestionLocked must be called with o.mu held and returns with it
// released. The lock is not held during the generative call.
func (o *Orchestrator) fetchQuestionLocked(ctx context.Context) (string, error) {
	answers := o.answersLocked()
	kind := PickContext(o.intn, o.cfg.ResumeText, o.cfg.Topic, answers)
	p := prompt.Question(kind, o.cfg.Topic, o.cfg.ResumeText, answers)
	first := len(o.transcript) == 0
	epoch, life := o.epoch, o.life
	o.questionPending = true
	o.mu.Unlock()

	q, err := o.generate(ctx, life, llm.PhaseQuestion, p, sanitize.Question)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.epoch != epoch {
		return "", ErrCancelled
	}
	o.questionPending = false
	if err != nil {
		o.lastErr = err
		if first {
			return interview.QuestionFailureText, err
		}
		return interview.NextQuestionFailureText, err
	}
	o.lastErr = nil
	o.transcript = append(o.transcript, interview.Turn{
		Question:          q,
		Context:           kind,
		ResumeContextUsed: kind == interview.ContextResume,
	})
	o.state = StateAwaitingAnswer
	return q, nil
}

// RecordPerception returns the live feedback for frame and, when exactly one
// face is visible while a question is current, appends an engagement sample.
func (o *Orchestrator) RecordPerception(frame interview.PerceptionFrame) (feedback string, logged bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mediaErr != nil {
		return "", false
	}
	feedback = frame.Feedback()
	if !frame.Usable() {
		return feedback, false
	}
	if o.state != StateAwaitingAnswer || len(o.transcript) == 0 {
		return feedback, false
	}
	question := o.transcript[len(o.transcript)-1].Question
	o.samples = append(o.samples, frame.Sample(question, o.now()))
	return feedback, true
}

// DisablePerception turns off feedback and engagement logging after a
// camera or microphone failure. The interview itself carries on and the
// report is built from the samples gathered so far.
func (o *Orchestrator) DisablePerception(cause error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateIdle {
		return ErrNotStarted
	}
	if o.mediaErr != nil {
		return nil
	}
	switch {
	case cause == nil:
		cause = interview.ErrMediaAccess
	case !errors.Is(cause, interview.ErrMediaAccess):
		cause = fmt.Errorf("%w: %w", interview.ErrMediaAccess, cause)
	}
	o.mediaErr = cause
	return nil
}

// GenerateReport synthesises the performance report once TurnLimit answers
// exist. A failed attempt returns the failure text with the error and
// leaves the interview report eligible so it can be retried.
func (o *Orchestrator) GenerateReport(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.state == StateIdle {
		o.mu.Unlock()
		return "", ErrNotStarted
	}
	if o.reportPending {
		o.mu.Unlock()
		return "", ErrRequestInFlight
	}
	if o.answeredLocked() < o.cfg.TurnLimit {
		o.mu.Unlock()
		return "", ErrReportNotEligible
	}
	pairs := o.pairsLocked()
	digest := engagement.Digest(engagement.Summarize(o.samples))
	p := prompt.Report(o.cfg.Topic, pairs, digest)
	epoch, life := o.epoch, o.life
	o.reportPending = true
	o.state = StateGeneratingReport
	o.mu.Unlock()

	report, err := o.generate(ctx, life, llm.PhaseReport, p, sanitize.Report)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.epoch != epoch {
		return "", ErrCancelled
	}
	o.reportPending = false
	if err != nil {
		o.lastErr = err
		o.report = interview.ReportFailureText
		o.reportGenerated = false
		o.state = StateReportEligible
		return interview.ReportFailureText, err
	}
	o.lastErr = nil
	o.report = report
	o.reportGenerated = true
	o.state = StateReportReady
	return report, nil
}

// Exit leaves live-interview mode from any state. Outstanding calls are
// cancelled and their results discarded.
func (o *Orchestrator) Exit() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.epoch++
	if o.cancel != nil {
		o.cancel()
	}
	o.resetLocked()
	o.state = StateIdle
}

// Done is closed when the current interview exits. It is nil while idle.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.life == nil {
		return nil
	}
	return o.life.Done()
}

func (o *Orchestrator) resetLocked() {
	o.cfg = Config{}
	o.transcript = nil
	o.samples = nil
	o.report = ""
	o.reportGenerated = false
	o.questionPending = false
	o.reportPending = false
	o.lastErr = nil
	o.mediaErr = nil
	o.life, o.cancel = nil, nil
}

func (o *Orchestrator) generate(ctx, life context.Context, phase, p string, parse func(string) (string, error)) (string, error) {
	if life == nil {
		return "", ErrCancelled
	}
	callCtx, cancel := context.WithCancel(llm.WithPhase(ctx, phase))
	defer cancel()
	stop := context.AfterFunc(life, cancel)
	defer stop()

	raw, err := o.gen.GenerateText(callCtx, p)
	if err != nil {
		return "", interview.Upstream(err)
	}
	return parse(raw)
}

func (o *Orchestrator) currentLocked() (interview.Turn, bool) {
	if n := len(o.transcript); n > 0 && !o.transcript[n-1].Answered {
		return o.transcript[n-1], true
	}
	return interview.Turn{}, false
}

func (o *Orchestrator) answeredLocked() int {
	n := 0
	for _, t := range o.transcript {
		if t.Answered {
			n++
		}
	}
	return n
}

func (o *Orchestrator) answersLocked() []string {
	out := make([]string, 0, len(o.transcript))
	for _, t := range o.transcript {
		if t.Answered {
			out = append(out, t.Answer)
		}
	}
	return out
}

func (o *Orchestrator) pairsLocked() []interview.QAPair {
	out := make([]interview.QAPair, 0, len(o.transcript))
	for _, t := range o.transcript {
		if t.Answered {
			out = append(out, interview.QAPair{Question: t.Question, Answer: t.Answer})
		}
	}
	return out
}
