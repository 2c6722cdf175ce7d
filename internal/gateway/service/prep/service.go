// Package prep manages persisted interview-prep sessions: generated
// question/answer pairs, pinning, and concept explanations.
package prep

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	sessionrepo "interviewprep/internal/gateway/repository/session"
	"interviewprep/internal/interview"
	"interviewprep/internal/interview/prompt"
	"interviewprep/internal/interview/sanitize"
	"interviewprep/internal/llm"
)

// Generator is the generative call used for batches and explanations.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	store         sessionrepo.Store
	gen           Generator
	questionCount int
	now           func() time.Time
	newID         func() string
}

func New(store sessionrepo.Store, gen Generator, questionCount int) *Service {
	if questionCount <= 0 {
		questionCount = interview.DefaultQuestionCount
	}
	return &Service{
		store:         store,
		gen:           gen,
		questionCount: questionCount,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

type CreateInput struct {
	Role              string   `json:"role"`
	Experience        string   `json:"experience"`
	Topics            []string `json:"topicsToFocus"`
	Description       string   `json:"description"`
	NumberOfQuestions int      `json:"numberOfQuestions"`
}

// Create validates the input, generates the opening questions and persists
// the session. Nothing is generated or stored when validation fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (interview.Session, error) {
	role := strings.TrimSpace(in.Role)
	experience := strings.TrimSpace(in.Experience)
	topics := interview.NormalizeTopics(in.Topics)
	if err := validateProfile(role, experience, topics); err != nil {
		return interview.Session{}, err
	}
	n := in.NumberOfQuestions
	if n <= 0 {
		n = s.questionCount
	}

	pairs, err := s.GenerateBatch(ctx, role, experience, topics, n)
	if err != nil {
		return interview.Session{}, err
	}

	now := s.now()
	sess := interview.Session{
		ID:          s.newID(),
		Role:        role,
		Experience:  experience,
		Topics:      topics,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
		Questions:   s.toQuestions(pairs, now),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return interview.Session{}, fmt.Errorf("create session: %w", err)
	}
	for i := range sess.Questions {
		sess.Questions[i].SessionID = sess.ID
	}
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (interview.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return interview.Session{}, interview.Validationf("session id is required")
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]interview.Session, error) {
	return s.store.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return interview.Validationf("session id is required")
	}
	return s.store.Delete(ctx, id)
}

// LoadMore generates n more pairs from the session's stored profile.
func (s *Service) LoadMore(ctx context.Context, id string, n int) (interview.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return interview.Session{}, err
	}
	if n <= 0 {
		n = s.questionCount
	}
	pairs, err := s.GenerateBatch(ctx, sess.Role, sess.Experience, sess.Topics, n)
	if err != nil {
		return interview.Session{}, err
	}
	return s.store.AppendQuestions(ctx, sess.ID, s.toQuestions(pairs, s.now()))
}

// AddQuestions appends already generated pairs to a session.
func (s *Service) AddQuestions(ctx context.Context, id string, pairs []interview.QAPair) (interview.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return interview.Session{}, interview.Validationf("session id is required")
	}
	kept := make([]interview.QAPair, 0, len(pairs))
	for _, p := range pairs {
		if strings.TrimSpace(p.Question) == "" {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return interview.Session{}, interview.Validationf("questions are required")
	}
	return s.store.AppendQuestions(ctx, id, s.toQuestions(kept, s.now()))
}

func (s *Service) TogglePin(ctx context.Context, questionID string) (interview.QuestionAnswer, error) {
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return interview.QuestionAnswer{}, interview.Validationf("question id is required")
	}
	return s.store.TogglePin(ctx, questionID)
}

// GenerateBatch asks for n question/answer pairs without persisting them.
func (s *Service) GenerateBatch(ctx context.Context, role, experience string, topics []string, n int) ([]interview.QAPair, error) {
	role = strings.TrimSpace(role)
	experience = strings.TrimSpace(experience)
	topics = interview.NormalizeTopics(topics)
	if err := validateProfile(role, experience, topics); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, interview.Validationf("numberOfQuestions must be positive")
	}
	raw, err := s.gen.GenerateText(llm.WithPhase(ctx, llm.PhaseQuestionBatch), prompt.QuestionBatch(role, experience, topics, n))
	if err != nil {
		return nil, interview.Upstream(err)
	}
	return sanitize.QuestionBatch(raw)
}

// Explain returns a titled explanation of the concept behind question.
func (s *Service) Explain(ctx context.Context, question string) (interview.Explanation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return interview.Explanation{}, interview.Validationf("question is required")
	}
	raw, err := s.gen.GenerateText(llm.WithPhase(ctx, llm.PhaseExplanation), prompt.ConceptExplanation(question))
	if err != nil {
		return interview.Explanation{}, interview.Upstream(err)
	}
	return sanitize.Explanation(raw)
}

func (s *Service) toQuestions(pairs []interview.QAPair, at time.Time) []interview.QuestionAnswer {
	out := make([]interview.QuestionAnswer, 0, len(pairs))
	for i, p := range pairs {
		out = append(out, interview.QuestionAnswer{
			ID:       s.newID(),
			Question: strings.TrimSpace(p.Question),
			Answer:   strings.TrimSpace(p.Answer),
			// Keep generation order stable under the created-at sort.
			CreatedAt: at.Add(time.Duration(i) * time.Millisecond),
		})
	}
	return out
}

func validateProfile(role, experience string, topics []string) error {
	var missing []string
	if role == "" {
		missing = append(missing, "role")
	}
	if experience == "" {
		missing = append(missing, "experience")
	}
	if len(topics) == 0 {
		missing = append(missing, "topicsToFocus")
	}
	if len(missing) > 0 {
		return interview.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
