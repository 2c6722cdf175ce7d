package session

import (
	"context"
	"fmt"

	"interviewprep/internal/interview"
)

// Store defines operations for persisting prep sessions and their questions.
// Get and List return questions pinned first, then in creation order.
type Store interface {
	Create(ctx context.Context, s interview.Session) error
	Get(ctx context.Context, id string) (interview.Session, error)
	List(ctx context.Context) ([]interview.Session, error)
	Delete(ctx context.Context, id string) error
	AppendQuestions(ctx context.Context, sessionID string, qs []interview.QuestionAnswer) (interview.Session, error)
	TogglePin(ctx context.Context, questionID string) (interview.QuestionAnswer, error)
}

var (
	ErrNotFound         = fmt.Errorf("session %w", interview.ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question %w", interview.ErrNotFound)
)
