package resume

import (
	"context"
	"fmt"
	"strings"

	"interviewprep/internal/interview"
)

const ContentTypePDF = "application/pdf"

// Store keeps uploaded resume documents keyed by resume id.
type Store interface {
	Put(ctx context.Context, id string, content []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	// GetURL returns a time-limited download link, or "" when the backend
	// cannot serve one.
	GetURL(ctx context.Context, id string) (string, error)
}

var ErrNotFound = fmt.Errorf("resume %w", interview.ErrNotFound)

func objectKey(id string) string {
	return "resumes/" + strings.TrimSpace(id) + ".pdf"
}
