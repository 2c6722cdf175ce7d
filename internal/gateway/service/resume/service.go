// Package resume accepts uploaded PDF resumes, keeps the original bytes and
// serves their extracted plain text as interview context.
package resume

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ledongthuc/pdf"

	resumerepo "interviewprep/internal/gateway/repository/resume"
	"interviewprep/internal/interview"
)

const DefaultMaxBytes = 10 * 1024 * 1024

var (
	pdfMagic             = []byte("%PDF-")
	extraneousWhitespace = regexp.MustCompile(`\s+`)
)

// Resume is the result of a successful upload.
type Resume struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

type Config struct {
	MaxBytes     int64
	CacheEntries int
	CacheTTL     time.Duration
}

type Service struct {
	store    resumerepo.Store
	texts    *expirable.LRU[string, string]
	maxBytes int64
	newID    func() string
}

func New(store resumerepo.Store, cfg Config) *Service {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.CacheEntries <= 0 {
		cfg.CacheEntries = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Service{
		store:    store,
		texts:    expirable.NewLRU[string, string](cfg.CacheEntries, nil, cfg.CacheTTL),
		maxBytes: cfg.MaxBytes,
		newID:    uuid.NewString,
	}
}

// MaxBytes is the largest accepted upload.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates, stores and extracts a resume. A document that cannot be
// parsed is rejected as a validation failure and is not stored.
func (s *Service) Upload(ctx context.Context, filename, contentType string, data []byte) (Resume, error) {
	if len(data) == 0 {
		return Resume{}, interview.Validationf("resume file is required")
	}
	if int64(len(data)) > s.maxBytes {
		return Resume{}, interview.Validationf("resume exceeds %d bytes", s.maxBytes)
	}
	if !IsPDF(contentType, data) {
		return Resume{}, interview.Validationf("only PDF resumes are supported")
	}
	text, err := ExtractText(data)
	if err != nil {
		return Resume{}, fmt.Errorf("%w: %w", interview.ErrValidation, err)
	}

	id := s.newID()
	if err := s.store.Put(ctx, id, data); err != nil {
		return Resume{}, fmt.Errorf("store resume: %w", err)
	}
	s.texts.Add(id, text)

	url, err := s.store.GetURL(ctx, id)
	if err != nil {
		url = ""
	}
	return Resume{ID: id, Name: strings.TrimSpace(filename), Text: text, URL: url}, nil
}

// Text returns the extracted text for id, re-reading the stored document
// when it has fallen out of the cache.
func (s *Service) Text(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", interview.Validationf("resume id is required")
	}
	if text, ok := s.texts.Get(id); ok {
		return text, nil
	}
	data, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	text, err := ExtractText(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", interview.ErrValidation, err)
	}
	s.texts.Add(id, text)
	return text, nil
}

// IsPDF accepts either a PDF content type or the PDF magic header.
func IsPDF(contentType string, data []byte) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == resumerepo.ContentTypePDF {
		return true
	}
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic)
}

// ExtractText returns the document's plain text with whitespace collapsed.
func ExtractText(data []byte) (text string, err error) {
	// The pdf reader panics on some truncated inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}
	return strings.TrimSpace(extraneousWhitespace.ReplaceAllString(builder.String(), " ")), nil
}
