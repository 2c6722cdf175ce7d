package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"interviewprep/internal/interview"
)

type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]*interview.Session
	questions map[string]string // question id -> session id
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*interview.Session),
		questions: make(map[string]string),
		now:       time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, in interview.Session) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		return fmt.Errorf("session %s already exists", id)
	}
	for _, q := range in.Questions {
		if _, ok := s.questions[q.ID]; ok || strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("question id %q is missing or duplicated", q.ID)
		}
	}
	cp := in.Clone()
	cp.ID = id
	for i := range cp.Questions {
		cp.Questions[i].SessionID = id
		s.questions[cp.Questions[i].ID] = id
	}
	s.sessions[id] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (interview.Session, error) {
	if s == nil {
		return interview.Session{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return interview.Session{}, ErrNotFound
	}
	out := cur.Clone()
	interview.SortQuestions(out.Questions)
	return out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]interview.Session, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]interview.Session, 0, len(s.sessions))
	for _, cur := range s.sessions {
		cp := cur.Clone()
		interview.SortQuestions(cp.Questions)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	for _, q := range cur.Questions {
		delete(s.questions, q.ID)
	}
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) AppendQuestions(_ context.Context, sessionID string, qs []interview.QuestionAnswer) (interview.Session, error) {
	if s == nil {
		return interview.Session{}, fmt.Errorf("store is nil")
	}
	sessionID = strings.TrimSpace(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[sessionID]
	if !ok {
		return interview.Session{}, ErrNotFound
	}
	for _, q := range qs {
		if _, dup := s.questions[q.ID]; dup || strings.TrimSpace(q.ID) == "" {
			return interview.Session{}, fmt.Errorf("question id %q is missing or duplicated", q.ID)
		}
	}
	for _, q := range qs {
		q.SessionID = sessionID
		cur.Questions = append(cur.Questions, q)
		s.questions[q.ID] = sessionID
	}
	cur.UpdatedAt = s.now()
	out := cur.Clone()
	interview.SortQuestions(out.Questions)
	return out, nil
}

func (s *MemoryStore) TogglePin(_ context.Context, questionID string) (interview.QuestionAnswer, error) {
	if s == nil {
		return interview.QuestionAnswer{}, fmt.Errorf("store is nil")
	}
	questionID = strings.TrimSpace(questionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionID, ok := s.questions[questionID]
	if !ok {
		return interview.QuestionAnswer{}, ErrQuestionNotFound
	}
	cur := s.sessions[sessionID]
	for i := range cur.Questions {
		if cur.Questions[i].ID != questionID {
			continue
		}
		cur.Questions[i].IsPinned = !cur.Questions[i].IsPinned
		cur.UpdatedAt = s.now()
		return cur.Questions[i], nil
	}
	return interview.QuestionAnswer{}, ErrQuestionNotFound
}
