package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	sessionrepo "interviewprep/internal/gateway/repository/session"
	"interviewprep/internal/interview"
)

type Store = sessionrepo.Store

const listKey = "all"

type CacheConfig struct {
	SessionTTL        time.Duration
	SessionMaxEntries int

	ListTTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		SessionTTL:        5 * time.Minute,
		SessionMaxEntries: 1024,
		ListTTL:           30 * time.Second,
	}
}

type MetricsSnapshot struct {
	SessionHits    uint64
	SessionMisses  uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	sessionHits    atomic.Uint64
	sessionMisses  atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		SessionHits:    m.sessionHits.Load(),
		SessionMisses:  m.sessionMisses.Load(),
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a read-through cache in front of a session Store.
// Every write drops the affected session and the cached listing. A fill
// is only stored when no write committed while the origin was being read.
type CachedStore struct {
	origin Store

	sessions *expirable.LRU[string, interview.Session]
	lists    *expirable.LRU[string, []interview.Session]
	metrics  Metrics

	mu     sync.Mutex
	writes uint64 // bumped by every invalidation, guarded by mu
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.SessionMaxEntries <= 0 {
		cfg.SessionMaxEntries = def.SessionMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	return &CachedStore{
		origin:   origin,
		sessions: expirable.NewLRU[string, interview.Session](cfg.SessionMaxEntries, nil, cfg.SessionTTL),
		lists:    expirable.NewLRU[string, []interview.Session](1, nil, cfg.ListTTL),
	}
}

func (s *CachedStore) Create(ctx context.Context, in interview.Session) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Create(ctx, in); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.invalidate(strings.TrimSpace(in.ID))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (interview.Session, error) {
	id = strings.TrimSpace(id)
	if cached, ok := s.sessions.Get(id); ok {
		s.metrics.sessionHits.Add(1)
		return cached.Clone(), nil
	}
	s.metrics.sessionMisses.Add(1)
	s.metrics.originReads.Add(1)

	seen := s.writeSeq()
	got, err := s.origin.Get(ctx, id)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return interview.Session{}, err
	}
	s.fill(seen, func() { s.sessions.Add(id, got.Clone()) })
	return got, nil
}

func (s *CachedStore) List(ctx context.Context) ([]interview.Session, error) {
	if cached, ok := s.lists.Get(listKey); ok {
		s.metrics.listHits.Add(1)
		return cloneAll(cached), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	seen := s.writeSeq()
	list, err := s.origin.List(ctx)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.fill(seen, func() { s.lists.Add(listKey, cloneAll(list)) })
	return list, nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	s.metrics.originWrites.Add(1)
	err := s.origin.Delete(ctx, id)
	s.invalidate(id)
	if err != nil {
		s.metrics.originWriteErr.Add(1)
	}
	return err
}

func (s *CachedStore) AppendQuestions(ctx context.Context, sessionID string, qs []interview.QuestionAnswer) (interview.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	s.metrics.originWrites.Add(1)
	seen := s.writeSeq()
	out, err := s.origin.AppendQuestions(ctx, sessionID, qs)
	if err != nil {
		s.invalidate(sessionID)
		s.metrics.originWriteErr.Add(1)
		return interview.Session{}, err
	}
	// Keep the fresh copy unless another write landed in between.
	s.mu.Lock()
	s.writes++
	s.sessions.Remove(sessionID)
	s.lists.Purge()
	if s.writes == seen+1 {
		s.sessions.Add(sessionID, out.Clone())
	}
	s.mu.Unlock()
	return out, nil
}

func (s *CachedStore) TogglePin(ctx context.Context, questionID string) (interview.QuestionAnswer, error) {
	s.metrics.originWrites.Add(1)
	q, err := s.origin.TogglePin(ctx, questionID)
	if err != nil {
		s.metrics.originWriteErr.Add(1)
		return interview.QuestionAnswer{}, err
	}
	s.invalidate(q.SessionID)
	return q, nil
}

func (s *CachedStore) invalidate(id string) {
	s.mu.Lock()
	s.writes++
	s.sessions.Remove(id)
	s.lists.Purge()
	s.mu.Unlock()
}

func (s *CachedStore) writeSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// fill runs add only if no invalidation happened since seen.
func (s *CachedStore) fill(seen uint64, add func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writes == seen {
		add()
	}
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

func cloneAll(in []interview.Session) []interview.Session {
	out := make([]interview.Session, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
