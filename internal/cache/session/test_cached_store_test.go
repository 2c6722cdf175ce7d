package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionrepo "interviewprep/internal/gateway/repository/session"
	"interviewprep/internal/interview"
)

type countingStore struct {
	*sessionrepo.MemoryStore
	gets  int
	lists int
}

func (c *countingStore) Get(ctx context.Context, id string) (interview.Session, error) {
	c.gets++
	return c.MemoryStore.Get(ctx, id)
}

func (c *countingStore) List(ctx context.Context) ([]interview.Session, error) {
	c.lists++
	return c.MemoryStore.List(ctx)
}

func seed(t *testing.T, origin *countingStore, id string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, origin.MemoryStore.Create(context.Background(), interview.Session{
		ID:        id,
		Role:      "SRE",
		Topics:    []string{"linux"},
		CreatedAt: now,
		UpdatedAt: now,
		Questions: []interview.QuestionAnswer{{ID: id + "-q1", Question: "What is an inode?", CreatedAt: now}},
	}))
}

func TestCachedStoreReadThroughAndMetrics(t *testing.T) {
	ctx := context.Background()
	origin := &countingStore{MemoryStore: sessionrepo.NewMemoryStore()}
	seed(t, origin, "s1")
	store := NewCachedStore(origin, CacheConfig{SessionTTL: time.Minute, SessionMaxEntries: 8, ListTTL: time.Minute})

	for i := 0; i < 3; i++ {
		got, err := store.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "SRE", got.Role)
	}
	assert.Equal(t, 1, origin.gets)

	for i := 0; i < 2; i++ {
		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
	assert.Equal(t, 1, origin.lists)

	m := store.Metrics()
	assert.Equal(t, uint64(2), m.SessionHits)
	assert.Equal(t, uint64(1), m.SessionMisses)
	assert.Equal(t, uint64(1), m.ListHits)
	assert.Equal(t, uint64(2), m.OriginReads)
}

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	origin := &countingStore{MemoryStore: sessionrepo.NewMemoryStore()}
	seed(t, origin, "s1")
	store := NewCachedStore(origin, DefaultCacheConfig())

	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	_, err = store.List(ctx)
	require.NoError(t, err)

	q, err := store.TogglePin(ctx, "s1-q1")
	require.NoError(t, err)
	assert.True(t, q.IsPinned)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Questions[0].IsPinned)
	assert.Equal(t, 2, origin.gets)

	require.NoError(t, store.Create(ctx, interview.Session{ID: "s2", Role: "QA", CreatedAt: time.Now()}))
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, origin.lists)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, interview.ErrNotFound)
}

func TestCachedStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	origin := &countingStore{MemoryStore: sessionrepo.NewMemoryStore()}
	seed(t, origin, "s1")
	store := NewCachedStore(origin, DefaultCacheConfig())

	first, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	first.Topics[0] = "changed"

	second, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "linux", second.Topics[0])
}

// pausingStore parks the first origin read after it has loaded its data,
// so a write can commit before the read returns.
type pausingStore struct {
	*sessionrepo.MemoryStore
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func newPausingStore() *pausingStore {
	return &pausingStore{
		MemoryStore: sessionrepo.NewMemoryStore(),
		loaded:      make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (p *pausingStore) pause() {
	p.once.Do(func() {
		close(p.loaded)
		<-p.release
	})
}

func (p *pausingStore) Get(ctx context.Context, id string) (interview.Session, error) {
	got, err := p.MemoryStore.Get(ctx, id)
	p.pause()
	return got, err
}

func (p *pausingStore) List(ctx context.Context) ([]interview.Session, error) {
	list, err := p.MemoryStore.List(ctx)
	p.pause()
	return list, err
}

func TestCachedStoreGetDoesNotCacheReadOlderThanPin(t *testing.T) {
	ctx := context.Background()
	origin := newPausingStore()
	seed(t, &countingStore{MemoryStore: origin.MemoryStore}, "s1")
	store := NewCachedStore(origin, DefaultCacheConfig())

	done := make(chan interview.Session, 1)
	go func() {
		got, err := store.Get(ctx, "s1")
		assert.NoError(t, err)
		done <- got
	}()

	<-origin.loaded
	q, err := store.TogglePin(ctx, "s1-q1")
	require.NoError(t, err)
	require.True(t, q.IsPinned)
	close(origin.release)

	stale := <-done
	assert.False(t, stale.Questions[0].IsPinned)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Questions[0].IsPinned)
}

func TestCachedStoreListDoesNotCacheReadOlderThanDelete(t *testing.T) {
	ctx := context.Background()
	origin := newPausingStore()
	seed(t, &countingStore{MemoryStore: origin.MemoryStore}, "s1")
	store := NewCachedStore(origin, DefaultCacheConfig())

	done := make(chan []interview.Session, 1)
	go func() {
		list, err := store.List(ctx)
		assert.NoError(t, err)
		done <- list
	}()

	<-origin.loaded
	require.NoError(t, store.Delete(ctx, "s1"))
	close(origin.release)
	assert.Len(t, <-done, 1)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, interview.ErrNotFound)
}
