package prep

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionrepo "interviewprep/internal/gateway/repository/session"
	"interviewprep/internal/interview"
	llmclient "interviewprep/internal/llm/client"
)

func newTestService(t *testing.T, script ...llmclient.FakeResponse) (*Service, *llmclient.FakeClient) {
	t.Helper()
	fake := llmclient.NewFakeClient(script...)
	return New(sessionrepo.NewMemoryStore(), fake, 3), fake
}

func TestCreateValidationSkipsGeneration(t *testing.T) {
	svc, fake := newTestService(t)
	_, err := svc.Create(context.Background(), CreateInput{Role: "Backend", Topics: []string{"go"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, interview.ErrValidation))
	assert.Contains(t, err.Error(), "experience")
	assert.Empty(t, fake.Prompts())

	_, err = svc.Create(context.Background(), CreateInput{Role: "Backend", Experience: "2", Topics: []string{" ", ""}})
	assert.True(t, errors.Is(err, interview.ErrValidation))
	assert.Empty(t, fake.Prompts())
}

func TestCreatePersistsGeneratedQuestions(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t)

	sess, err := svc.Create(ctx, CreateInput{
		Role:        "Backend",
		Experience:  "2",
		Topics:      []string{"go", "Go", "sql"},
		Description: " payments ",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, sess.Topics)
	assert.Equal(t, "payments", sess.Description)
	require.Len(t, sess.Questions, 3)
	for _, q := range sess.Questions {
		assert.NotEmpty(t, q.ID)
		assert.Equal(t, sess.ID, q.SessionID)
		assert.False(t, q.IsPinned)
	}
	require.Len(t, fake.Prompts(), 1)
	assert.Contains(t, fake.Prompts()[0], "Write 3 interview questions.")

	stored, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Questions[0].Question, stored.Questions[0].Question)
}

func TestCreateSurfacesUpstreamFailure(t *testing.T) {
	svc, _ := newTestService(t, llmclient.FakeResponse{Err: errors.New("quota")})
	_, err := svc.Create(context.Background(), CreateInput{Role: "r", Experience: "1", Topics: []string{"t"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, interview.ErrUpstreamGeneration))

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRejectsMalformedBatch(t *testing.T) {
	svc, _ := newTestService(t, llmclient.FakeResponse{Text: "not json"})
	_, err := svc.Create(context.Background(), CreateInput{Role: "r", Experience: "1", Topics: []string{"t"}})
	assert.True(t, errors.Is(err, interview.ErrMalformedResponse))
}

func TestPinLoadMoreAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sess, err := svc.Create(ctx, CreateInput{Role: "r", Experience: "1", Topics: []string{"t"}, NumberOfQuestions: 2})
	require.NoError(t, err)
	require.Len(t, sess.Questions, 2)

	last := sess.Questions[1]
	q, err := svc.TogglePin(ctx, last.ID)
	require.NoError(t, err)
	assert.True(t, q.IsPinned)

	got, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, last.ID, got.Questions[0].ID)

	more, err := svc.LoadMore(ctx, sess.ID, 2)
	require.NoError(t, err)
	assert.Len(t, more.Questions, 4)

	added, err := svc.AddQuestions(ctx, sess.ID, []interview.QAPair{{Question: "Extra?", Answer: "Yes."}, {Question: " "}})
	require.NoError(t, err)
	assert.Len(t, added.Questions, 5)

	_, err = svc.AddQuestions(ctx, sess.ID, nil)
	assert.True(t, errors.Is(err, interview.ErrValidation))

	require.NoError(t, svc.Delete(ctx, sess.ID))
	_, err = svc.Get(ctx, sess.ID)
	assert.True(t, errors.Is(err, interview.ErrNotFound))
	_, err = svc.TogglePin(ctx, last.ID)
	assert.True(t, errors.Is(err, interview.ErrNotFound))
}

func TestExplain(t *testing.T) {
	svc, fake := newTestService(t)
	_, err := svc.Explain(context.Background(), "  ")
	assert.True(t, errors.Is(err, interview.ErrValidation))
	assert.Empty(t, fake.Prompts())

	exp, err := svc.Explain(context.Background(), "What is a closure?")
	require.NoError(t, err)
	assert.Equal(t, "Sample concept", exp.Title)
	assert.NotEmpty(t, exp.Explanation)
}

func TestGenerateBatchRequiresCount(t *testing.T) {
	svc, fake := newTestService(t)
	_, err := svc.GenerateBatch(context.Background(), "r", "1", []string{"t"}, 0)
	assert.True(t, errors.Is(err, interview.ErrValidation))
	assert.Empty(t, fake.Prompts())
}
