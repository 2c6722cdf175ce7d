package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionrepo "interviewprep/internal/gateway/repository/session"
	"interviewprep/internal/gateway/service/live"
	"interviewprep/internal/gateway/service/prep"
	"interviewprep/internal/interview"
	llmclient "interviewprep/internal/llm/client"
)

func newInterviewServer(t *testing.T, fake *llmclient.FakeClient) *httptest.Server {
	t.Helper()
	liveSvc := live.New(fake, nil, live.Config{TurnLimit: 2, IdleTTL: time.Minute})
	prepSvc := prep.New(sessionrepo.NewMemoryStore(), fake, 3)
	path, h := NewInterviewServiceHandler(NewInterviewHandler(liveSvc, prepSvc))
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateQuestionOverConnect(t *testing.T) {
	srv := newInterviewServer(t, llmclient.NewFakeClient())
	client := connect.NewClient[live.QuestionInput, GenerateQuestionResponse](
		srv.Client(), srv.URL+GenerateQuestionProcedure, connect.WithCodec(jsonCodec{}))

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&live.QuestionInput{Topic: "Go"}))
	require.NoError(t, err)
	assert.Equal(t, "Sample interview question 1?", res.Msg.Question)
}

func TestGenerateQuestionValidationOverConnect(t *testing.T) {
	srv := newInterviewServer(t, llmclient.NewFakeClient())
	client := connect.NewClient[live.QuestionInput, GenerateQuestionResponse](
		srv.Client(), srv.URL+GenerateQuestionProcedure, connect.WithCodec(jsonCodec{}))

	_, err := client.CallUnary(context.Background(), connect.NewRequest(&live.QuestionInput{Topic: "  "}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestGenerateReportFailureCarriesFailureText(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.FakeResponse{Err: errors.New("quota exceeded")})
	srv := newInterviewServer(t, fake)
	client := connect.NewClient[live.ReportInput, GenerateReportResponse](
		srv.Client(), srv.URL+GenerateReportProcedure, connect.WithCodec(jsonCodec{}))

	_, err := client.CallUnary(context.Background(), connect.NewRequest(&live.ReportInput{
		Topic:   "Go",
		QAPairs: []interview.QAPair{{Question: "Q?", Answer: "A."}},
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
	var cerr *connect.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, interview.ReportFailureText, cerr.Meta().Get("X-Failure-Text"))
}

func TestGenerateQuestionBatchOverConnect(t *testing.T) {
	srv := newInterviewServer(t, llmclient.NewFakeClient())
	client := connect.NewClient[GenerateQuestionBatchRequest, GenerateQuestionBatchResponse](
		srv.Client(), srv.URL+GenerateQuestionBatchProcedure, connect.WithCodec(jsonCodec{}))

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&GenerateQuestionBatchRequest{
		Role:              "Backend Engineer",
		Experience:        "3",
		TopicsToFocus:     []string{"Go", "SQL"},
		NumberOfQuestions: 2,
	}))
	require.NoError(t, err)
	require.Len(t, res.Msg.Questions, 2)
	assert.NotEmpty(t, res.Msg.Questions[0].Question)
}

func TestExplainConceptOverConnect(t *testing.T) {
	srv := newInterviewServer(t, llmclient.NewFakeClient())
	client := connect.NewClient[ExplainConceptRequest, interview.Explanation](
		srv.Client(), srv.URL+ExplainConceptProcedure, connect.WithCodec(jsonCodec{}))

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&ExplainConceptRequest{Question: "What is a goroutine?"}))
	require.NoError(t, err)
	assert.Equal(t, "Sample concept", res.Msg.Title)
}

func TestToInterviewErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code connect.Code
	}{
		{interview.Validationf("x"), connect.CodeInvalidArgument},
		{live.ErrNotFound, connect.CodeNotFound},
		{interview.Upstream(errors.New("down")), connect.CodeUnavailable},
		{errors.New("boom"), connect.CodeInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, connect.CodeOf(toInterviewError(tc.err, "")), tc.err.Error())
	}
}
