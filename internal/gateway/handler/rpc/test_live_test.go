package rpc

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewprep/internal/gateway/service/live"
	"interviewprep/internal/interview"
	"interviewprep/internal/interview/orchestrator"
	llmclient "interviewprep/internal/llm/client"
)

func dialLive(t *testing.T, svc *live.Service) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(NewLiveHandler(svc).HandleLiveWS))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads outbound messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(liveWSOutbound) bool) liveWSOutbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var out liveWSOutbound
		require.NoError(t, conn.ReadJSON(&out))
		if match(out) {
			return out
		}
	}
}

func ofType(typ string) func(liveWSOutbound) bool {
	return func(out liveWSOutbound) bool { return out.Type == typ }
}

func TestLiveWSInterviewRoundTrip(t *testing.T) {
	svc := live.New(llmclient.NewFakeClient(), nil, live.Config{TurnLimit: 1, IdleTTL: time.Minute})
	conn := dialLive(t, svc)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "start", Topic: "Go"}))
	started := readUntil(t, conn, ofType("started"))
	require.NotEmpty(t, started.LiveID)

	q := readUntil(t, conn, ofType("question"))
	assert.Equal(t, "Sample interview question 1?", q.Question)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "frame", Frame: &liveWSFrame{
		FaceCount: 1,
		Emotion:   interview.EmotionHappy,
		Attention: interview.AttentionFocused,
		Posture:   interview.PostureSlouching,
	}}))
	fb := readUntil(t, conn, ofType("feedback"))
	require.NotNil(t, fb.Feedback)
	assert.Equal(t, "Try to sit upright for a confident posture.", *fb.Feedback)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "answer", Answer: "Channels and goroutines."}))
	readUntil(t, conn, func(out liveWSOutbound) bool {
		return out.Type == "state" && out.State != nil && out.State.State == orchestrator.StateReportEligible
	})

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "report"}))
	report := readUntil(t, conn, ofType("report"))
	assert.Contains(t, report.Report, "Recommendation")

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "exit"}))
	readUntil(t, conn, func(out liveWSOutbound) bool {
		return out.Type == "state" && out.State != nil && out.State.State == orchestrator.StateIdle
	})
	assert.Eventually(t, func() bool { return svc.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLiveWSRejectsMessagesBeforeStart(t *testing.T) {
	svc := live.New(llmclient.NewFakeClient(), nil, live.Config{TurnLimit: 1})
	conn := dialLive(t, svc)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "answer", Answer: "x"}))
	out := readUntil(t, conn, ofType("error"))
	assert.Equal(t, "failed_precondition", out.Code)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "start"}))
	out = readUntil(t, conn, ofType("error"))
	assert.Equal(t, "invalid_argument", out.Code)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "ping"}))
	readUntil(t, conn, ofType("pong"))
}

func TestLiveWSGenerationFailureIsReported(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.FakeResponse{Err: assert.AnError})
	svc := live.New(fake, nil, live.Config{TurnLimit: 1})
	conn := dialLive(t, svc)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "start", Topic: "Go"}))
	out := readUntil(t, conn, ofType("error"))
	assert.Equal(t, "unavailable", out.Code)
	assert.Equal(t, interview.QuestionFailureText, out.Message)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "next"}))
	q := readUntil(t, conn, ofType("question"))
	assert.NotEmpty(t, q.Question)
}

func TestLiveWSDisconnectExitsInterview(t *testing.T) {
	svc := live.New(llmclient.NewFakeClient(), nil, live.Config{TurnLimit: 2})
	conn := dialLive(t, svc)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "start", Topic: "Go"}))
	readUntil(t, conn, ofType("question"))
	require.Equal(t, 1, svc.Len())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return svc.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLiveWSMediaErrorDisablesFeedback(t *testing.T) {
	svc := live.New(llmclient.NewFakeClient(), nil, live.Config{TurnLimit: 1, IdleTTL: time.Minute})
	conn := dialLive(t, svc)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "start", Topic: "Go"}))
	readUntil(t, conn, ofType("question"))

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "media_error", Message: "NotAllowedError: permission denied"}))
	state := readUntil(t, conn, func(out liveWSOutbound) bool {
		return out.Type == "state" && out.State != nil && out.State.MediaError != ""
	})
	assert.Contains(t, state.State.MediaError, "permission denied")
	assert.Equal(t, orchestrator.StateAwaitingAnswer, state.State.State)

	require.NoError(t, conn.WriteJSON(liveWSInbound{Type: "answer", Answer: "Channels."}))
	readUntil(t, conn, func(out liveWSOutbound) bool {
		return out.Type == "state" && out.State != nil && out.State.State == orchestrator.StateReportEligible
	})
}
