package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"interviewprep/internal/gateway/handler"
	"interviewprep/internal/gateway/service/live"
	"interviewprep/internal/interview"
	"interviewprep/internal/interview/orchestrator"
	"interviewprep/internal/observability"
)

// LiveHandler drives live interviews over a websocket. One reader loop
// accepts client messages; generation runs off the loop so that exit and
// perception frames are handled while a question is being generated.
type LiveHandler struct {
	svc *live.Service
}

func NewLiveHandler(svc *live.Service) *LiveHandler {
	return &LiveHandler{svc: svc}
}

const (
	liveWSWriteWait = 10 * time.Second
	liveWSPongWait  = 60 * time.Second
	liveWSPingEvery = (liveWSPongWait * 9) / 10
)

var liveWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type liveWSFrame struct {
	FaceCount int                 `json:"faceCount"`
	Emotion   interview.Emotion   `json:"emotion,omitempty"`
	Attention interview.Attention `json:"attention,omitempty"`
	Posture   interview.Posture   `json:"posture,omitempty"`
}

type liveWSInbound struct {
	Type       string       `json:"type"`
	Topic      string       `json:"topic,omitempty"`
	ResumeText string       `json:"resumeText,omitempty"`
	ResumeID   string       `json:"resumeId,omitempty"`
	TurnLimit  int          `json:"turnLimit,omitempty"`
	Answer     string       `json:"answer,omitempty"`
	Message    string       `json:"message,omitempty"`
	Frame      *liveWSFrame `json:"frame,omitempty"`
}

type liveWSOutbound struct {
	Type     string                 `json:"type"`
	LiveID   string                 `json:"liveId,omitempty"`
	Question string                 `json:"question,omitempty"`
	Feedback *string                `json:"feedback,omitempty"`
	Report   string                 `json:"report,omitempty"`
	State    *orchestrator.Snapshot `json:"state,omitempty"`
	Code     string                 `json:"code,omitempty"`
	Message  string                 `json:"message,omitempty"`
}

func (h *LiveHandler) HandleLiveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := liveWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	logger := observability.LoggerFromContext(ctx)

	if err := conn.SetReadDeadline(time.Now().Add(liveWSPongWait)); err != nil {
		logger.Warn("live ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(liveWSPongWait))
	})

	writeCh := make(chan liveWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(liveWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(liveWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(liveWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	var (
		liveID  string
		workers sync.WaitGroup
	)
	defer func() {
		if liveID != "" {
			_ = h.svc.Exit(liveID)
		}
		cancel()
		workers.Wait()
		<-writerDone
	}()

	// run executes a generation call off the reader loop and reports
	// anything other than generation failures, which arrive as events.
	run := func(fn func() error) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := fn(); err != nil && !interview.IsGenerationFailure(err) && !errors.Is(err, orchestrator.ErrCancelled) {
				pushLiveWS(writeCh, errorOutbound(err))
			}
		}()
	}

	for {
		var in liveWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		msgType := strings.ToLower(strings.TrimSpace(in.Type))
		if msgType == "" {
			pushLiveWS(writeCh, liveWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
			continue
		}
		if msgType != "ping" && msgType != "start" && liveID == "" {
			pushLiveWS(writeCh, liveWSOutbound{Type: "error", Code: "failed_precondition", Message: "interview not started"})
			continue
		}

		switch msgType {
		case "ping":
			pushLiveWS(writeCh, liveWSOutbound{Type: "pong"})
		case "start":
			if liveID != "" {
				pushLiveWS(writeCh, liveWSOutbound{Type: "error", Code: "failed_precondition", Message: orchestrator.ErrAlreadyStarted.Error()})
				continue
			}
			id, err := h.svc.Open(ctx, live.StartInput{
				Topic:      in.Topic,
				ResumeText: in.ResumeText,
				ResumeID:   in.ResumeID,
				TurnLimit:  in.TurnLimit,
			})
			if err != nil {
				pushLiveWS(writeCh, errorOutbound(err))
				continue
			}
			events, err := h.svc.Subscribe(ctx, id)
			if err != nil {
				pushLiveWS(writeCh, errorOutbound(err))
				continue
			}
			liveID = id
			pushLiveWS(writeCh, liveWSOutbound{Type: "started", LiveID: id})
			workers.Add(1)
			go func() {
				defer workers.Done()
				forwardLiveEvents(ctx, id, events, writeCh)
			}()
			run(func() error {
				_, err := h.svc.Begin(ctx, id)
				return err
			})
		case "answer":
			id, answer := liveID, in.Answer
			run(func() error {
				_, err := h.svc.Answer(ctx, id, answer)
				return err
			})
		case "next":
			id := liveID
			run(func() error {
				_, err := h.svc.Next(ctx, id)
				return err
			})
		case "report":
			id := liveID
			run(func() error {
				_, err := h.svc.Report(ctx, id)
				return err
			})
		case "frame":
			if in.Frame == nil {
				pushLiveWS(writeCh, liveWSOutbound{Type: "error", Code: "invalid_argument", Message: "frame is required"})
				continue
			}
			if _, _, err := h.svc.Perceive(liveID, interview.PerceptionFrame{
				FaceCount: in.Frame.FaceCount,
				Emotion:   in.Frame.Emotion,
				Attention: in.Frame.Attention,
				Posture:   in.Frame.Posture,
			}); err != nil {
				pushLiveWS(writeCh, errorOutbound(err))
			}
		case "media_error":
			if err := h.svc.MediaFailure(liveID, in.Message); err != nil {
				pushLiveWS(writeCh, errorOutbound(err))
			}
		case "exit":
			if err := h.svc.Exit(liveID); err != nil {
				pushLiveWS(writeCh, errorOutbound(err))
			}
			liveID = ""
			pushLiveWS(writeCh, liveWSOutbound{Type: "state", State: &orchestrator.Snapshot{State: orchestrator.StateIdle}})
		default:
			pushLiveWS(writeCh, liveWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + msgType})
		}
	}
}

func forwardLiveEvents(ctx context.Context, id string, events <-chan *live.Event, writeCh chan liveWSOutbound) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case live.EventState:
				pushLiveWS(writeCh, liveWSOutbound{Type: "state", LiveID: id, State: ev.Snapshot})
			case live.EventQuestion:
				if ev.Error != "" {
					pushLiveWS(writeCh, liveWSOutbound{Type: "error", LiveID: id, Code: "unavailable", Message: ev.Text})
					continue
				}
				pushLiveWS(writeCh, liveWSOutbound{Type: "question", LiveID: id, Question: ev.Text})
			case live.EventFeedback:
				fb := ev.Text
				pushLiveWS(writeCh, liveWSOutbound{Type: "feedback", LiveID: id, Feedback: &fb})
			case live.EventReport:
				if ev.Error != "" {
					pushLiveWS(writeCh, liveWSOutbound{Type: "error", LiveID: id, Code: "unavailable", Message: ev.Text})
					continue
				}
				pushLiveWS(writeCh, liveWSOutbound{Type: "report", LiveID: id, Report: ev.Text})
			}
		}
	}
}

func errorOutbound(err error) liveWSOutbound {
	_, code := handler.Classify(err)
	return liveWSOutbound{Type: "error", Code: code, Message: err.Error()}
}

func pushLiveWS(writeCh chan liveWSOutbound, out liveWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
