package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"interviewprep/internal/gateway/service/prep"
	"interviewprep/internal/interview"
)

const (
	batchFailureText       = "Failed to generate questions. Please try again."
	explanationFailureText = "Failed to generate explanation. Please try again."
)

// SessionHandler serves prep session, question and AI helper routes.
type SessionHandler struct {
	svc *prep.Service
}

func NewSessionHandler(svc *prep.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Register mounts the handler on r.
func (h *SessionHandler) Register(r *mux.Router) {
	sessions := r.PathPrefix("/api/sessions").Subrouter()
	sessions.HandleFunc("/create", h.HandleCreate).Methods(http.MethodPost)
	sessions.HandleFunc("/my-sessions", h.HandleList).Methods(http.MethodGet)
	sessions.HandleFunc("/{id}", h.HandleGet).Methods(http.MethodGet)
	sessions.HandleFunc("/{id}", h.HandleDelete).Methods(http.MethodDelete)
	sessions.HandleFunc("/{id}/load-more", h.HandleLoadMore).Methods(http.MethodPost)

	questions := r.PathPrefix("/api/questions").Subrouter()
	questions.HandleFunc("/add", h.HandleAddQuestions).Methods(http.MethodPost)
	questions.HandleFunc("/{id}/pin", h.HandleTogglePin).Methods(http.MethodPost)

	ai := r.PathPrefix("/api/ai").Subrouter()
	ai.HandleFunc("/generate-questions", h.HandleGenerateQuestions).Methods(http.MethodPost)
	ai.HandleFunc("/generate-explanation", h.HandleGenerateExplanation).Methods(http.MethodPost)
}

type createSessionRequest struct {
	Role              string `json:"role"`
	Experience        string `json:"experience"`
	TopicsToFocus     string `json:"topicsToFocus"`
	Description       string `json:"description"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
}

func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createSessionRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	sess, err := h.svc.Create(r.Context(), prep.CreateInput{
		Role:              in.Role,
		Experience:        in.Experience,
		Topics:            interview.SplitTopics(in.TopicsToFocus),
		Description:       in.Description,
		NumberOfQuestions: in.NumberOfQuestions,
	})
	if err != nil {
		writeError(w, r, err, batchFailureText)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "session": sess})
}

func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	if sessions == nil {
		sessions = []interview.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": sess})
}

func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Session deleted successfully"})
}

func (h *SessionHandler) HandleLoadMore(w http.ResponseWriter, r *http.Request) {
	var in struct {
		NumberOfQuestions int `json:"numberOfQuestions"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err, "")
			return
		}
	}
	sess, err := h.svc.LoadMore(r.Context(), mux.Vars(r)["id"], in.NumberOfQuestions)
	if err != nil {
		writeError(w, r, err, batchFailureText)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": sess})
}

func (h *SessionHandler) HandleAddQuestions(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SessionID string             `json:"sessionId"`
		Questions []interview.QAPair `json:"questions"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	sess, err := h.svc.AddQuestions(r.Context(), in.SessionID, in.Questions)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, sess.Questions)
}

func (h *SessionHandler) HandleTogglePin(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.TogglePin(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "question": q})
}

type generateQuestionsRequest struct {
	Role              string `json:"role"`
	Experience        string `json:"experience"`
	TopicsToFocus     string `json:"topicsToFocus"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
}

func (h *SessionHandler) HandleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var in generateQuestionsRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	pairs, err := h.svc.GenerateBatch(r.Context(), in.Role, in.Experience, interview.SplitTopics(in.TopicsToFocus), in.NumberOfQuestions)
	if err != nil {
		writeError(w, r, err, batchFailureText)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

func (h *SessionHandler) HandleGenerateExplanation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Question string `json:"question"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	exp, err := h.svc.Explain(r.Context(), strings.TrimSpace(in.Question))
	if err != nil {
		writeError(w, r, err, explanationFailureText)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}
