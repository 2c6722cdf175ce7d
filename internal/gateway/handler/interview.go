package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"interviewprep/internal/gateway/service/live"
	"interviewprep/internal/gateway/service/resume"
	"interviewprep/internal/interview"
)

const resumeFormField = "resume"

// InterviewHandler serves resume upload and the stateless interview calls.
type InterviewHandler struct {
	live    *live.Service
	resumes *resume.Service
}

func NewInterviewHandler(liveSvc *live.Service, resumes *resume.Service) *InterviewHandler {
	return &InterviewHandler{live: liveSvc, resumes: resumes}
}

func (h *InterviewHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/interview").Subrouter()
	api.HandleFunc("/upload-resume", h.HandleUploadResume).Methods(http.MethodPost)
	api.HandleFunc("/question", h.HandleQuestion).Methods(http.MethodPost)
	api.HandleFunc("/report", h.HandleReport).Methods(http.MethodPost)
}

func (h *InterviewHandler) HandleUploadResume(w http.ResponseWriter, r *http.Request) {
	limit := h.resumes.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+64*1024)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, interview.Validationf("resume exceeds %d bytes", limit), "")
			return
		}
		writeError(w, r, interview.Validationf("invalid multipart form: %v", err), "")
		return
	}
	file, header, err := r.FormFile(resumeFormField)
	if err != nil {
		writeError(w, r, interview.Validationf("%s file is required", resumeFormField), "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	out, err := h.resumes.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         out.ID,
		"resumeText": out.Text,
		"url":        out.URL,
	})
}

func (h *InterviewHandler) HandleQuestion(w http.ResponseWriter, r *http.Request) {
	var in live.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	q, err := h.live.GenerateQuestion(r.Context(), in)
	if err != nil {
		writeError(w, r, err, interview.QuestionFailureText)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"question": q})
}

func (h *InterviewHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var in live.ReportInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	report, err := h.live.GenerateReport(r.Context(), in)
	if err != nil {
		writeError(w, r, err, interview.ReportFailureText)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"report": report})
}
