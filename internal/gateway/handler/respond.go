package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"interviewprep/internal/interview"
	"interviewprep/internal/interview/orchestrator"
	"interviewprep/internal/observability"
)

const maxJSONBody = 1 << 20

// ErrorBody is the JSON shape of every REST error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Classify maps a service error onto an HTTP status and a wire code.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, interview.ErrValidation):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, interview.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, orchestrator.ErrRequestInFlight),
		errors.Is(err, orchestrator.ErrReportNotEligible),
		errors.Is(err, orchestrator.ErrNotStarted),
		errors.Is(err, orchestrator.ErrAlreadyStarted),
		errors.Is(err, orchestrator.ErrNoCurrentQuestion),
		errors.Is(err, orchestrator.ErrTurnLimitReached),
		errors.Is(err, orchestrator.ErrCancelled):
		return http.StatusConflict, "failed_precondition"
	case interview.IsGenerationFailure(err):
		return http.StatusBadGateway, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err. failureText replaces the message for generation
// failures so clients can show it verbatim.
func writeError(w http.ResponseWriter, r *http.Request, err error, failureText string) {
	status, code := Classify(err)
	body := ErrorBody{Code: code, Message: err.Error()}
	if code == "unavailable" && failureText != "" {
		body.Message = failureText
		body.Error = err.Error()
	}
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return interview.Validationf("invalid json body: %v", err)
	}
	return nil
}
