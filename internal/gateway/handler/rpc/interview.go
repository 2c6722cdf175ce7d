package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"interviewprep/internal/gateway/service/live"
	"interviewprep/internal/gateway/service/prep"
	"interviewprep/internal/interview"
	"interviewprep/internal/interview/orchestrator"
)

const (
	InterviewServiceName = "interviewprep.v1.InterviewService"

	GenerateQuestionProcedure      = "/" + InterviewServiceName + "/GenerateQuestion"
	GenerateReportProcedure        = "/" + InterviewServiceName + "/GenerateReport"
	GenerateQuestionBatchProcedure = "/" + InterviewServiceName + "/GenerateQuestionBatch"
	ExplainConceptProcedure        = "/" + InterviewServiceName + "/ExplainConcept"
)

type GenerateQuestionResponse struct {
	Question string `json:"question"`
}

type GenerateReportResponse struct {
	Report string `json:"report"`
}

type GenerateQuestionBatchRequest struct {
	Role              string   `json:"role"`
	Experience        string   `json:"experience"`
	TopicsToFocus     []string `json:"topicsToFocus"`
	NumberOfQuestions int      `json:"numberOfQuestions"`
}

type GenerateQuestionBatchResponse struct {
	Questions []interview.QAPair `json:"questions"`
}

type ExplainConceptRequest struct {
	Question string `json:"question"`
}

// InterviewHandler exposes the generation contracts over Connect.
type InterviewHandler struct {
	live *live.Service
	prep *prep.Service
}

func NewInterviewHandler(liveSvc *live.Service, prepSvc *prep.Service) *InterviewHandler {
	return &InterviewHandler{live: liveSvc, prep: prepSvc}
}

// NewInterviewServiceHandler builds the Connect handler and returns the
// path it should be mounted on.
func NewInterviewServiceHandler(h *InterviewHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GenerateQuestionProcedure, connect.NewUnaryHandler(GenerateQuestionProcedure, h.GenerateQuestion, opts...))
	mux.Handle(GenerateReportProcedure, connect.NewUnaryHandler(GenerateReportProcedure, h.GenerateReport, opts...))
	mux.Handle(GenerateQuestionBatchProcedure, connect.NewUnaryHandler(GenerateQuestionBatchProcedure, h.GenerateQuestionBatch, opts...))
	mux.Handle(ExplainConceptProcedure, connect.NewUnaryHandler(ExplainConceptProcedure, h.ExplainConcept, opts...))
	return "/" + InterviewServiceName + "/", mux
}

func (h *InterviewHandler) GenerateQuestion(ctx context.Context, req *connect.Request[live.QuestionInput]) (*connect.Response[GenerateQuestionResponse], error) {
	q, err := h.live.GenerateQuestion(ctx, *req.Msg)
	if err != nil {
		return nil, toInterviewError(err, interview.QuestionFailureText)
	}
	return connect.NewResponse(&GenerateQuestionResponse{Question: q}), nil
}

func (h *InterviewHandler) GenerateReport(ctx context.Context, req *connect.Request[live.ReportInput]) (*connect.Response[GenerateReportResponse], error) {
	report, err := h.live.GenerateReport(ctx, *req.Msg)
	if err != nil {
		return nil, toInterviewError(err, interview.ReportFailureText)
	}
	return connect.NewResponse(&GenerateReportResponse{Report: report}), nil
}

func (h *InterviewHandler) GenerateQuestionBatch(ctx context.Context, req *connect.Request[GenerateQuestionBatchRequest]) (*connect.Response[GenerateQuestionBatchResponse], error) {
	in := req.Msg
	pairs, err := h.prep.GenerateBatch(ctx, in.Role, in.Experience, in.TopicsToFocus, in.NumberOfQuestions)
	if err != nil {
		return nil, toInterviewError(err, "")
	}
	return connect.NewResponse(&GenerateQuestionBatchResponse{Questions: pairs}), nil
}

func (h *InterviewHandler) ExplainConcept(ctx context.Context, req *connect.Request[ExplainConceptRequest]) (*connect.Response[interview.Explanation], error) {
	exp, err := h.prep.Explain(ctx, strings.TrimSpace(req.Msg.Question))
	if err != nil {
		return nil, toInterviewError(err, "")
	}
	return connect.NewResponse(&exp), nil
}

func toInterviewError(err error, failureText string) error {
	switch {
	case errors.Is(err, interview.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, interview.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, orchestrator.ErrRequestInFlight), errors.Is(err, orchestrator.ErrReportNotEligible):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case interview.IsGenerationFailure(err):
		cerr := connect.NewError(connect.CodeUnavailable, err)
		if failureText != "" {
			cerr.Meta().Set("X-Failure-Text", failureText)
		}
		return cerr
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
