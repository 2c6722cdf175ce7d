package live

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"

	"interviewprep/internal/interview"
	"interviewprep/internal/interview/engagement"
	"interviewprep/internal/interview/orchestrator"
	"interviewprep/internal/interview/prompt"
	"interviewprep/internal/interview/sanitize"
	"interviewprep/internal/llm"
)

type QuestionInput struct {
	Topic           string   `json:"topic"`
	PreviousAnswers []string `json:"previousAnswers"`
	ResumeText      string   `json:"resumeText"`
}

// FaceAnalysis is the client-side engagement summary. It is used when no
// engagement log accompanies a report request.
type FaceAnalysis struct {
	DominantEmotion     interview.Emotion `json:"dominantEmotion"`
	AttentionPercentage float64           `json:"attentionPercentage"`
}

type EngagementAnalysis struct {
	FaceAnalysis  *FaceAnalysis                `json:"faceAnalysis,omitempty"`
	EngagementLog []interview.EngagementSample `json:"engagementLog"`
}

type ReportInput struct {
	Topic              string             `json:"topic"`
	QAPairs            []interview.QAPair `json:"qaPairs"`
	EngagementAnalysis EngagementAnalysis `json:"engagementAnalysis"`
}

// GenerateQuestion generates one interview question outside of any live interview.
func (s *Service) GenerateQuestion(ctx context.Context, in QuestionInput) (string, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return "", interview.Validationf("topic is required")
	}
	answers := make([]string, 0, len(in.PreviousAnswers))
	for _, a := range in.PreviousAnswers {
		if a = strings.TrimSpace(a); a != "" {
			answers = append(answers, a)
		}
	}
	resumeText := strings.TrimSpace(in.ResumeText)
	kind := orchestrator.PickContext(rand.IntN, resumeText, topic, answers)

	raw, err := s.gen.GenerateText(llm.WithPhase(ctx, llm.PhaseQuestion), prompt.Question(kind, topic, resumeText, answers))
	if err != nil {
		return "", interview.Upstream(err)
	}
	return sanitize.Question(raw)
}

// GenerateReport generates a performance report from a finished transcript.
func (s *Service) GenerateReport(ctx context.Context, in ReportInput) (string, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return "", interview.Validationf("topic is required")
	}
	if len(in.QAPairs) == 0 {
		return "", interview.Validationf("qaPairs are required")
	}
	digest := engagement.Digest(summarizeAnalysis(in.EngagementAnalysis))

	raw, err := s.gen.GenerateText(llm.WithPhase(ctx, llm.PhaseReport), prompt.Report(topic, in.QAPairs, digest))
	if err != nil {
		return "", interview.Upstream(err)
	}
	return sanitize.Report(raw)
}

func summarizeAnalysis(a EngagementAnalysis) engagement.Summary {
	if len(a.EngagementLog) > 0 || a.FaceAnalysis == nil {
		return engagement.Summarize(a.EngagementLog)
	}
	pct := math.Max(0, math.Min(100, a.FaceAnalysis.AttentionPercentage))
	return engagement.Summary{
		DominantEmotion:     a.FaceAnalysis.DominantEmotion,
		AttentionPercentage: math.Round(pct*10) / 10,
	}
}
