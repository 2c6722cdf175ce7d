package orchestrator

import (
	"strings"

	"interviewprep/internal/interview"
)

// AvailableContexts lists the context kinds usable for the next question, in
// a fixed order: resume (if resume text is present), topic (if present),
// previous (if at least one answer exists).
func AvailableContexts(resumeText, topic string, previousAnswers []string) []interview.ContextKind {
	out := make([]interview.ContextKind, 0, 3)
	if strings.TrimSpace(resumeText) != "" {
		out = append(out, interview.ContextResume)
	}
	if strings.TrimSpace(topic) != "" {
		out = append(out, interview.ContextTopic)
	}
	if len(previousAnswers) > 0 {
		out = append(out, interview.ContextPrevious)
	}
	return out
}

// PickContext chooses uniformly among the available kinds using intn, which
// must return a value in [0, n). With nothing available it falls back to
// topic.
func PickContext(intn func(int) int, resumeText, topic string, previousAnswers []string) interview.ContextKind {
	options := AvailableContexts(resumeText, topic, previousAnswers)
	if len(options) == 0 {
		return interview.ContextTopic
	}
	return options[intn(len(options))]
}
