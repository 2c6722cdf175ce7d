// Package engagement reduces perception samples into the summary that feeds
// the performance report prompt.
package engagement

import (
	"fmt"
	"math"
	"strings"

	"interviewprep/internal/interview"
)

// Summary is the reduction of an engagement log. DominantEmotion is empty
// when there were no samples.
type Summary struct {
	DominantEmotion     interview.Emotion `json:"dominantEmotion,omitempty"`
	AttentionPercentage float64           `json:"attentionPercentage"`
	Samples             int               `json:"samples"`
}

// Summarize computes the dominant emotion (mode, ties to the first emotion
// encountered) and the focused share of samples rounded to one decimal.
// An empty log yields no emotion and 0%.
func Summarize(samples []interview.EngagementSample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	counts := make(map[interview.Emotion]int, 8)
	order := make([]interview.Emotion, 0, 8)
	focused := 0
	for _, s := range samples {
		if _, ok := counts[s.Emotion]; !ok {
			order = append(order, s.Emotion)
		}
		counts[s.Emotion]++
		if s.Attention == interview.AttentionFocused {
			focused++
		}
	}
	var dominant interview.Emotion
	best := 0
	for _, e := range order {
		if counts[e] > best {
			dominant, best = e, counts[e]
		}
	}
	pct := 100 * float64(focused) / float64(len(samples))
	return Summary{
		DominantEmotion:     dominant,
		AttentionPercentage: math.Round(pct*10) / 10,
		Samples:             len(samples),
	}
}

// EyeContact rates the attention percentage.
func EyeContact(pct float64) string {
	switch {
	case pct > 80:
		return "Excellent"
	case pct > 60:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// Digest renders the summary block embedded in the report prompt.
func Digest(s Summary) string {
	emotion := string(s.DominantEmotion)
	if emotion == "" {
		emotion = "Neutral"
	}
	var b strings.Builder
	b.WriteString("Engagement Analysis:\n")
	fmt.Fprintf(&b, "- Dominant Emotion: %s\n", emotion)
	fmt.Fprintf(&b, "- Attention Level: %.1f%% focused during interview\n", s.AttentionPercentage)
	fmt.Fprintf(&b, "- Eye Contact: %s", EyeContact(s.AttentionPercentage))
	return b.String()
}
