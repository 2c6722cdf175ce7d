package engagement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"interviewprep/internal/interview"
)

func sample(e interview.Emotion, a interview.Attention) interview.EngagementSample {
	return interview.EngagementSample{Question: "q", Emotion: e, Attention: a}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	assert.Equal(t, interview.Emotion(""), got.DominantEmotion)
	assert.Equal(t, 0.0, got.AttentionPercentage)
	assert.Equal(t, 0, got.Samples)
	assert.Contains(t, Digest(got), "- Dominant Emotion: Neutral")
}

func TestSummarizeModeAndAttention(t *testing.T) {
	got := Summarize([]interview.EngagementSample{
		sample(interview.EmotionHappy, interview.AttentionFocused),
		sample(interview.EmotionHappy, interview.AttentionNotFocused),
		sample(interview.EmotionSad, interview.AttentionFocused),
	})
	assert.Equal(t, interview.EmotionHappy, got.DominantEmotion)
	assert.Equal(t, 66.7, got.AttentionPercentage)
	assert.Equal(t, 3, got.Samples)
}

func TestSummarizeTieGoesToFirstEncountered(t *testing.T) {
	got := Summarize([]interview.EngagementSample{
		sample(interview.EmotionSad, interview.AttentionFocused),
		sample(interview.EmotionHappy, interview.AttentionFocused),
		sample(interview.EmotionHappy, interview.AttentionFocused),
		sample(interview.EmotionSad, interview.AttentionFocused),
	})
	assert.Equal(t, interview.EmotionSad, got.DominantEmotion)
	assert.Equal(t, 100.0, got.AttentionPercentage)
}

func TestEyeContactBands(t *testing.T) {
	assert.Equal(t, "Excellent", EyeContact(80.1))
	assert.Equal(t, "Good", EyeContact(80))
	assert.Equal(t, "Good", EyeContact(60.1))
	assert.Equal(t, "Needs Improvement", EyeContact(60))
}

func TestDigestFormatting(t *testing.T) {
	d := Digest(Summary{DominantEmotion: interview.EmotionHappy, AttentionPercentage: 66.7, Samples: 3})
	lines := strings.Split(d, "\n")
	assert.Equal(t, []string{
		"Engagement Analysis:",
		"- Dominant Emotion: happy",
		"- Attention Level: 66.7% focused during interview",
		"- Eye Contact: Good",
	}, lines)
}
