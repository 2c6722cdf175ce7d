package interview

import (
	"strings"
	"time"
)

// DefaultTurnLimit is the number of answered turns after which a live
// interview becomes eligible for a performance report.
const DefaultTurnLimit = 6

// DefaultQuestionCount is how many question/answer pairs seed a new session.
const DefaultQuestionCount = 6

// ContextKind is the signal used to ground the next generated question.
type ContextKind string

const (
	ContextResume   ContextKind = "resume"
	ContextTopic    ContextKind = "topic"
	ContextPrevious ContextKind = "previous"
)

type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionFearful   Emotion = "fearful"
	EmotionDisgusted Emotion = "disgusted"
)

type Attention string

const (
	AttentionFocused    Attention = "focused"
	AttentionNotFocused Attention = "not_focused"
)

type Posture string

const (
	PostureUpright   Posture = "upright"
	PostureSlouching Posture = "slouching"
	PostureUnknown   Posture = "unknown"
)

// QAPair is a generated or answered question/answer pair.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Explanation is the structured result of a concept explanation request.
type Explanation struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// Turn is one question-then-answer exchange of a live interview.
// Answer is set once; Answered distinguishes an empty answer from none.
type Turn struct {
	Question          string      `json:"question"`
	Answer            string      `json:"answer,omitempty"`
	Answered          bool        `json:"answered"`
	Context           ContextKind `json:"context"`
	ResumeContextUsed bool        `json:"resumeContextUsed"`
}

// EngagementSample is one perception snapshot attributed to the question
// that was current when it was taken.
type EngagementSample struct {
	Question        string    `json:"question"`
	Emotion         Emotion   `json:"emotion"`
	Attention       Attention `json:"attention"`
	Posture         Posture   `json:"posture"`
	TimestampMillis int64     `json:"timestamp"`
}

// PerceptionFrame is what the face/pose engine reports on its own cadence.
type PerceptionFrame struct {
	FaceCount int       `json:"faceCount"`
	Emotion   Emotion   `json:"emotion,omitempty"`
	Attention Attention `json:"attention,omitempty"`
	Posture   Posture   `json:"posture,omitempty"`
}

// Usable reports whether the frame may be logged as an engagement sample.
func (f PerceptionFrame) Usable() bool {
	return f.FaceCount == 1
}

// Feedback returns the live coaching message for the frame, or "" when
// nothing needs correcting.
func (f PerceptionFrame) Feedback() string {
	switch {
	case f.FaceCount <= 0:
		return "No face detected. Please stay in view of the camera."
	case f.FaceCount > 1:
		return "Multiple faces detected! Please ensure only you are in the frame."
	case f.Attention == AttentionNotFocused:
		return "Please stay focused on the interview."
	case f.Posture == PostureSlouching:
		return "Try to sit upright for a confident posture."
	default:
		return ""
	}
}

// Sample converts a usable frame into an engagement sample.
func (f PerceptionFrame) Sample(question string, at time.Time) EngagementSample {
	emotion := f.Emotion
	if emotion == "" {
		emotion = EmotionNeutral
	}
	posture := f.Posture
	if posture == "" {
		posture = PostureUnknown
	}
	return EngagementSample{
		Question:        question,
		Emotion:         emotion,
		Attention:       f.Attention,
		Posture:         posture,
		TimestampMillis: at.UnixMilli(),
	}
}

// NormalizeTopics trims, drops empties and de-duplicates while keeping order.
func NormalizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTopics parses the comma separated "topics to focus" form field.
func SplitTopics(raw string) []string {
	return NormalizeTopics(strings.Split(raw, ","))
}
