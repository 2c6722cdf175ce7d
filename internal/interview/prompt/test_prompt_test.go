package prompt

import (
	"strings"
	"testing"

	"interviewprep/internal/interview"
)

func TestQuestionDispatchesOnContextKind(t *testing.T) {
	resume := Question(interview.ContextResume, "Backend Engineer", "Built a Kafka pipeline", nil)
	if !strings.Contains(resume, "Built a Kafka pipeline") {
		t.Fatalf("resume prompt missing resume text: %q", resume)
	}
	if !strings.Contains(resume, "Do NOT ask about things not present in the resume.") {
		t.Fatalf("resume prompt missing grounding constraint")
	}

	prev := Question(interview.ContextPrevious, "Backend Engineer", "", []string{"first", "I use connection pooling"})
	if !strings.Contains(prev, `"I use connection pooling"`) {
		t.Fatalf("follow-up prompt should quote the latest answer: %q", prev)
	}
	if strings.Contains(prev, "first") {
		t.Fatalf("follow-up prompt should only use the latest answer")
	}

	topic := Question(interview.ContextTopic, "Backend Engineer", "ignored", []string{"ignored"})
	if strings.Contains(topic, "ignored") {
		t.Fatalf("topic prompt must not include other context: %q", topic)
	}
	for _, p := range []string{resume, prev, topic} {
		if !strings.HasPrefix(p, "You are a highly experienced technical interviewer for a Backend Engineer position.") {
			t.Fatalf("prompt missing interviewer preamble: %q", p)
		}
		if !strings.HasSuffix(p, "Only output the question, nothing else.") {
			t.Fatalf("prompt missing output contract: %q", p)
		}
	}
}

func TestTranscriptDigest(t *testing.T) {
	got := TranscriptDigest([]interview.QAPair{
		{Question: "What is a goroutine?", Answer: "A lightweight thread."},
		{Question: "And a channel?", Answer: "A typed conduit."},
	})
	want := "Q1: What is a goroutine?\nA1: A lightweight thread.\nQ2: And a channel?\nA2: A typed conduit."
	if got != want {
		t.Fatalf("TranscriptDigest() = %q, want %q", got, want)
	}
}

func TestReportIncludesDigestsAndSections(t *testing.T) {
	pairs := []interview.QAPair{{Question: "Q", Answer: "A"}}
	p := Report("SRE", pairs, "Engagement Analysis:\n- Dominant Emotion: happy")
	for _, want := range []string{
		"for a SRE position",
		"Q1: Q\nA1: A",
		"- Dominant Emotion: happy",
		"5. Clear recommendation",
		"Only output the report, nothing else.",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("report prompt missing %q", want)
		}
	}
}

func TestQuestionBatchMentionsCountAndTopics(t *testing.T) {
	p := QuestionBatch("Frontend Developer", "2", []string{"React", "CSS"}, 6)
	if !strings.Contains(p, "Write 6 interview questions.") {
		t.Fatalf("missing count: %q", p)
	}
	if !strings.Contains(p, "Focus Topics: React, CSS") {
		t.Fatalf("missing topics: %q", p)
	}
}

func TestFollowUpKeepsAnswerVerbatim(t *testing.T) {
	answer := "I'd say \"it depends\".\nThen I'd measure it."
	p := FollowUpQuestion("SRE", answer)
	want := "The candidate previously answered: \"" + answer + "\".\n"
	if !strings.Contains(p, want) {
		t.Fatalf("answer was rewritten in prompt: %q", p)
	}
	if strings.Contains(p, `\n`) || strings.Contains(p, `\"`) {
		t.Fatalf("answer was escaped in prompt: %q", p)
	}
}
