// Package sanitize cleans raw model output and parses it into the shapes the
// rest of the service expects.
package sanitize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"interviewprep/internal/interview"
)

var (
	leadingFence  = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?```$")
)

// StripCodeFence removes a leading ``` (optionally tagged json) and a
// trailing ``` from text, then trims surrounding whitespace.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func malformed(kind string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", interview.ErrMalformedResponse, kind)
	}
	return fmt.Errorf("%w: %s: %w", interview.ErrMalformedResponse, kind, cause)
}

// QuestionBatch parses an array of {question, answer}. Entries without a
// question are rejected rather than silently dropped.
func QuestionBatch(raw string) ([]interview.QAPair, error) {
	cleaned := StripCodeFence(raw)
	var out []interview.QAPair
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, malformed("question batch", err)
	}
	if len(out) == 0 {
		return nil, malformed("question batch is empty", nil)
	}
	for i := range out {
		out[i].Question = strings.TrimSpace(out[i].Question)
		out[i].Answer = strings.TrimSpace(out[i].Answer)
		if out[i].Question == "" {
			return nil, malformed(fmt.Sprintf("question batch item %d has no question", i), nil)
		}
	}
	return out, nil
}

// Explanation parses a {title, explanation} object.
func Explanation(raw string) (interview.Explanation, error) {
	cleaned := StripCodeFence(raw)
	var out interview.Explanation
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return interview.Explanation{}, malformed("explanation", err)
	}
	out.Title = strings.TrimSpace(out.Title)
	out.Explanation = strings.TrimSpace(out.Explanation)
	if out.Explanation == "" {
		return interview.Explanation{}, malformed("explanation is empty", nil)
	}
	return out, nil
}

// Question returns the question text verbatim, minus fences and a single
// pair of wrapping quotes.
func Question(raw string) (string, error) {
	s := StripCodeFence(raw)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	if s == "" {
		return "", malformed("question is empty", nil)
	}
	return s, nil
}

// Report returns the report narrative. Only emptiness is malformed.
func Report(raw string) (string, error) {
	s := StripCodeFence(raw)
	if s == "" {
		return "", malformed("report is empty", nil)
	}
	return s, nil
}
