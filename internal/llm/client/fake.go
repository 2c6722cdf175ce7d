package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// FakeClient returns deterministic payloads shaped after the prompt for
// offline/local runs. Scripted responses, when queued, take precedence.
type FakeClient struct {
	mu      sync.Mutex
	script  []FakeResponse
	prompts []string
}

// FakeResponse is one queued reply; Err wins over Text.
type FakeResponse struct {
	Text string
	Err  error
}

func NewFakeClient(script ...FakeResponse) *FakeClient {
	return &FakeClient{script: append([]FakeResponse(nil), script...)}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

// Enqueue appends scripted replies.
func (f *FakeClient) Enqueue(rs ...FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, rs...)
}

// Prompts returns every prompt received so far.
func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *FakeClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	n := len(f.prompts)
	if len(f.script) > 0 {
		r := f.script[0]
		f.script = f.script[1:]
		f.mu.Unlock()
		if r.Err != nil {
			return "", r.Err
		}
		return r.Text, nil
	}
	f.mu.Unlock()
	return fakeReply(prompt, n), nil
}

var questionCountRe = regexp.MustCompile(`Write (\d+) interview questions`)

func fakeReply(prompt string, seq int) string {
	switch {
	case strings.Contains(prompt, "Return a pure JSON array"):
		count := 1
		if m := questionCountRe.FindStringSubmatch(prompt); len(m) == 2 {
			if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
				count = v
			}
		}
		items := make([]map[string]string, 0, count)
		for i := 1; i <= count; i++ {
			items = append(items, map[string]string{
				"question": fmt.Sprintf("Sample question %d-%d?", seq, i),
				"answer":   fmt.Sprintf("Sample answer %d-%d.", seq, i),
			})
		}
		raw, _ := json.MarshalIndent(items, "", "  ")
		return "```json\n" + string(raw) + "\n```"
	case strings.Contains(prompt, `"explanation"`):
		return "```json\n{\"title\": \"Sample concept\", \"explanation\": \"A sample explanation.\"}\n```"
	case strings.Contains(prompt, "Only output the report"):
		return "Technical assessment: sample.\nRecommendation: proceed."
	default:
		return fmt.Sprintf("Sample interview question %d?", seq)
	}
}
