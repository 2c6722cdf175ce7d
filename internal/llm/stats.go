package llm

import (
	"context"
	"sync"
)

// PhaseCounts aggregates the generative calls made for one phase.
type PhaseCounts struct {
	Calls         int64 `json:"calls"`
	Failures      int64 `json:"failures"`
	PromptBytes   int64 `json:"promptBytes"`
	ResponseBytes int64 `json:"responseBytes"`
}

// PhaseStats is a PromptHook that counts calls per phase.
type PhaseStats struct {
	mu     sync.Mutex
	phases map[string]*PhaseCounts
}

var _ PromptHook = (*PhaseStats)(nil)

func NewPhaseStats() *PhaseStats {
	return &PhaseStats{phases: make(map[string]*PhaseCounts)}
}

func (s *PhaseStats) Before(_ context.Context, phase, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.countsLocked(phase)
	c.Calls++
	c.PromptBytes += int64(len(prompt))
}

func (s *PhaseStats) After(_ context.Context, phase, response string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.countsLocked(phase)
	if err != nil {
		c.Failures++
		return
	}
	c.ResponseBytes += int64(len(response))
}

// Snapshot returns a copy of the counters keyed by phase.
func (s *PhaseStats) Snapshot() map[string]PhaseCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]PhaseCounts, len(s.phases))
	for phase, c := range s.phases {
		out[phase] = *c
	}
	return out
}

func (s *PhaseStats) countsLocked(phase string) *PhaseCounts {
	c, ok := s.phases[phase]
	if !ok {
		c = &PhaseCounts{}
		s.phases[phase] = c
	}
	return c
}
