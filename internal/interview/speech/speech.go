// Package speech models the process-wide text-to-speech / speech-to-text
// capability. The orchestrator never owns an engine; callers signal
// "speak this" or "capture until stop" through an Exclusive gate.
package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"interviewprep/internal/interview"
)

// Engine is the narrow capability a platform speech backend provides.
type Engine interface {
	Speak(ctx context.Context, text string) error
	// Capture records until silence, stop, or ctx is done and returns the
	// recognised transcript.
	Capture(ctx context.Context) (string, error)
}

// Unsupported is an Engine for runtimes without speech support.
type Unsupported struct{}

func (Unsupported) Speak(context.Context, string) error {
	return fmt.Errorf("%w: speech synthesis", interview.ErrUnsupportedCapability)
}

func (Unsupported) Capture(context.Context) (string, error) {
	return "", fmt.Errorf("%w: speech recognition", interview.ErrUnsupportedCapability)
}

// Exclusive serialises access to a single Engine: at most one utterance or
// capture runs at a time across the process.
type Exclusive struct {
	engine Engine
	slot   chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewExclusive(engine Engine) *Exclusive {
	if engine == nil {
		engine = Unsupported{}
	}
	return &Exclusive{engine: engine, slot: make(chan struct{}, 1)}
}

func (e *Exclusive) acquire(ctx context.Context) (context.Context, func(), error) {
	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	release := func() {
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
		cancel()
		<-e.slot
	}
	return runCtx, release, nil
}

// Speak waits for the engine, speaks text and releases it.
func (e *Exclusive) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runCtx, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return e.engine.Speak(runCtx, text)
}

// Capture waits for the engine and records one answer.
func (e *Exclusive) Capture(ctx context.Context) (string, error) {
	runCtx, release, err := e.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	text, err := e.engine.Capture(runCtx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Stop interrupts whatever utterance or capture currently holds the engine.
func (e *Exclusive) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
