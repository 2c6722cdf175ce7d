package speech

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewprep/internal/interview"
)

type countingEngine struct {
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (c *countingEngine) enter() {
	n := c.active.Add(1)
	for {
		m := c.maxSeen.Load()
		if n <= m || c.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	c.active.Add(-1)
}

func (c *countingEngine) Speak(context.Context, string) error { c.enter(); return nil }
func (c *countingEngine) Capture(context.Context) (string, error) {
	c.enter()
	return " answer ", nil
}

func TestExclusiveSerialisesEngineAccess(t *testing.T) {
	eng := &countingEngine{}
	ex := NewExclusive(eng)
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = ex.Speak(context.Background(), "hello")
			got, err := ex.Capture(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "answer", got)
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	assert.Equal(t, int32(1), eng.maxSeen.Load())
}

func TestUnsupportedEngine(t *testing.T) {
	ex := NewExclusive(nil)
	err := ex.Speak(context.Background(), "hi")
	require.ErrorIs(t, err, interview.ErrUnsupportedCapability)
	_, err = ex.Capture(context.Background())
	require.ErrorIs(t, err, interview.ErrUnsupportedCapability)
}

func TestStopCancelsCapture(t *testing.T) {
	blocking := &blockingEngine{started: make(chan struct{})}
	ex := NewExclusive(blocking)
	errCh := make(chan error, 1)
	go func() {
		_, err := ex.Capture(context.Background())
		errCh <- err
	}()
	<-blocking.started
	ex.Stop()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatalf("Capture() did not return after Stop")
	}
}

type blockingEngine struct{ started chan struct{} }

func (b *blockingEngine) Speak(context.Context, string) error { return nil }
func (b *blockingEngine) Capture(ctx context.Context) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestConsoleSpeakAndCapture(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("I use connection pooling\n"), &out)
	require.NoError(t, c.Speak(context.Background(), "How do you scale reads?"))
	got, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "I use connection pooling", got)
	assert.Contains(t, out.String(), "Interviewer: How do you scale reads?")
}
