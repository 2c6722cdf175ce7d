package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// Console is a terminal-backed Engine: speaking prints the text, capturing
// reads one line. It is used by the rehearse command.
type Console struct {
	out io.Writer

	mu    sync.Mutex
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{out: out, lines: make(chan lineResult)}
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			c.lines <- lineResult{text: sc.Text()}
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		c.lines <- lineResult{err: err}
		close(c.lines)
	}()
	return c
}

func (c *Console) Speak(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "\nInterviewer: %s\n", text)
	return err
}

func (c *Console) Capture(ctx context.Context) (string, error) {
	c.mu.Lock()
	_, _ = fmt.Fprint(c.out, "You: ")
	c.mu.Unlock()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return res.text, res.err
	}
}
