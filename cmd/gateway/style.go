package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"interviewprep/internal/interview/speech"
)

var (
	speakerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	reportStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(1, 2)
)

// wrapWidth is the terminal width minus a margin, or 80 when stdout is not
// a terminal.
func wrapWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 20 {
		return 80
	}
	return w - 6
}

// styledConsole renders the interviewer's lines with wrapping and colour and
// leaves answer capture to the plain console.
type styledConsole struct {
	*speech.Console
	out   io.Writer
	width int
	mu    sync.Mutex
}

func newStyledConsole(in io.Reader, out io.Writer) *styledConsole {
	return &styledConsole{Console: speech.NewConsole(in, io.Discard), out: out, width: wrapWidth()}
}

func (c *styledConsole) Speak(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "\n%s %s\n", speakerStyle.Render("Interviewer:"), wordwrap.String(text, c.width))
	return err
}

func (c *styledConsole) Capture(ctx context.Context) (string, error) {
	c.mu.Lock()
	_, _ = fmt.Fprint(c.out, promptStyle.Render("You: "))
	c.mu.Unlock()
	return c.Console.Capture(ctx)
}

func renderReport(report string, width int) string {
	return reportStyle.Render(wordwrap.String(report, width-4))
}
