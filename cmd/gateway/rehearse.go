package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"interviewprep/internal/gateway/app"
	"interviewprep/internal/gateway/service/resume"
	"interviewprep/internal/interview"
	"interviewprep/internal/interview/orchestrator"
	"interviewprep/internal/interview/speech"
	"interviewprep/internal/observability"
)

var (
	rehearseTopic     string
	rehearseResume    string
	rehearseTurnLimit int
)

var rehearseCmd = &cobra.Command{
	Use:   "rehearse",
	Short: "Run a live interview in the terminal",
	Long: `rehearse asks generated questions on stdout and reads answers from
stdin, then prints the performance report. Submit an empty line to repeat
the current question; end input to exit.`,
	RunE: runRehearse,
}

func init() {
	rehearseCmd.Flags().StringVar(&rehearseTopic, "topic", "", "interview topic (required)")
	rehearseCmd.Flags().StringVar(&rehearseResume, "resume", "", "path to a PDF resume")
	rehearseCmd.Flags().IntVar(&rehearseTurnLimit, "turns", 0, "number of questions (default from config)")
}

func runRehearse(cmd *cobra.Command, _ []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Keep log lines out of the transcript.
	observability.SetOutput(io.Discard)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resumeText, err := readResume(rehearseResume)
	if err != nil {
		return err
	}
	gen, err := app.NewLLM(ctx, cfg)
	if err != nil {
		return err
	}
	defer gen.Close()

	turns := rehearseTurnLimit
	if turns <= 0 {
		turns = cfg.Interview.TurnLimit
	}
	out := cmd.OutOrStdout()
	console := newStyledConsole(cmd.InOrStdin(), out)
	voice := speech.NewExclusive(console)
	orch := orchestrator.New(gen)
	defer orch.Exit()

	question, err := recoverQuestion(ctx, out, voice, orch)(orch.Start(ctx, orchestrator.Config{
		Topic:      rehearseTopic,
		ResumeText: resumeText,
		TurnLimit:  turns,
	}))
	if err != nil {
		return ignoreEOF(err)
	}

	for question != "" {
		if err := voice.Speak(ctx, question); err != nil {
			return err
		}
		answer, err := voice.Capture(ctx)
		if err != nil {
			return ignoreEOF(err)
		}
		if strings.TrimSpace(answer) == "" {
			continue
		}
		next, err := recoverQuestion(ctx, out, voice, orch)(orch.SubmitAnswer(ctx, answer))
		if err != nil {
			return ignoreEOF(err)
		}
		question = next
	}

	fmt.Fprintln(out, helperStyle.Render("\nGenerating your report..."))
	report, err := orch.GenerateReport(ctx)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render(report))
		return err
	}
	fmt.Fprintf(out, "\n%s\n", renderReport(report, console.width))
	return nil
}

// recoverQuestion returns a function that, on a generation failure, shows
// the failure text and asks again each time the user presses enter.
func recoverQuestion(ctx context.Context, out io.Writer, voice *speech.Exclusive, orch *orchestrator.Orchestrator) func(string, error) (string, error) {
	return func(question string, err error) (string, error) {
		for err != nil {
			if !interview.IsGenerationFailure(err) {
				return "", err
			}
			fmt.Fprintln(out, errorStyle.Render(question))
			fmt.Fprintln(out, helperStyle.Render("Press enter to retry."))
			if _, err := voice.Capture(ctx); err != nil {
				return "", err
			}
			question, err = orch.RequestNextQuestion(ctx)
		}
		return question, nil
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func readResume(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	return resume.ExtractText(data)
}
