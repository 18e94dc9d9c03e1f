package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/ielts-coach/internal/evaluation"
	"github.com/abhisek/ielts-coach/internal/logging"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single answer (no database)",
	Long: `Score one answer and print the band, feedback and a sample answer.

This is a stateless tool: nothing is recorded in the diagnostics database.
The answer is read from --answer or, when that is empty, from stdin.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringP("question", "q", "", "The question that was answered (required)")
	evaluateCmd.Flags().StringP("answer", "a", "", "The answer to evaluate (default: read stdin)")
	evaluateCmd.Flags().Bool("json", false, "Print the result as JSON")
	_ = evaluateCmd.MarkFlagRequired("question")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	answer, _ := cmd.Flags().GetString("answer")
	asJSON, _ := cmd.Flags().GetBool("json")

	if answer == "" {
		if cmd.InOrStdin() == os.Stdin && stdinIsTerminal() {
			fmt.Fprintln(cmd.ErrOrStderr(), "Type your answer, then press Ctrl+D:")
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read answer: %w", err)
		}
		answer = string(data)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return errors.New("please provide an answer before submitting")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, logging.FormatConsole)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	provider, err := newProvider(cmd.Context(), cfg, nil, log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	eval, err := newEvaluator(cfg, provider, log)
	if err != nil {
		return err
	}

	res, err := eval.Evaluate(cmd.Context(), question, answer)
	if err != nil {
		if errors.Is(err, evaluation.ErrFailed) {
			return errors.New(evaluation.FailureMessage)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(out, question, res)
	return nil
}

func printResult(w io.Writer, question string, res *evaluation.Result) {
	sep := strings.Repeat("─", 60)
	fmt.Fprintf(w, "Question:  %s\n", question)
	fmt.Fprintf(w, "Band:      %g\n", res.Band)
	fmt.Fprintln(w)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, "FEEDBACK")
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, res.Justification)
	fmt.Fprintln(w)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, "SAMPLE ANSWER")
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, res.SampleAnswer)
}

// stdinIsTerminal reports whether stdin is interactive, in which case
// reading it would wait for the user.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
