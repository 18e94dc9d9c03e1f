package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/ielts-coach/internal/questions"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Browse the question bank",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all questions (optionally filtered by part)",
	RunE: func(cmd *cobra.Command, args []string) error {
		partVal, _ := cmd.Flags().GetString("part")

		qs := questions.Default().All()
		if partVal != "" {
			part, err := questions.ParsePart(partVal)
			if err != nil {
				return err
			}
			qs = questions.Default().ByPart(part)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-4s  %-7s  %s\n", "#", "Part", "Question")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for i, q := range qs {
			fmt.Fprintf(out, "%-4d  %-7s  %s\n", i+1, q.Part, q.Text)
		}

		fmt.Fprintf(out, "\n%d questions\n", len(qs))
		return nil
	},
}

func init() {
	questionsListCmd.Flags().String("part", "", `Filter by part ("1" or "3")`)

	questionsCmd.AddCommand(questionsListCmd)
}
