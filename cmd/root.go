package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ielts-coach",
	Short: "IELTS speaking practice with band feedback",
	Long: `ielts-coach gives you a random IELTS Speaking Part 1 or Part 3 question,
three minutes to answer it and an estimated band score with a model answer.

Run without a subcommand to practise in the terminal, or use "serve" to
practise in a browser.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./ielts-coach.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to the SQLite diagnostics database (overrides store.path)")

	addPracticeFlags(rootCmd)

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
