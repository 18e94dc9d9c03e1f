package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/ielts-coach/internal/app"
	"github.com/abhisek/ielts-coach/internal/logging"
	"github.com/abhisek/ielts-coach/internal/recorder"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Practise in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func init() {
	addPracticeFlags(playCmd)
	playCmd.Flags().String("save-dir", "", "Directory recordings are saved to (default: working directory)")
}

// runPlay builds the practice machine and launches the TUI. The terminal
// belongs to the UI, so logs always go to a file.
func runPlay(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Log.File == "" {
		if cfg.Log.File, err = defaultLogFile(); err != nil {
			return fmt.Errorf("resolve log file: %w", err)
		}
	}
	log, err := newLogger(cfg, logging.FormatConsole)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	provider, err := newProvider(ctx, cfg, st, log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	eval, err := newEvaluator(cfg, provider, log)
	if err != nil {
		return err
	}
	bank, err := questionBank(cfg)
	if err != nil {
		return err
	}

	artifacts, err := recorder.NewFileStore(cfg.Recording.Dir)
	if err != nil {
		return err
	}
	mic := recorder.ExecMicrophone{
		FFmpegPath:  cfg.Recording.FFmpegPath,
		InputFormat: cfg.Recording.InputFormat,
		Device:      cfg.Recording.Device,
	}
	machine, err := newMachine(cfg, bank, eval, func() *recorder.Recorder {
		return recorder.New(mic, artifacts, log)
	}, log)
	if err != nil {
		return err
	}
	defer machine.Close()

	saveDir, _ := cmd.Flags().GetString("save-dir")
	log.Info("starting terminal UI",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", provider.ModelID()),
		zap.Int("questions", bank.Len()),
		zap.Duration("duration", cfg.Practice.Duration),
		zap.String("recordings", artifacts.Dir()),
	)

	return app.Run(app.Options{
		Machine: machine,
		Info:    homeInfo(bank, cfg, provider),
		SaveDir: saveDir,
	})
}
