package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/ielts-coach/internal/logging"
	"github.com/abhisek/ielts-coach/internal/recorder"
	"github.com/abhisek/ielts-coach/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Practise in a browser",
	Long: `Serve the practice page and its API over HTTP.

The browser records audio with MediaRecorder and streams it to the server;
recordings live in memory and disappear when a new question starts.`,
	RunE: runServe,
}

func init() {
	addPracticeFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	log, err := newLogger(cfg, logging.FormatJSON)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	mic := recorder.NewPushMicrophone()
	artifacts := recorder.NewMemoryStore(web.RecordingsPrefix)
	machine, err := newMachine(cfg, bank, eval, func() *recorder.Recorder {
		return recorder.New(mic, artifacts, log)
	}, log)
	if err != nil {
		return err
	}

	srv := web.New(machine, mic, artifacts, web.Config{
		Addr:           cfg.Server.Addr,
		RateLimit:      cfg.Server.RateLimit,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, log)

	log.Info("starting web server",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", provider.ModelID()),
		zap.Int("questions", bank.Len()),
	)
	fmt.Fprintf(cmd.ErrOrStderr(), "Practice at http://%s\n", cfg.Server.Addr)
	return srv.ListenAndServe(ctx)
}
