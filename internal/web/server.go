// Package web serves the practice machine to a browser: a single page, a
// JSON API and a websocket pushing state snapshots.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/abhisek/ielts-coach/internal/practice"
	"github.com/abhisek/ielts-coach/internal/recorder"
)

//go:embed static
var staticFS embed.FS

// RecordingsPrefix is the URL prefix recordings are served under. Memory
// stores handed to New should use it.
const RecordingsPrefix = "/recordings/"

const (
	maxChunkBytes   = 8 << 20
	maxAnswerBytes  = 64 << 10
	shutdownTimeout = 5 * time.Second
)

type Config struct {
	Addr string
	// RateLimit is the number of API requests allowed per client IP per
	// minute. Zero disables limiting.
	RateLimit      int
	AllowedOrigins []string
}

// Server exposes one practice machine over HTTP.
type Server struct {
	machine *practice.Machine
	mic     *recorder.PushMicrophone
	store   recorder.ArtifactStore
	cfg     Config
	log     *zap.Logger

	upgrader websocket.Upgrader
	handler  http.Handler

	// evaluations started by submit; waited for on Close.
	wg sync.WaitGroup
}

// New creates a Server. mic receives the audio chunks posted by the page
// and store serves the finished recordings.
func New(machine *practice.Machine, mic *recorder.PushMicrophone, store recorder.ArtifactStore, cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		machine: machine,
		mic:     mic,
		store:   store,
		cfg:     cfg,
		log:     log.Named("web"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/", s.handleIndex)
	r.Get(RecordingsPrefix+"{id}", s.handleRecording)

	r.Route("/api", func(api chi.Router) {
		if s.cfg.RateLimit > 0 {
			api.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
		}
		api.Get("/session", s.handleSession)
		api.Post("/session/start", s.handleStart)
		api.Put("/session/answer", s.handleAnswer)
		api.Post("/session/submit", s.handleSubmit)
		api.Post("/session/reset", s.handleReset)
		api.Get("/session/events", s.handleEvents)

		api.Post("/recording/start", s.handleRecordingStart)
		api.Post("/recording/chunk", s.handleRecordingChunk)
		api.Post("/recording/stop", s.handleRecordingStop)
	})
	return r
}

// checkOrigin accepts same-origin websocket upgrades and, when configured,
// the allowed cross origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close closes the machine, which ends every websocket stream, and waits
// for running evaluations to return.
func (s *Server) Close() {
	s.machine.Close()
	s.wg.Wait()
}
