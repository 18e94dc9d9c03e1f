package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/abhisek/ielts-coach/internal/practice"
	"github.com/abhisek/ielts-coach/internal/recorder"
)

type errorResponse struct {
	Error string `json:"error"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// recordingStartRequest lets the page report that the browser could not
// provide a microphone.
type recordingStartRequest struct {
	Error string `json:"error,omitempty"` // "permission-denied" or "unsupported"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: practice.Message(err)})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, practice.ErrEmptyAnswer),
		errors.Is(err, practice.ErrTooEarly),
		errors.Is(err, recorder.ErrUnsupported),
		errors.Is(err, recorder.ErrPermissionDenied):
		return http.StatusUnprocessableEntity
	case errors.Is(err, practice.ErrInputClosed),
		errors.Is(err, practice.ErrWrongState),
		errors.Is(err, practice.ErrStaleSubmission),
		errors.Is(err, recorder.ErrAlreadyRecording),
		errors.Is(err, recorder.ErrNotCapturing),
		errors.Is(err, recorder.ErrNoRecording):
		return http.StatusConflict
	case errors.Is(err, recorder.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, practice.ErrClosed), errors.Is(err, recorder.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(staticFS, "static/index.html")
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	snap, err := s.machine.Start()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAnswerBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.machine.SetAnswer(req.Answer); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

// handleSubmit accepts the answer and evaluates it in the background. The
// outcome reaches the page through the event stream.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sub, err := s.machine.Submit()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, err := s.machine.Evaluate(context.Background(), sub)
		if err != nil && !errors.Is(err, practice.ErrStaleSubmission) {
			s.log.Info("evaluation did not complete", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, s.machine.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.machine.Reset()
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	var req recordingStartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}
	switch req.Error {
	case "":
	case "permission-denied":
		s.mic.Fail(recorder.ErrPermissionDenied)
	case "unsupported":
		s.mic.Fail(recorder.ErrUnsupported)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown recording error " + strconv.Quote(req.Error)})
		return
	}

	// The capture outlives this request.
	if err := s.machine.StartRecording(context.WithoutCancel(r.Context())); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

func (s *Server) handleRecordingChunk(w http.ResponseWriter, r *http.Request) {
	chunk, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChunkBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "chunk too large"})
		return
	}
	if len(chunk) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if _, err := s.mic.Write(chunk); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.StopRecording(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.machine.Snapshot())
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	rc, art, err := s.store.Open(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Length", strconv.FormatInt(art.Size, 10))
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+recorder.DownloadName+`"`)
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Debug("serving recording", zap.Error(err))
	}
}
