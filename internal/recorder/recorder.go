// Package recorder captures a spoken rehearsal from a microphone into a
// single downloadable audio artifact.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// MIMEType tags every artifact regardless of the exact container the
	// capture device produced.
	MIMEType = "audio/webm"

	// DownloadName is the file name offered for downloads.
	DownloadName = "ielts-practice-answer.webm"
)

var (
	ErrUnsupported      = errors.New("audio recording is not supported on this system")
	ErrPermissionDenied = errors.New("microphone access was denied")
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNoRecording      = errors.New("no recording available")
	ErrClosed           = errors.New("recorder is closed")
)

// Stream is encoded audio from an open microphone. Close ends the capture
// and releases the device; Read then drains what was captured and returns
// io.EOF.
type Stream interface {
	io.Reader
	io.Closer
}

// Microphone opens capture streams. Open fails with ErrUnsupported when no
// capture path exists and ErrPermissionDenied when access is refused.
type Microphone interface {
	Open(ctx context.Context) (Stream, error)
}

type Status int

const (
	StatusIdle Status = iota
	StatusRecording
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRecording:
		return "recording"
	case StatusStopped:
		return "stopped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is a point-in-time view of a Recorder.
type State struct {
	Status   Status
	Err      error
	Artifact *Artifact
}

// drainTimeout bounds how long Stop waits for a stream to reach EOF after
// it was closed.
const drainTimeout = 5 * time.Second

// Recorder runs start/stop capture cycles. Each completed cycle yields one
// artifact; starting a new cycle or closing the recorder revokes it.
type Recorder struct {
	mic   Microphone
	store ArtifactStore
	log   *zap.Logger

	mu       sync.Mutex
	status   Status
	opening  bool
	stopping bool
	closed   bool
	err      error
	stream   Stream
	buf      *lockedBuffer
	done     chan struct{}
	artifact *Artifact

	onChange func()
}

// New creates an idle Recorder. log may be nil.
func New(mic Microphone, store ArtifactStore, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{mic: mic, store: store, log: log.Named("recorder")}
}

// OnChange registers fn to be called after every state change. fn runs
// without the recorder lock held.
func (r *Recorder) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Recorder) notify() {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// State returns the current status, last error and artifact.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := State{Status: r.status, Err: r.err}
	if r.artifact != nil {
		a := *r.artifact
		st.Artifact = &a
	}
	return st
}

// Start discards the previous artifact and begins capturing. When the
// microphone cannot be opened the recorder stays idle and the error is
// returned and kept in State.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	switch {
	case r.closed:
		r.mu.Unlock()
		return ErrClosed
	case r.status == StatusRecording || r.opening || r.stopping:
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.revokeLocked()
	r.err = nil
	r.status = StatusIdle
	r.opening = true
	r.mu.Unlock()
	r.notify()

	if r.mic == nil {
		return r.failStart(ErrUnsupported)
	}
	stream, err := r.mic.Open(ctx)
	if err != nil {
		return r.failStart(err)
	}

	r.mu.Lock()
	r.opening = false
	if r.closed {
		r.mu.Unlock()
		stream.Close()
		return ErrClosed
	}
	r.stream = stream
	r.buf = &lockedBuffer{}
	r.done = make(chan struct{})
	r.status = StatusRecording
	go r.capture(stream, r.buf, r.done)
	r.mu.Unlock()

	r.log.Debug("recording started")
	r.notify()
	return nil
}

func (r *Recorder) failStart(err error) error {
	r.mu.Lock()
	r.opening = false
	r.err = err
	r.status = StatusIdle
	r.mu.Unlock()

	r.log.Info("could not start recording", zap.Error(err))
	r.notify()
	return err
}

func (r *Recorder) capture(stream Stream, buf *lockedBuffer, done chan struct{}) {
	defer close(done)
	if _, err := io.Copy(buf, stream); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		r.log.Warn("audio stream ended with error", zap.Error(err))
	}
}

// Stop ends the current capture and stores it as a single artifact. It is
// a no-op when nothing is being recorded or another Stop is already
// draining the capture. If the recorder is closed while the capture is
// being saved, the artifact is discarded and ErrClosed is returned.
func (r *Recorder) Stop(ctx context.Context) error {
	data, ok := r.finish()
	if !ok {
		return nil
	}

	art, err := r.store.Put(ctx, MIMEType, data)

	r.mu.Lock()
	r.stopping = false
	switch {
	case err != nil:
		err = fmt.Errorf("saving recording: %w", err)
		r.err = err
		r.status = StatusIdle
	case r.closed:
		if rerr := r.store.Revoke(art.ID); rerr != nil {
			r.log.Warn("revoking recording", zap.String("artifact", art.ID), zap.Error(rerr))
		}
		err = ErrClosed
	default:
		r.artifact = &art
		r.status = StatusStopped
	}
	r.mu.Unlock()

	switch {
	case errors.Is(err, ErrClosed):
		r.log.Debug("recorder closed while saving, recording discarded")
	case err != nil:
		r.log.Error("saving recording", zap.Error(err))
	default:
		r.log.Debug("recording stopped", zap.Int64("bytes", art.Size), zap.String("artifact", art.ID))
	}
	r.notify()
	return err
}

// finish closes the active stream and waits for it to drain. ok is false
// when there was no active recording or another caller already owns it.
// While it returns true, the recorder is marked stopping until Stop
// settles the outcome.
func (r *Recorder) finish() (data []byte, ok bool) {
	r.mu.Lock()
	if r.status != StatusRecording || r.stopping || r.stream == nil {
		r.mu.Unlock()
		return nil, false
	}
	stream, buf, done := r.stream, r.buf, r.done
	r.stream, r.buf, r.done = nil, nil, nil
	r.stopping = true
	r.mu.Unlock()

	if err := stream.Close(); err != nil {
		r.log.Warn("closing audio stream", zap.Error(err))
	}
	select {
	case <-done:
	case <-time.After(drainTimeout):
		r.log.Warn("audio stream did not drain, keeping partial capture")
	}
	return buf.Bytes(), true
}

// Download writes the current artifact to w.
func (r *Recorder) Download(w io.Writer) error {
	r.mu.Lock()
	art := r.artifact
	r.mu.Unlock()
	if art == nil {
		return ErrNoRecording
	}

	rc, _, err := r.store.Open(art.ID)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
}

// SaveTo writes the current artifact to dir/DownloadName and returns the
// path.
func (r *Recorder) SaveTo(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, DownloadName)

	var buf bytes.Buffer
	if err := r.Download(&buf); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}
	return path, nil
}

// Close stops any capture without keeping it and revokes the current
// artifact. The recorder cannot be started again.
func (r *Recorder) Close() error {
	_, drained := r.finish()

	r.mu.Lock()
	if drained {
		r.stopping = false
	}
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.revokeLocked()
	r.status = StatusIdle
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *Recorder) revokeLocked() {
	if r.artifact == nil {
		return
	}
	if err := r.store.Revoke(r.artifact.ID); err != nil {
		r.log.Warn("revoking recording", zap.String("artifact", r.artifact.ID), zap.Error(err))
	}
	r.artifact = nil
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
