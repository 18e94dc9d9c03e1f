package recorder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// StaticMicrophone replays a fixed payload. Reads block after the payload
// until the stream is closed. Err, when set, is returned from Open.
type StaticMicrophone struct {
	Data []byte
	Err  error
}

func (m StaticMicrophone) Open(ctx context.Context) (Stream, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &staticStream{r: bytes.NewReader(m.Data), closed: make(chan struct{})}, nil
}

type staticStream struct {
	r      *bytes.Reader
	once   sync.Once
	closed chan struct{}
}

func (s *staticStream) Read(p []byte) (int, error) {
	if s.r.Len() > 0 {
		return s.r.Read(p)
	}
	<-s.closed
	return 0, io.EOF
}

func (s *staticStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

// ErrNotCapturing is returned by PushMicrophone.Write outside a capture.
var ErrNotCapturing = errors.New("microphone is not capturing")

// PushMicrophone is fed by an external producer, typically a browser
// posting MediaRecorder chunks. Only one stream is open at a time.
type PushMicrophone struct {
	mu   sync.Mutex
	pw   *io.PipeWriter
	fail error
}

func NewPushMicrophone() *PushMicrophone {
	return &PushMicrophone{}
}

// Fail makes the next Open return err. The browser reports a refused or
// missing microphone this way.
func (m *PushMicrophone) Fail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *PushMicrophone) Open(ctx context.Context) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail; err != nil {
		m.fail = nil
		return nil, err
	}
	if m.pw != nil {
		return nil, ErrAlreadyRecording
	}
	pr, pw := io.Pipe()
	m.pw = pw
	return &pushStream{PipeReader: pr, mic: m, pw: pw}, nil
}

// Write appends a chunk to the open stream. It blocks until the recorder
// has consumed the chunk.
func (m *PushMicrophone) Write(chunk []byte) (int, error) {
	m.mu.Lock()
	pw := m.pw
	m.mu.Unlock()
	if pw == nil {
		return 0, ErrNotCapturing
	}
	n, err := pw.Write(chunk)
	if errors.Is(err, io.ErrClosedPipe) {
		return n, ErrNotCapturing
	}
	return n, err
}

// Capturing reports whether a stream is open.
func (m *PushMicrophone) Capturing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pw != nil
}

type pushStream struct {
	*io.PipeReader
	mic *PushMicrophone
	pw  *io.PipeWriter
}

// Close ends the capture; the reader drains and sees io.EOF.
func (s *pushStream) Close() error {
	s.mic.mu.Lock()
	if s.mic.pw == s.pw {
		s.mic.pw = nil
	}
	s.mic.mu.Unlock()
	return s.pw.Close()
}
