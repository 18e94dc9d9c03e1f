package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// ExecMicrophone captures through an ffmpeg child process that encodes the
// default (or configured) input device to WebM/Opus on stdout.
type ExecMicrophone struct {
	// FFmpegPath is the binary to run; "ffmpeg" when empty.
	FFmpegPath string
	// InputFormat is the ffmpeg input device API (pulse, alsa,
	// avfoundation, dshow); the platform default when empty.
	InputFormat string
	// Device selects the input; the platform default when empty.
	Device string
	// FirstChunkTimeout bounds the wait for audio after launch.
	FirstChunkTimeout time.Duration
}

// args returns the ffmpeg command line for goos.
func (m ExecMicrophone) args(goos string) ([]string, error) {
	format, device := m.InputFormat, m.Device
	if format == "" {
		switch goos {
		case "linux":
			format = "pulse"
		case "darwin":
			format = "avfoundation"
		case "windows":
			format = "dshow"
		default:
			return nil, fmt.Errorf("%w: no default capture device for %s", ErrUnsupported, goos)
		}
	}

	input := device
	switch format {
	case "pulse", "alsa":
		if input == "" {
			input = "default"
		}
	case "avfoundation":
		if input == "" {
			input = "0"
		}
		input = ":" + strings.TrimPrefix(input, ":")
	case "dshow":
		if input == "" {
			return nil, fmt.Errorf("%w: set recording.device to a DirectShow audio device name", ErrUnsupported)
		}
		input = "audio=" + strings.TrimPrefix(input, "audio=")
	}

	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", format, "-i", input,
		"-c:a", "libopus", "-b:a", "64k",
		"-f", "webm", "pipe:1",
	}, nil
}

func (m ExecMicrophone) Open(ctx context.Context) (Stream, error) {
	bin := m.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrUnsupported, bin)
	}
	args, err := m.args(runtime.GOOS)
	if err != nil {
		return nil, err
	}

	// Not tied to ctx: the process must outlive Open.
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	s := &execStream{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}

	timeout := m.FirstChunkTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	first := make(chan error, 1)
	go func() {
		first <- s.readFirst()
	}()

	select {
	case err := <-first:
		if err != nil {
			return nil, err
		}
		return s, nil
	case <-ctx.Done():
		s.kill()
		<-first
		return nil, ctx.Err()
	case <-time.After(timeout):
		s.kill()
		<-first
		return nil, fmt.Errorf("%w: no audio received from %s", ErrPermissionDenied, bin)
	}
}

type execStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr *tailBuffer

	head []byte // first chunk, returned before reading stdout again

	closeOnce sync.Once
	waitOnce  sync.Once
}

// readFirst blocks until ffmpeg produced audio or exited. An exit before any
// audio almost always means the device was refused or is missing.
func (s *execStream) readFirst() error {
	buf := make([]byte, 32*1024)
	n, err := s.stdout.Read(buf)
	if n > 0 {
		s.head = buf[:n]
		return nil
	}
	s.wait()
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
}

func (s *execStream) Read(p []byte) (int, error) {
	if len(s.head) > 0 {
		n := copy(p, s.head)
		s.head = s.head[n:]
		return n, nil
	}
	n, err := s.stdout.Read(p)
	if errors.Is(err, io.EOF) {
		s.wait()
	}
	return n, err
}

// Close asks ffmpeg to finish the file ("q" on stdin) so the container is
// terminated properly, and kills it if it does not exit in time.
func (s *execStream) Close() error {
	s.closeOnce.Do(func() {
		_, _ = io.WriteString(s.stdin, "q")
		_ = s.stdin.Close()
		go func() {
			time.Sleep(3 * time.Second)
			s.kill()
		}()
	})
	return nil
}

func (s *execStream) kill() {
	// Kill after exit reports os.ErrProcessDone, which is fine here.
	_ = s.cmd.Process.Kill()
}

func (s *execStream) wait() {
	s.waitOnce.Do(func() {
		_ = s.cmd.Wait()
	})
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf bytes.Buffer
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if over := b.buf.Len() - b.max; over > 0 {
		b.buf.Next(over)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
