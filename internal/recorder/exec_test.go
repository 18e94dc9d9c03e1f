package recorder

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecMicrophone_Args(t *testing.T) {
	tests := []struct {
		name    string
		mic     ExecMicrophone
		goos    string
		wantIn  []string
		wantErr error
	}{
		{"linux default", ExecMicrophone{}, "linux", []string{"-f", "pulse", "-i", "default"}, nil},
		{"mac default", ExecMicrophone{}, "darwin", []string{"-f", "avfoundation", "-i", ":0"}, nil},
		{"mac device", ExecMicrophone{Device: "2"}, "darwin", []string{"-f", "avfoundation", "-i", ":2"}, nil},
		{"windows device", ExecMicrophone{Device: "Microphone (USB)"}, "windows", []string{"-f", "dshow", "-i", "audio=Microphone (USB)"}, nil},
		{"windows needs device", ExecMicrophone{}, "windows", nil, ErrUnsupported},
		{"alsa override", ExecMicrophone{InputFormat: "alsa", Device: "hw:1"}, "linux", []string{"-f", "alsa", "-i", "hw:1"}, nil},
		{"unknown platform", ExecMicrophone{}, "plan9", nil, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := tt.mic.args(tt.goos)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Subset(t, args, tt.wantIn)
			assert.Equal(t, []string{"-f", "webm", "pipe:1"}, args[len(args)-3:])
		})
	}
}

func TestExecMicrophone_MissingBinary(t *testing.T) {
	mic := ExecMicrophone{FFmpegPath: filepath.Join(t.TempDir(), "no-such-ffmpeg")}
	_, err := mic.Open(t.Context())
	assert.ErrorIs(t, err, ErrUnsupported)
}

// fakeFFmpeg writes a shell script standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExecMicrophone_RecordsUntilStopped(t *testing.T) {
	// Emits a header, then waits for "q" on stdin like ffmpeg does.
	bin := fakeFFmpeg(t, `printf 'HEADER'; read q; printf 'TRAILER'`)
	mic := ExecMicrophone{FFmpegPath: bin, InputFormat: "pulse", FirstChunkTimeout: 5 * time.Second}

	r := New(mic, NewMemoryStore("/r/"), nil)
	require.NoError(t, r.Start(t.Context()))
	require.NoError(t, r.Stop(t.Context()))

	var out bytes.Buffer
	require.NoError(t, r.Download(&out))
	assert.Equal(t, "HEADERTRAILER", out.String())
}

func TestExecMicrophone_ExitBeforeAudioIsPermissionDenied(t *testing.T) {
	bin := fakeFFmpeg(t, `echo "default: Permission denied" >&2; exit 1`)
	mic := ExecMicrophone{FFmpegPath: bin, InputFormat: "pulse"}

	_, err := mic.Open(t.Context())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, err.Error(), "Permission denied")
}
