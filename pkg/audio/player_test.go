package audio

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/naveye-assist/internal/log"
	"github.com/teslashibe/naveye-assist/pkg/tts"
)

func fakePlayer(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "fake-player")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return bin
}

func TestArgs(t *testing.T) {
	mp3 := Args(tts.AudioFormat{Encoding: tts.EncodingMP3})
	assert.Equal(t, []string{"-nodisp", "-autoexit", "-loglevel", "error", "-i", "pipe:0"}, mp3)

	pcm := strings.Join(Args(tts.AudioFormat{Encoding: tts.EncodingPCM24}), " ")
	assert.Contains(t, pcm, "-f s16le -ar 24000 -ch_layout mono")
	assert.True(t, strings.HasSuffix(pcm, "-i pipe:0"))
}

func TestPlayPipesAudio(t *testing.T) {
	bin := fakePlayer(t, `cat > "$0.out"`)

	var started, ended int
	p := NewPlayer(bin, log.Discard())
	p.OnPlaybackStart = func() { started++ }
	p.OnPlaybackEnd = func() { ended++ }

	err := p.Play(context.Background(), []byte("audio-bytes"), tts.AudioFormat{Encoding: tts.EncodingMP3})
	require.NoError(t, err)

	out, err := os.ReadFile(bin + ".out")
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(out))
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, ended)
	assert.False(t, p.IsPlaying())
}

func TestPlayEmptyIsNoop(t *testing.T) {
	p := NewPlayer(filepath.Join(t.TempDir(), "missing"), log.Discard())
	assert.NoError(t, p.Play(context.Background(), nil, tts.AudioFormat{}))
}

func TestPlayFailure(t *testing.T) {
	bin := fakePlayer(t, `cat >/dev/null; echo "no audio device" >&2; exit 1`)

	err := NewPlayer(bin, log.Discard()).Play(context.Background(), []byte("x"), tts.AudioFormat{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio device")
}

func TestCancel(t *testing.T) {
	bin := fakePlayer(t, `cat >/dev/null; exec sleep 5`)
	p := NewPlayer(bin, log.Discard())

	done := make(chan error, 1)
	go func() {
		done <- p.Play(context.Background(), []byte("x"), tts.AudioFormat{})
	}()

	require.Eventually(t, p.IsPlaying, time.Second, 5*time.Millisecond)
	p.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("playback not cancelled")
	}
}
