package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/naveye-assist/internal/log"
	"github.com/teslashibe/naveye-assist/pkg/audio"
	"github.com/teslashibe/naveye-assist/pkg/tts"
)

func TestSynthesizerSpeak(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "player")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\ncat > \"$0.out\"\n"), 0o755))

	provider := tts.NewMock()
	s := NewSynthesizer(provider, audio.NewPlayer(bin, log.Discard()), log.Discard())

	require.NoError(t, s.Speak(context.Background(), "Detected a Chair on the left"))
	assert.Equal(t, []string{"Detected a Chair on the left"}, provider.Texts())

	out, err := os.ReadFile(bin + ".out")
	require.NoError(t, err)
	assert.Len(t, out, len("Detected a Chair on the left")*960)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, provider.CallCount("Close"))
}

func TestSynthesizerProviderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := NewSynthesizer(tts.WithError(boom), audio.NewPlayer("", log.Discard()), log.Discard())

	err := s.Speak(context.Background(), "Error")
	assert.ErrorIs(t, err, boom)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Speak(context.Background(), "one"))
	require.NoError(t, r.Speak(context.Background(), "two"))

	assert.Equal(t, []string{"one", "two"}, r.Spoken())
	assert.Equal(t, "one", <-r.Lines())

	r.Err = errors.New("mute")
	assert.Error(t, r.Speak(context.Background(), "three"))
}

func TestLogSpeaker(t *testing.T) {
	assert.NoError(t, LogSpeaker{Logger: log.Discard()}.Speak(context.Background(), "Error"))
}
