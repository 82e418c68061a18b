package announce

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/naveye-assist/internal/log"
	"github.com/teslashibe/naveye-assist/pkg/position"
	"github.com/teslashibe/naveye-assist/pkg/speech"
)

type captions struct {
	mu    sync.Mutex
	items []string
}

func (c *captions) SetCaption(s string) {
	c.mu.Lock()
	c.items = append(c.items, s)
	c.mu.Unlock()
}

func (c *captions) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.items...)
}

func TestAnnounce(t *testing.T) {
	rec := speech.NewRecorder()
	sink := &captions{}
	a := New(rec, sink, log.Discard())

	ev := a.Announce("Chair", position.Left)
	a.Wait()

	assert.Equal(t, KindDetected, ev.Kind)
	assert.Equal(t, "Detected a Chair on the left", ev.Utterance)
	assert.Equal(t, "Chair on the left", ev.Caption)
	assert.True(t, ev.CaptionChanged)
	assert.Equal(t, []string{"Detected a Chair on the left"}, rec.Spoken())
	assert.Equal(t, []string{"Chair on the left"}, sink.all())
	assert.Equal(t, "Chair on the left", a.Caption())
}

func TestAnnounceNone(t *testing.T) {
	rec := speech.NewRecorder()
	sink := &captions{}
	a := New(rec, sink, log.Discard())

	ev := a.AnnounceNone()
	a.Wait()

	assert.Equal(t, KindNone, ev.Kind)
	assert.Equal(t, NoObjects, ev.Utterance)
	assert.Equal(t, NoObjects, ev.Caption)
	assert.Equal(t, []string{"No objects detected"}, rec.Spoken())
	assert.Equal(t, []string{"No objects detected"}, sink.all())
}

func TestAnnounceErrorKeepsCaption(t *testing.T) {
	rec := speech.NewRecorder()
	sink := &captions{}
	a := New(rec, sink, log.Discard())

	a.Announce("Table", position.Straight)
	ev := a.AnnounceError()
	a.Wait()

	assert.Equal(t, KindError, ev.Kind)
	assert.Equal(t, "Error", ev.Utterance)
	assert.False(t, ev.CaptionChanged)
	assert.Equal(t, "Table straight ahead", ev.Caption)
	assert.Equal(t, "Table straight ahead", a.Caption())
	assert.Equal(t, []string{"Table straight ahead"}, sink.all())
	assert.ElementsMatch(t, []string{"Detected a Table straight ahead", "Error"}, rec.Spoken())
}

func TestLastIsACopy(t *testing.T) {
	a := New(nil, nil, log.Discard())
	assert.Nil(t, a.Last())

	a.Announce("Door", position.Right)
	last := a.Last()
	require.NotNil(t, last)
	last.Caption = "changed"
	assert.Equal(t, "Door on the right", a.Last().Caption)
}

// blockingSpeaker holds every utterance until released.
type blockingSpeaker struct {
	release chan struct{}
	started chan string
}

func (b *blockingSpeaker) Speak(ctx context.Context, text string) error {
	b.started <- text
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSpeechIsNotSerialized(t *testing.T) {
	b := &blockingSpeaker{release: make(chan struct{}), started: make(chan string, 2)}
	a := New(b, nil, log.Discard())

	a.Announce("Cup", position.Left)
	a.AnnounceNone()

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case text := <-b.started:
			got[text] = true
		case <-time.After(time.Second):
			t.Fatal("second utterance waited for the first")
		}
	}
	assert.True(t, got["Detected a Cup on the left"])
	assert.True(t, got["No objects detected"])

	close(b.release)
	a.Wait()
}

func TestCloseCancelsSpeech(t *testing.T) {
	b := &blockingSpeaker{release: make(chan struct{}), started: make(chan string, 1)}
	a := New(b, nil, log.Discard())

	a.AnnounceError()
	<-b.started

	done := make(chan struct{})
	go func() {
		a.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel speech")
	}
}

func TestCaptionFunc(t *testing.T) {
	var got string
	a := New(nil, CaptionFunc(func(s string) { got = s }), log.Discard())
	a.SetCaption("Camera permission denied")
	assert.Equal(t, "Camera permission denied", got)
	assert.Equal(t, "Camera permission denied", a.Caption())
}
