// Package announce turns detection outcomes into speech and on-screen captions.
package announce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/naveye-assist/pkg/position"
	"github.com/teslashibe/naveye-assist/pkg/speech"
)

// Fixed utterances.
const (
	NoObjects = "No objects detected"
	ErrorText = "Error"
)

// Kind classifies an announcement.
type Kind string

const (
	KindDetected Kind = "detected"
	KindNone     Kind = "none"
	KindError    Kind = "error"
)

// Event is one announcement. Events are values and are never mutated.
type Event struct {
	Kind      Kind           `json:"kind"`
	Name      string         `json:"name,omitempty"`
	Label     position.Label `json:"label,omitempty"`
	Utterance string         `json:"utterance"`

	// Caption is the caption after the event. CaptionChanged is false for
	// errors, which leave the previous caption on screen.
	Caption        string    `json:"caption"`
	CaptionChanged bool      `json:"caption_changed"`
	At             time.Time `json:"at"`
}

// CaptionSink receives caption updates.
type CaptionSink interface {
	SetCaption(caption string)
}

// CaptionFunc adapts a function to CaptionSink.
type CaptionFunc func(caption string)

// SetCaption calls f.
func (f CaptionFunc) SetCaption(caption string) { f(caption) }

// Announcer speaks and captions detection outcomes. Speech is started in its
// own goroutine and is not serialized: a new utterance may overlap the previous one.
type Announcer struct {
	speaker speech.Speaker
	sink    CaptionSink
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	caption string
	last    *Event
}

// New creates an announcer. sink may be nil.
func New(speaker speech.Speaker, sink CaptionSink, logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Announcer{
		speaker: speaker,
		sink:    sink,
		logger:  logger.With("component", "announce"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Announce reports a detected object: "Detected a {name} {label}".
func (a *Announcer) Announce(name string, label position.Label) Event {
	return a.emit(Event{
		Kind:           KindDetected,
		Name:           name,
		Label:          label,
		Utterance:      fmt.Sprintf("Detected a %s %s", name, label),
		Caption:        fmt.Sprintf("%s %s", name, label),
		CaptionChanged: true,
	})
}

// AnnounceNone reports an empty frame.
func (a *Announcer) AnnounceNone() Event {
	return a.emit(Event{
		Kind:           KindNone,
		Utterance:      NoObjects,
		Caption:        NoObjects,
		CaptionChanged: true,
	})
}

// AnnounceError reports a failed cycle. The caption is left unchanged.
func (a *Announcer) AnnounceError() Event {
	return a.emit(Event{
		Kind:      KindError,
		Utterance: ErrorText,
	})
}

// SetCaption shows text without speaking it.
func (a *Announcer) SetCaption(caption string) {
	a.mu.Lock()
	a.caption = caption
	a.mu.Unlock()
	if a.sink != nil {
		a.sink.SetCaption(caption)
	}
}

// Caption returns the caption currently shown.
func (a *Announcer) Caption() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.caption
}

// Last returns the most recent event, or nil.
func (a *Announcer) Last() *Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil
	}
	ev := *a.last
	return &ev
}

// Wait blocks until every started utterance has finished.
func (a *Announcer) Wait() {
	a.wg.Wait()
}

// Close cancels pending speech and waits for it to stop.
func (a *Announcer) Close() {
	a.cancel()
	a.wg.Wait()
}

func (a *Announcer) emit(ev Event) Event {
	ev.At = time.Now()

	a.mu.Lock()
	if ev.CaptionChanged {
		a.caption = ev.Caption
	} else {
		ev.Caption = a.caption
	}
	stored := ev
	a.last = &stored
	a.mu.Unlock()

	if ev.CaptionChanged && a.sink != nil {
		a.sink.SetCaption(ev.Caption)
	}

	a.speak(ev.Utterance)
	a.logger.Info("announced", "kind", ev.Kind, "utterance", ev.Utterance)
	return ev
}

func (a *Announcer) speak(text string) {
	if a.speaker == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.speaker.Speak(a.ctx, text); err != nil && a.ctx.Err() == nil {
			a.logger.Warn("speech failed", "text", text, "error", err)
		}
	}()
}
