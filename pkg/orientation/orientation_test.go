package orientation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapse(t *testing.T) {
	tests := []struct {
		raw  Raw
		want Orientation
	}{
		{RawPortraitUp, Portrait},
		{RawPortraitDown, Portrait},
		{RawLandscapeLeft, Landscape},
		{RawLandscapeRight, Landscape},
		{RawUnknown, Portrait},
	}
	for _, tc := range tests {
		t.Run(string(tc.raw), func(t *testing.T) {
			assert.Equal(t, tc.want, Collapse(tc.raw))
		})
	}
}

func TestParseRaw(t *testing.T) {
	tests := []struct {
		in   string
		want Raw
	}{
		{"portrait-primary", RawPortraitUp},
		{"portrait-secondary", RawPortraitDown},
		{"landscape-primary", RawLandscapeLeft},
		{"LANDSCAPE-SECONDARY", RawLandscapeRight},
		{"landscape_right", RawLandscapeRight},
		{"", RawUnknown},
	}
	for _, tc := range tests {
		got, err := ParseRaw(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseRaw("sideways")
	assert.Error(t, err)
}

func TestTrackerFollowsSensor(t *testing.T) {
	sensor := NewBroadcaster(RawLandscapeRight)
	tr := NewTracker(sensor, nil)

	assert.Equal(t, Portrait, tr.Current(), "portrait before start")

	require.NoError(t, tr.Start(context.Background()))
	assert.Equal(t, Landscape, tr.Current(), "initial read")
	assert.Equal(t, 1, sensor.Subscribers())

	sensor.Set(RawPortraitDown)
	assert.Equal(t, Portrait, tr.Current())

	sensor.Set(RawLandscapeLeft)
	assert.Equal(t, Landscape, tr.Current())

	tr.Stop()
	assert.Equal(t, 0, sensor.Subscribers())

	sensor.Set(RawPortraitUp)
	assert.Equal(t, Landscape, tr.Current(), "no updates after stop")

	tr.Stop()
}

func TestTrackerStartIdempotent(t *testing.T) {
	sensor := NewBroadcaster(RawPortraitUp)
	tr := NewTracker(sensor, nil)

	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Start(context.Background()))
	assert.Equal(t, 1, sensor.Subscribers())
}

type failingSensor struct{ *Broadcaster }

func (failingSensor) Current(context.Context) (Raw, error) {
	return RawUnknown, errors.New("sensor offline")
}

func TestTrackerInitialReadError(t *testing.T) {
	sensor := failingSensor{NewBroadcaster(RawUnknown)}
	tr := NewTracker(sensor, nil)

	err := tr.Start(context.Background())
	require.Error(t, err)

	// Still subscribed: later notifications are observed.
	sensor.Set(RawLandscapeLeft)
	assert.Equal(t, Landscape, tr.Current())
}

func TestOrientationString(t *testing.T) {
	assert.Equal(t, "portrait", Portrait.String())
	assert.Equal(t, "landscape", Landscape.String())

	b, err := Landscape.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "landscape", string(b))
}
