package geoposition

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubb-app/bantadthong/internal/types"
)

func newTestProvider() *ProviderImpl {
	return NewProviderImpl(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestReportInRegionFixKept(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	pos := types.Coordinate{Lat: 13.7415, Lng: 100.5262}
	fix := p.Report(ctx, "client-1", pos)
	assert.False(t, fix.Remapped)
	assert.Equal(t, pos, fix.Position)

	got, err := p.GetPosition(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, pos, got.Position)
}

func TestReportOutOfRegionRemapsToAnchor(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	// Chiang Mai, well outside the Bangkok bounds.
	fix := p.Report(ctx, "client-1", types.Coordinate{Lat: 18.7883, Lng: 98.9853})
	assert.True(t, fix.Remapped)
	assert.Equal(t, types.BantadthongCenter, fix.Position)
	assert.NotEmpty(t, fix.Notice)
}

func TestGetPositionWithoutFixFallsBackToAnchor(t *testing.T) {
	p := newTestProvider()

	fix, err := p.GetPosition(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.True(t, fix.Remapped)
	assert.Equal(t, types.BantadthongCenter, fix.Position)
}

func TestReportFailureDegradesToAnchor(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	for _, kind := range []ErrorKind{ErrPermissionDenied, ErrUnavailable, ErrTimeout} {
		fix, err := p.ReportFailure(ctx, "client-1", kind)
		require.NoError(t, err)
		assert.True(t, fix.Remapped)
		assert.Equal(t, types.BantadthongCenter, fix.Position)
		assert.NotEmpty(t, fix.Notice)
	}

	_, err := p.ReportFailure(ctx, "client-1", ErrorKind("gps_on_fire"))
	assert.Error(t, err)
}

func TestSubscribeIsIdempotentPerID(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	var calls int
	// Subscribing twice under the same id must not double deliveries.
	p.Subscribe("nav", func(clientID string, fix Fix) { calls++ })
	p.Subscribe("nav", func(clientID string, fix Fix) { calls++ })

	p.Report(ctx, "client-1", types.Coordinate{Lat: 13.7415, Lng: 100.5262})
	assert.Equal(t, 1, calls)
}

func TestUnsubscribeStopsDeliveries(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	var calls int
	p.Subscribe("nav", func(clientID string, fix Fix) { calls++ })
	p.Report(ctx, "client-1", types.Coordinate{Lat: 13.7415, Lng: 100.5262})

	p.Unsubscribe("nav")
	p.Report(ctx, "client-1", types.Coordinate{Lat: 13.7416, Lng: 100.5263})
	assert.Equal(t, 1, calls)

	// Unsubscribing something never subscribed is a no-op.
	p.Unsubscribe("nobody")
}

func TestSubscriberReceivesRemappedFix(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	var got Fix
	p.Subscribe("nav", func(clientID string, fix Fix) { got = fix })

	p.Report(ctx, "client-1", types.Coordinate{Lat: 51.5, Lng: -0.12})
	assert.True(t, got.Remapped)
	assert.Equal(t, types.BantadthongCenter, got.Position)
}
