// Package geoposition owns the client-position boundary. Fixes arrive
// over HTTP, get clamped to the service region and fan out to
// subscribers such as live navigation. Every failure degrades to the
// Bantadthong anchor rather than an error the caller must handle.
package geoposition

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hubb-app/bantadthong/internal/types"
)

// ErrorKind classifies position failures the way browser geolocation
// reports them.
type ErrorKind string

const (
	ErrPermissionDenied ErrorKind = "permission_denied"
	ErrUnavailable      ErrorKind = "unavailable"
	ErrTimeout          ErrorKind = "timeout"
)

func (k ErrorKind) Valid() bool {
	switch k {
	case ErrPermissionDenied, ErrUnavailable, ErrTimeout:
		return true
	}
	return false
}

// Fix is a resolved position. Remapped is set when the raw fix fell
// outside the service region or a failure degraded to the anchor;
// Notice carries the user-facing explanation.
type Fix struct {
	Position  types.Coordinate `json:"position"`
	Remapped  bool             `json:"remapped"`
	Notice    string           `json:"notice,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Subscriber receives every accepted fix for one client.
type Subscriber func(clientID string, fix Fix)

var _ Provider = (*ProviderImpl)(nil)

// Provider is the position boundary consumed by navigation and the map
// surface.
type Provider interface {
	GetPosition(ctx context.Context, clientID string) (Fix, error)
	Report(ctx context.Context, clientID string, pos types.Coordinate) Fix
	ReportFailure(ctx context.Context, clientID string, kind ErrorKind) (Fix, error)
	Subscribe(subscriberID string, fn Subscriber)
	Unsubscribe(subscriberID string)
}

type ProviderImpl struct {
	logger *slog.Logger

	mu          sync.RWMutex
	lastFix     map[string]Fix
	subscribers map[string]Subscriber
}

func NewProviderImpl(logger *slog.Logger) *ProviderImpl {
	return &ProviderImpl{
		logger:      logger,
		lastFix:     make(map[string]Fix),
		subscribers: make(map[string]Subscriber),
	}
}

// GetPosition returns the client's last accepted fix, or the anchor
// when the client has never reported one.
func (p *ProviderImpl) GetPosition(ctx context.Context, clientID string) (Fix, error) {
	p.mu.RLock()
	fix, ok := p.lastFix[clientID]
	p.mu.RUnlock()

	if !ok {
		return anchorFix("no position reported yet, using the Banthat Thong anchor"), nil
	}
	return fix, nil
}

// Report accepts a raw fix, remapping coordinates outside the service
// region to the anchor, and fans the result out to subscribers.
func (p *ProviderImpl) Report(ctx context.Context, clientID string, pos types.Coordinate) Fix {
	fix := Fix{Position: pos, Timestamp: time.Now()}
	if !pos.InServiceRegion() {
		fix = anchorFix("position outside the Bangkok service area, using the Banthat Thong anchor")
	}

	p.store(clientID, fix)
	p.logger.DebugContext(ctx, "Position fix accepted",
		slog.String("client_id", clientID), slog.Bool("remapped", fix.Remapped))
	return fix
}

// ReportFailure records a geolocation failure. The client keeps working
// from the anchor.
func (p *ProviderImpl) ReportFailure(ctx context.Context, clientID string, kind ErrorKind) (Fix, error) {
	if !kind.Valid() {
		return Fix{}, fmt.Errorf("unknown position error kind %q", kind)
	}

	var notice string
	switch kind {
	case ErrPermissionDenied:
		notice = "location permission denied, using the Banthat Thong anchor"
	case ErrUnavailable:
		notice = "location unavailable, using the Banthat Thong anchor"
	case ErrTimeout:
		notice = "location request timed out, using the Banthat Thong anchor"
	}

	fix := anchorFix(notice)
	p.store(clientID, fix)
	p.logger.InfoContext(ctx, "Position failure degraded to anchor",
		slog.String("client_id", clientID), slog.String("kind", string(kind)))
	return fix, nil
}

// Subscribe registers a fan-out callback. Re-subscribing under the same
// id replaces the previous callback, so a double start never duplicates
// deliveries.
func (p *ProviderImpl) Subscribe(subscriberID string, fn Subscriber) {
	p.mu.Lock()
	p.subscribers[subscriberID] = fn
	p.mu.Unlock()
}

// Unsubscribe is safe when the id was never subscribed.
func (p *ProviderImpl) Unsubscribe(subscriberID string) {
	p.mu.Lock()
	delete(p.subscribers, subscriberID)
	p.mu.Unlock()
}

func (p *ProviderImpl) store(clientID string, fix Fix) {
	p.mu.Lock()
	p.lastFix[clientID] = fix
	subs := make([]Subscriber, 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(clientID, fix)
	}
}

func anchorFix(notice string) Fix {
	return Fix{
		Position:  types.BantadthongCenter,
		Remapped:  true,
		Notice:    notice,
		Timestamp: time.Now(),
	}
}
