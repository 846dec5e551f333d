package navigation

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hubb-app/bantadthong/app/observability/metrics"
	"github.com/hubb-app/bantadthong/internal/types"
)

// Manager keeps at most one navigation session per client. Starting a
// new session replaces and stops the previous one.
type Manager struct {
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Start creates a session for clientID and begins simulated advancement.
func (m *Manager) Start(ctx context.Context, clientID string, route *types.RouteInfo, mode types.TransportMode) (*Session, error) {
	ctx, span := otel.Tracer("Navigation").Start(ctx, "Start", trace.WithAttributes(
		attribute.String("transport.mode", string(mode)),
	))
	defer span.End()

	sess, err := NewSession(route, mode, m.eventSink(clientID))
	if err != nil {
		span.SetStatus(codes.Error, "invalid route")
		return nil, err
	}

	m.mu.Lock()
	if prev, ok := m.sessions[clientID]; ok {
		prev.Stop()
		metrics.Get().NavigationSessionsActive.Add(ctx, -1)
		m.logger.DebugContext(ctx, "Replacing navigation session", slog.String("client_id", clientID))
	}
	m.sessions[clientID] = sess
	m.mu.Unlock()

	// Detach the ticker from the request context so navigation survives
	// the HTTP call that started it.
	if err := sess.Start(context.WithoutCancel(ctx)); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.Get().NavigationSessionsActive.Add(ctx, 1)
	span.SetStatus(codes.Ok, "navigation started")
	return sess, nil
}

// StartLive creates a live session fed by position updates.
func (m *Manager) StartLive(ctx context.Context, clientID string, route *types.RouteInfo, mode types.TransportMode) (*Session, error) {
	sess, err := NewSession(route, mode, m.eventSink(clientID))
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if prev, ok := m.sessions[clientID]; ok {
		prev.Stop()
		metrics.Get().NavigationSessionsActive.Add(ctx, -1)
	}
	m.sessions[clientID] = sess
	m.mu.Unlock()

	if err := sess.StartLive(); err != nil {
		return nil, err
	}
	metrics.Get().NavigationSessionsActive.Add(ctx, 1)
	return sess, nil
}

// eventSink surfaces session events through the application log; the
// HTTP surface itself polls /navigation/state.
func (m *Manager) eventSink(clientID string) func(Event) {
	return func(e Event) {
		if e.Arrived {
			m.logger.Info("Navigation arrived",
				slog.String("client_id", clientID),
				slog.Int("step_index", e.StepIndex))
			return
		}
		m.logger.Debug("Navigation step advanced",
			slog.String("client_id", clientID),
			slog.Int("step_index", e.StepIndex))
	}
}

// Get returns the session for clientID, or nil.
func (m *Manager) Get(clientID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[clientID]
}

// End stops and forgets the session for clientID.
func (m *Manager) End(ctx context.Context, clientID string) {
	m.mu.Lock()
	sess, ok := m.sessions[clientID]
	if ok {
		delete(m.sessions, clientID)
	}
	m.mu.Unlock()
	if ok {
		sess.Stop()
		metrics.Get().NavigationSessionsActive.Add(ctx, -1)
	}
}
