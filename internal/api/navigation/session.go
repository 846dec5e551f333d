package navigation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hubb-app/bantadthong/internal/types"
)

// State is the navigation lifecycle phase.
type State string

const (
	StateIdle    State = "idle"
	StateActive  State = "active"
	StatePaused  State = "paused"
	StateArrived State = "arrived"
)

// ArrivalThresholdMeters is how close a live fix must be to the
// destination to count as arrived.
const ArrivalThresholdMeters = 30.0

// Simulated advancement ticks per transport mode. Wheels move faster
// than feet.
var tickIntervals = map[types.TransportMode]time.Duration{
	types.ModeWalking: time.Second,
	types.ModeDriving: 400 * time.Millisecond,
	types.ModeTransit: 400 * time.Millisecond,
}

var (
	ErrNoRoute       = errors.New("navigation requires a resolved route")
	ErrNotActive     = errors.New("navigation is not active")
	ErrAlreadyActive = errors.New("navigation is already active")
)

// Event is emitted on step advances and arrival.
type Event struct {
	State     State            `json:"state"`
	StepIndex int              `json:"step_index"`
	Position  types.Coordinate `json:"position"`
	Arrived   bool             `json:"arrived"`
}

// Snapshot is the queryable session state.
type Snapshot struct {
	State     State               `json:"state"`
	StepIndex int                 `json:"step_index"`
	Position  types.Coordinate    `json:"position"`
	Mode      types.TransportMode `json:"mode"`
}

// Session replays or live-tracks progress along one resolved route.
// The step index is 0-based and never decreases while the session is
// active; arrival fires exactly once.
type Session struct {
	mu           sync.Mutex
	route        *types.RouteInfo
	mode         types.TransportMode
	state        State
	coordIndex   int
	stepIndex    int
	position     types.Coordinate
	arrivalFired bool

	cancelTick context.CancelFunc
	events     func(Event)
}

// NewSession creates an idle session. The events callback receives
// step-advance and arrival notifications; it may be nil.
func NewSession(route *types.RouteInfo, mode types.TransportMode, events func(Event)) (*Session, error) {
	if route == nil || len(route.Geometry) == 0 {
		return nil, ErrNoRoute
	}
	return &Session{
		route:    route,
		mode:     mode,
		state:    StateIdle,
		position: route.Geometry[0],
		events:   events,
	}, nil
}

// Start begins (or resumes) simulated advancement. Valid from Idle and
// Paused only.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateActive:
		return ErrAlreadyActive
	case StateArrived:
		return errors.New("navigation already arrived, reset first")
	}

	s.state = StateActive
	tickCtx, cancel := context.WithCancel(ctx)
	s.cancelTick = cancel

	interval, ok := tickIntervals[s.mode]
	if !ok {
		interval = time.Second
	}
	go s.tickLoop(tickCtx, interval)
	return nil
}

// StartLive marks the session active without a ticker; advancement comes
// from UpdatePosition calls.
func (s *Session) StartLive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateActive:
		return ErrAlreadyActive
	case StateArrived:
		return errors.New("navigation already arrived, reset first")
	}
	s.state = StateActive
	return nil
}

// Pause halts advancement, keeping position and step index.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	s.stopTickLocked()
	s.state = StatePaused
	return nil
}

// Reset returns to Idle, discarding all progress.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickLocked()
	s.state = StateIdle
	s.coordIndex = 0
	s.stepIndex = 0
	s.arrivalFired = false
	s.position = s.route.Geometry[0]
}

// Stop cancels any running ticker without changing recorded progress.
// Used when the owning view goes away.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickLocked()
	if s.state == StateActive {
		s.state = StatePaused
	}
}

// UpdatePosition feeds a live fix. Only the arrival proximity check runs;
// step advancement is the position provider's problem in live mode.
func (s *Session) UpdatePosition(pos types.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.position = pos

	dest := s.route.Geometry[len(s.route.Geometry)-1]
	if pos.DistanceTo(dest) <= ArrivalThresholdMeters {
		s.arriveLocked()
	}
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:     s.state,
		StepIndex: s.stepIndex,
		Position:  s.position,
		Mode:      s.mode,
	}
}

func (s *Session) tickLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.advance() {
				return
			}
		}
	}
}

// advance moves the simulated cursor one coordinate and recomputes the
// step index. Returns false once the session stops advancing.
func (s *Session) advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return false
	}

	if s.coordIndex >= len(s.route.Geometry)-1 {
		s.arriveLocked()
		return false
	}

	s.coordIndex++
	s.position = s.route.Geometry[s.coordIndex]

	if total := len(s.route.Geometry); total > 0 && len(s.route.Steps) > 0 {
		idx := s.coordIndex * len(s.route.Steps) / total
		if idx > s.stepIndex {
			s.stepIndex = idx
			s.emitLocked(Event{State: s.state, StepIndex: s.stepIndex, Position: s.position})
		}
	}

	if s.coordIndex >= len(s.route.Geometry)-1 {
		s.arriveLocked()
		return false
	}
	return true
}

func (s *Session) arriveLocked() {
	if s.arrivalFired {
		return
	}
	s.arrivalFired = true
	s.stopTickLocked()
	s.state = StateArrived
	s.emitLocked(Event{State: StateArrived, StepIndex: s.stepIndex, Position: s.position, Arrived: true})
}

func (s *Session) stopTickLocked() {
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
}

func (s *Session) emitLocked(e Event) {
	if s.events != nil {
		// Callback runs outside the lock to keep subscribers free to
		// query the session.
		go s.events(e)
	}
}
