package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hubb-app/bantadthong/app/observability/metrics"
	generativeAI "github.com/hubb-app/bantadthong/internal/api/generative_ai"
	"github.com/hubb-app/bantadthong/internal/api/intent"
	"github.com/hubb-app/bantadthong/internal/api/recommend"
	"github.com/hubb-app/bantadthong/internal/types"
)

const (
	sessionTTL         = 24 * time.Hour
	sessionSweepPeriod = time.Hour

	// Titles come from the first user message while the conversation is
	// still young.
	titleMaxRunes    = 30
	titleMaxMessages = 3

	defaultTitle = "New conversation"

	apologyReply = "Sorry, I couldn't come up with an answer just now. Please try asking again."
)

var ErrSessionNotFound = fmt.Errorf("chat session not found")

// CatalogProvider supplies the venue catalog for the recommendation
// branch.
type CatalogProvider interface {
	Catalog(ctx context.Context) ([]types.Venue, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service owns the set of chat sessions and the active-session pointer,
// and routes each user message to the right responder.
type Service interface {
	Create(ctx context.Context, mode types.ChatMode) (*types.ChatSession, error)
	Send(ctx context.Context, sessionID uuid.UUID, content string) (*types.SendMessageResponse, error)
	Switch(ctx context.Context, sessionID uuid.UUID) (*types.ChatSession, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	Current(ctx context.Context) (*types.ChatSession, error)
	List(ctx context.Context) ([]*types.ChatSession, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	aiClient    generativeAI.Client
	recommender recommend.Service
	catalog     CatalogProvider

	sessions *cache.Cache

	// mu guards the session order list, the active pointer and the
	// per-session locks.
	mu       sync.Mutex
	order    []uuid.UUID
	activeID uuid.UUID
	locks    map[uuid.UUID]*sync.Mutex
}

func NewServiceImpl(aiClient generativeAI.Client, recommender recommend.Service, catalog CatalogProvider, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		aiClient:    aiClient,
		recommender: recommender,
		catalog:     catalog,
		sessions:    cache.New(sessionTTL, sessionSweepPeriod),
		locks:       make(map[uuid.UUID]*sync.Mutex),
	}
}

// Create opens a new session and makes it active.
func (s *ServiceImpl) Create(ctx context.Context, mode types.ChatMode) (*types.ChatSession, error) {
	_, span := otel.Tracer("ChatService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("chat.mode", string(mode)),
	))
	defer span.End()

	if mode == "" {
		mode = types.ModeChat
	}

	now := time.Now()
	session := &types.ChatSession{
		ID:        uuid.New(),
		Title:     defaultTitle,
		Mode:      mode,
		Messages:  welcomeTurns(now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Snapshot before the session becomes visible to other goroutines.
	snapshot := cloneSession(session)

	s.sessions.Set(session.ID.String(), session, cache.DefaultExpiration)

	s.mu.Lock()
	s.order = append(s.order, session.ID)
	s.activeID = session.ID
	s.locks[session.ID] = &sync.Mutex{}
	s.mu.Unlock()

	span.SetStatus(codes.Ok, "session created")
	return snapshot, nil
}

// Send appends the user message, produces a reply and appends that too.
// The reply is discarded if the session was deleted while the completion
// service was still thinking.
func (s *ServiceImpl) Send(ctx context.Context, sessionID uuid.UUID, content string) (*types.SendMessageResponse, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Send")
	defer span.End()

	l := s.logger.With(slog.String("session_id", sessionID.String()))

	session, lock, err := s.lookup(sessionID)
	if err != nil {
		span.SetStatus(codes.Error, "session not found")
		return nil, err
	}

	lock.Lock()
	userMsg := types.Message{
		ID:        uuid.New(),
		Role:      types.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	session.Messages = append(session.Messages, userMsg)
	session.UpdatedAt = userMsg.Timestamp
	retitle(session)
	history := make([]types.Message, len(session.Messages))
	copy(history, session.Messages)
	lock.Unlock()

	metrics.Get().ChatMessagesTotal.Add(ctx, 1)

	reply := s.respond(ctx, l, session.Mode, history, content)

	// The completion call can outlive a session delete; a reply for a
	// session that no longer exists is dropped, not re-homed.
	if _, found := s.sessions.Get(sessionID.String()); !found {
		l.InfoContext(ctx, "Discarding reply for deleted session")
		span.SetStatus(codes.Ok, "stale reply discarded")
		return nil, ErrSessionNotFound
	}

	lock.Lock()
	session.Messages = append(session.Messages, reply)
	session.UpdatedAt = reply.Timestamp
	lock.Unlock()

	span.SetStatus(codes.Ok, "message handled")
	return &types.SendMessageResponse{SessionID: sessionID, Reply: reply}, nil
}

// Switch makes sessionID the active session.
func (s *ServiceImpl) Switch(ctx context.Context, sessionID uuid.UUID) (*types.ChatSession, error) {
	session, lock, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.activeID = sessionID
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return cloneSession(session), nil
}

// Delete removes a session. Deleting the active session promotes the
// next remaining session in list order, or leaves no active session.
func (s *ServiceImpl) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if _, found := s.sessions.Get(sessionID.String()); !found {
		return ErrSessionNotFound
	}
	s.sessions.Delete(sessionID.String())

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, sessionID)
	for i, id := range s.order {
		if id == sessionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == sessionID {
		if len(s.order) > 0 {
			s.activeID = s.order[0]
		} else {
			s.activeID = uuid.Nil
		}
	}
	return nil
}

// Current returns the active session, or ErrSessionNotFound when none
// is active.
func (s *ServiceImpl) Current(ctx context.Context) (*types.ChatSession, error) {
	s.mu.Lock()
	active := s.activeID
	s.mu.Unlock()

	if active == uuid.Nil {
		return nil, ErrSessionNotFound
	}
	session, lock, err := s.lookup(active)
	if err != nil {
		return nil, err
	}

	lock.Lock()
	defer lock.Unlock()
	return cloneSession(session), nil
}

// List returns all sessions in creation order. Entries are copies; a
// concurrent Send never mutates a list the caller is marshalling.
func (s *ServiceImpl) List(ctx context.Context) ([]*types.ChatSession, error) {
	s.mu.Lock()
	ids := make([]uuid.UUID, len(s.order))
	copy(ids, s.order)
	s.mu.Unlock()

	sessions := make([]*types.ChatSession, 0, len(ids))
	for _, id := range ids {
		session, lock, err := s.lookup(id)
		if err != nil {
			continue
		}
		lock.Lock()
		sessions = append(sessions, cloneSession(session))
		lock.Unlock()
	}
	return sessions, nil
}

func (s *ServiceImpl) lookup(sessionID uuid.UUID) (*types.ChatSession, *sync.Mutex, error) {
	raw, found := s.sessions.Get(sessionID.String())
	if !found {
		return nil, nil, ErrSessionNotFound
	}
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	s.mu.Unlock()
	return raw.(*types.ChatSession), lock, nil
}

// respond picks the responder for one user message: the recommendation
// pipeline for restaurant queries, canned guidance for the map, landmark
// and itinerary surfaces, and the completion service for everything
// else.
func (s *ServiceImpl) respond(ctx context.Context, l *slog.Logger, mode types.ChatMode, history []types.Message, content string) types.Message {
	lower := strings.ToLower(content)

	if extracted := intent.Extract(content); isRestaurantQuery(lower, extracted) {
		return s.recommendReply(ctx, l, extracted)
	}

	if canned, ok := cannedReply(lower); ok {
		return assistantMessage(canned, nil)
	}

	reply, err := s.aiClient.GenerateFromHistory(ctx, history, completionPrompt(mode, content))
	if err != nil {
		l.WarnContext(ctx, "Completion service failed, using apology fallback", slog.Any("error", err))
		metrics.Get().CompletionErrorsTotal.Add(ctx, 1)
		return assistantMessage(apologyReply, nil)
	}
	return assistantMessage(reply, nil)
}

func (s *ServiceImpl) recommendReply(ctx context.Context, l *slog.Logger, extracted types.Intent) types.Message {
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load venue catalog", slog.Any("error", err))
		return assistantMessage(apologyReply, nil)
	}

	results := s.recommender.Recommend(ctx, catalog, extracted)
	if len(results) == 0 {
		// Filters eliminated everything; fall back to an unfiltered
		// top-rated list rather than an empty answer.
		results = s.recommender.TopRated(ctx, catalog)
	}
	if len(results) == 0 {
		return assistantMessage("I couldn't find any open restaurants right now.", nil)
	}

	metrics.Get().RecommendationsTotal.Add(ctx, 1)

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Venue.Name)
	}
	text := fmt.Sprintf("Here's what I'd try around Banthat Thong: %s.", strings.Join(names, ", "))
	return assistantMessage(text, results)
}

var welcomeContents = []string{
	"Hi! I'm your Banthat Thong food guide. Ask me where to eat and I'll line up the best spots nearby.",
	"You can also ask for a route, a food-tour itinerary, or landmarks worth a visit.",
}

// welcomeTurns seeds a new conversation with the assistant's greeting
// messages, spaced the way the chat surface renders them.
func welcomeTurns(now time.Time) []types.Message {
	turns := make([]types.Message, 0, len(welcomeContents))
	for i, content := range welcomeContents {
		turns = append(turns, types.Message{
			ID:        uuid.New(),
			Role:      types.RoleAssistant,
			Content:   content,
			Timestamp: now.Add(time.Duration(i) * 100 * time.Millisecond),
		})
	}
	return turns
}

// cloneSession copies a session and its message slice. Callers must hold
// the session's lock.
func cloneSession(session *types.ChatSession) *types.ChatSession {
	out := *session
	out.Messages = make([]types.Message, len(session.Messages))
	copy(out.Messages, session.Messages)
	return &out
}

func assistantMessage(content string, attachments []types.RankedResult) types.Message {
	return types.Message{
		ID:          uuid.New(),
		Role:        types.RoleAssistant,
		Content:     content,
		Timestamp:   time.Now(),
		Attachments: attachments,
	}
}

// retitle sets the title from the first user message while the
// conversation is still at most titleMaxMessages long. Later messages
// never retitle.
func retitle(session *types.ChatSession) {
	if len(session.Messages) > titleMaxMessages {
		return
	}
	var first string
	for _, m := range session.Messages {
		if m.Role == types.RoleUser {
			first = m.Content
			break
		}
	}
	if first == "" {
		return
	}
	session.Title = truncateTitle(first)
}

func truncateTitle(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= titleMaxRunes {
		return string(runes)
	}
	return string(runes[:titleMaxRunes]) + "…"
}

var restaurantKeywords = []string{
	"eat", "food", "restaurant", "hungry", "dinner", "lunch",
	"breakfast", "snack", "meal", "dish", "menu", "michelin",
}

// isRestaurantQuery gates the recommendation pipeline: any dining
// keyword, or any signal the extractor already picked up.
func isRestaurantQuery(lower string, extracted types.Intent) bool {
	if !extracted.Empty() {
		return true
	}
	for _, kw := range restaurantKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var cannedReplies = []struct {
	keywords []string
	reply    string
}{
	{
		keywords: []string{"map", "where am i", "near me"},
		reply:    "Open the map view to see venues around you. I can plot walking, driving or transit routes to any of them.",
	},
	{
		keywords: []string{"landmark", "sightsee", "temple", "things to see"},
		reply:    "Switch to landmark mode to browse spots like Wat Hua Lamphong and the Chulalongkorn Centenary Park, all within a short walk.",
	},
	{
		keywords: []string{"itinerary", "plan my", "food tour", "food crawl"},
		reply:    "Try itinerary mode: pick a budget and a number of stops and I'll line up a food crawl through Banthat Thong for you.",
	},
}

func cannedReply(lower string) (string, bool) {
	for _, c := range cannedReplies {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.reply, true
			}
		}
	}
	return "", false
}

func completionPrompt(mode types.ChatMode, content string) string {
	var sb strings.Builder
	sb.WriteString("You are a friendly local guide for the Banthat Thong food street in Bangkok. ")
	sb.WriteString("Keep answers short and concrete.")
	if mode == types.ModePolaroid {
		sb.WriteString(" The user is in photo-diary mode; suggest photogenic spots when relevant.")
	}
	sb.WriteString("\n\nUser: ")
	sb.WriteString(content)
	return sb.String()
}
