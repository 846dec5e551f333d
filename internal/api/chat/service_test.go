package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hubb-app/bantadthong/app/observability/metrics"
	"github.com/hubb-app/bantadthong/internal/api/recommend"
	"github.com/hubb-app/bantadthong/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockAIClient) GenerateFromHistory(ctx context.Context, history []types.Message, prompt string) (string, error) {
	args := m.Called(ctx, history, prompt)
	return args.String(0), args.Error(1)
}

type staticCatalog struct {
	venues []types.Venue
}

func (c *staticCatalog) Catalog(ctx context.Context) ([]types.Venue, error) {
	return c.venues, nil
}

func testVenues() []types.Venue {
	return []types.Venue{
		{
			ID: uuid.New(), Name: "Jeh O Chula", Kind: types.KindRestaurant,
			Cuisine: "thai", PriceTier: types.PriceMid, Rating: 4.5,
			WaitTime: 60, TotalTables: 30, TablesAvailable: 2,
			Location: types.BantadthongCenter,
		},
		{
			ID: uuid.New(), Name: "Somtam Der", Kind: types.KindRestaurant,
			Cuisine: "isan", PriceTier: types.PriceLow, Rating: 4.4,
			WaitTime: 10, TotalTables: 20, TablesAvailable: 8,
			KnownFor: []string{"spicy som tam"},
			Location: types.BantadthongCenter,
		},
		{
			ID: uuid.New(), Name: "Wat Hua Lamphong", Kind: types.KindLandmark,
			Rating: 4.6, Location: types.BantadthongCenter,
		},
	}
}

func newTestService(ai *MockAIClient) *ServiceImpl {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	rec := recommend.NewServiceImpl(logger)
	return NewServiceImpl(ai, rec, &staticCatalog{venues: testVenues()}, logger)
}

func TestCreateSessionBecomesActive(t *testing.T) {
	svc := newTestService(&MockAIClient{})
	ctx := context.Background()

	first, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)
	assert.Equal(t, "New conversation", first.Title)

	second, err := svc.Create(ctx, types.ModeItinerary)
	require.NoError(t, err)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	sessions, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID)
	assert.Equal(t, second.ID, sessions[1].ID)
}

func TestSendRestaurantQueryAttachesRecommendations(t *testing.T) {
	ai := &MockAIClient{}
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	resp, err := svc.Send(ctx, session.ID, "I want cheap spicy food")
	require.NoError(t, err)

	assert.Equal(t, types.RoleAssistant, resp.Reply.Role)
	assert.NotEmpty(t, resp.Reply.Attachments)
	// The completion service is never consulted for restaurant queries.
	ai.AssertNotCalled(t, "GenerateFromHistory", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendFallsBackToTopRated(t *testing.T) {
	ai := &MockAIClient{}
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	// No venue is in the high price tier, so the filters eliminate
	// everything and the unfiltered top-rated list backs the answer.
	resp, err := svc.Send(ctx, session.ID, "expensive restaurant with no wait")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Reply.Attachments)
}

func TestSendOpenEndedUsesCompletion(t *testing.T) {
	ai := &MockAIClient{}
	ai.On("GenerateFromHistory", mock.Anything, mock.Anything, mock.Anything).
		Return("The street is named after its rope-making history.", nil)
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	resp, err := svc.Send(ctx, session.ID, "tell me about the history of this street")
	require.NoError(t, err)
	assert.Contains(t, resp.Reply.Content, "rope-making")
	assert.Empty(t, resp.Reply.Attachments)
	ai.AssertExpectations(t)
}

func TestSendCompletionFailureReturnsApology(t *testing.T) {
	ai := &MockAIClient{}
	ai.On("GenerateFromHistory", mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("upstream unavailable"))
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	resp, err := svc.Send(ctx, session.ID, "tell me about the history of this street")
	require.NoError(t, err)
	assert.Equal(t, apologyReply, resp.Reply.Content)
}

func TestCannedBranches(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"landmark", "what are the best things to see around here", "landmark mode"},
		{"itinerary", "can you plan my trip for tomorrow", "itinerary mode"},
		{"map", "show me the map please", "map view"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&MockAIClient{})
			ctx := context.Background()
			session, err := svc.Create(ctx, types.ModeChat)
			require.NoError(t, err)

			resp, err := svc.Send(ctx, session.ID, tt.message)
			require.NoError(t, err)
			assert.Contains(t, resp.Reply.Content, tt.want)
		})
	}
}

func TestTitlingRule(t *testing.T) {
	ai := &MockAIClient{}
	ai.On("GenerateFromHistory", mock.Anything, mock.Anything, mock.Anything).
		Return("ok", nil)
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	long := "tell me about the very long history of Banthat Thong road"
	_, err = svc.Send(ctx, session.ID, long)
	require.NoError(t, err)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, string([]rune(long)[:30])+"…", current.Title)

	// After more than three messages exist the title is frozen.
	_, err = svc.Send(ctx, session.ID, "thanks, tell me more history")
	require.NoError(t, err)
	current, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, string([]rune(long)[:30])+"…", current.Title)
}

func TestShortFirstMessageTitleUntruncated(t *testing.T) {
	ai := &MockAIClient{}
	ai.On("GenerateFromHistory", mock.Anything, mock.Anything, mock.Anything).
		Return("ok", nil)
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	_, err = svc.Send(ctx, session.ID, "hello there")
	require.NoError(t, err)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello there", current.Title)
}

func TestDeleteActivePromotesNext(t *testing.T) {
	svc := newTestService(&MockAIClient{})
	ctx := context.Background()

	first, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)
	second, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)
	third, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	_, err = svc.Switch(ctx, first.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID))

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	require.NoError(t, svc.Delete(ctx, second.ID))
	require.NoError(t, svc.Delete(ctx, third.ID))

	_, err = svc.Current(ctx)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteInactiveKeepsActive(t *testing.T) {
	svc := newTestService(&MockAIClient{})
	ctx := context.Background()

	first, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)
	second, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, first.ID))

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
}

func TestStaleReplyDiscardedAfterDelete(t *testing.T) {
	ai := &MockAIClient{}
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	// Delete the session while the completion call is in flight.
	ai.On("GenerateFromHistory", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, svc.Delete(ctx, session.ID))
		}).
		Return("too late", nil)

	_, err = svc.Send(ctx, session.ID, "tell me about the history of this street")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSendUnknownSession(t *testing.T) {
	svc := newTestService(&MockAIClient{})
	_, err := svc.Send(context.Background(), uuid.New(), "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestChatSessionJSONRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	session := types.ChatSession{
		ID:    uuid.New(),
		Title: "dinner plans",
		Mode:  types.ModeChat,
		Messages: []types.Message{
			{ID: uuid.New(), Role: types.RoleUser, Content: "where should I eat", Timestamp: now},
			{
				ID: uuid.New(), Role: types.RoleAssistant, Content: "try these", Timestamp: now,
				Attachments: []types.RankedResult{{Venue: testVenues()[0], Score: 46.5}},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	raw, err := json.Marshal(session)
	require.NoError(t, err)

	var decoded types.ChatSession
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, session.ID, decoded.ID)
	assert.Equal(t, session.Title, decoded.Title)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, "try these", decoded.Messages[1].Content)
	require.Len(t, decoded.Messages[1].Attachments, 1)
	assert.Equal(t, "Jeh O Chula", decoded.Messages[1].Attachments[0].Venue.Name)
}

func TestNewSessionSeededWithWelcome(t *testing.T) {
	svc := newTestService(&MockAIClient{})

	session, err := svc.Create(context.Background(), types.ModeChat)
	require.NoError(t, err)

	require.Len(t, session.Messages, 2)
	for _, m := range session.Messages {
		assert.Equal(t, types.RoleAssistant, m.Role)
		assert.NotEmpty(t, m.Content)
	}
	assert.Equal(t, "New conversation", session.Title)
}

func TestListReturnsIsolatedCopies(t *testing.T) {
	ai := &MockAIClient{}
	ai.On("GenerateFromHistory", mock.Anything, mock.Anything, mock.Anything).
		Return("ok", nil)
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)
	_, err = svc.Send(ctx, session.ID, "tell me about the history of this street")
	require.NoError(t, err)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].Messages[0].Content = "scribbled over"
	listed[0].Messages = listed[0].Messages[:1]

	fresh, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh.Messages, 4)
	assert.NotEqual(t, "scribbled over", fresh.Messages[0].Content)
}

func TestConcurrentSendAndList(t *testing.T) {
	ai := &MockAIClient{}
	ai.On("GenerateFromHistory", mock.Anything, mock.Anything, mock.Anything).
		Return("ok", nil)
	svc := newTestService(ai)
	ctx := context.Background()

	session, err := svc.Create(ctx, types.ModeChat)
	require.NoError(t, err)

	const sends = 20
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < sends; i++ {
			if _, err := svc.Send(ctx, session.ID, "tell me about the history of this street"); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < sends; i++ {
			sessions, err := svc.List(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := json.Marshal(sessions); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()

	final, err := svc.Current(ctx)
	require.NoError(t, err)
	// 2 welcome turns plus a user/assistant pair per send.
	assert.Len(t, final.Messages, 2+2*sends)
}
