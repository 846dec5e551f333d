package itinerary

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hubb-app/bantadthong/app/observability/metrics"
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

func planVenue(name string, tier types.PriceTier, rating float64, wait int, distance float64, priceMin, priceMax int) types.Venue {
	return types.Venue{
		ID:             uuid.New(),
		Kind:           types.KindRestaurant,
		Name:           name,
		Cuisine:        "Thai Street Food",
		Rating:         rating,
		PriceTier:      tier,
		WaitTime:       wait,
		TotalTables:    10,
		PriceMin:       priceMin,
		PriceMax:       priceMax,
		DistanceMeters: distance,
	}
}

func planCatalog() []types.Venue {
	return []types.Venue{
		planVenue("Cheap Near", types.PriceLow, 4.0, 10, 100, 100, 200),
		planVenue("Cheap Far", types.PriceLow, 4.6, 20, 500, 120, 240),
		planVenue("Mid", types.PriceMid, 4.8, 30, 300, 400, 700),
		planVenue("High", types.PriceHigh, 4.9, 40, 200, 800, 1500),
	}
}

func newPlanService() *ServiceImpl {
	return NewServiceImpl(&MockAIClient{}, slog.Default())
}

func TestPlanLowBudgetOnlyCheapestTier(t *testing.T) {
	plan, err := newPlanService().Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceLow, Stops: 3,
	})
	require.NoError(t, err)
	require.Len(t, plan.Stops, 2)
	for _, stop := range plan.Stops {
		assert.Equal(t, types.PriceLow, stop.Venue.PriceTier)
	}
}

func TestPlanHighBudgetKeepsTopTwoTiers(t *testing.T) {
	plan, err := newPlanService().Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceHigh, Stops: 5,
	})
	require.NoError(t, err)
	require.Len(t, plan.Stops, 2)
	for _, stop := range plan.Stops {
		assert.NotEqual(t, types.PriceLow, stop.Venue.PriceTier)
	}
}

func TestPlanMidBudgetAppliesNoPriceFilter(t *testing.T) {
	plan, err := newPlanService().Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceMid, Stops: 4,
	})
	require.NoError(t, err)
	assert.Len(t, plan.Stops, 4)
}

func TestPlanStopsOrderedByDistance(t *testing.T) {
	plan, err := newPlanService().Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceMid, Stops: 4,
	})
	require.NoError(t, err)
	for i := 1; i < len(plan.Stops); i++ {
		assert.LessOrEqual(t, plan.Stops[i-1].Venue.DistanceMeters, plan.Stops[i].Venue.DistanceMeters)
		assert.Equal(t, i+1, plan.Stops[i].Order)
	}
	assert.Equal(t, 1, plan.Stops[0].Order)
}

func TestPlanArrivalTimes(t *testing.T) {
	catalog := []types.Venue{
		planVenue("First", types.PriceLow, 4.5, 15, 100, 100, 200),
		planVenue("Second", types.PriceLow, 4.2, 5, 300, 100, 200),
	}
	plan, err := newPlanService().Plan(context.Background(), catalog, types.PlanRequest{
		Budget: types.PriceLow, Stops: 2,
	})
	require.NoError(t, err)
	require.Len(t, plan.Stops, 2)

	assert.Equal(t, "11:00", plan.Stops[0].EstimatedArrival)
	// 11:00 + 45 meal + 15 wait + 10 walk = 12:10.
	assert.Equal(t, "12:10", plan.Stops[1].EstimatedArrival)
}

func TestPlanStopCountBounds(t *testing.T) {
	svc := newPlanService()
	_, err := svc.Plan(context.Background(), planCatalog(), types.PlanRequest{Budget: types.PriceMid, Stops: 1})
	assert.Error(t, err)
	_, err = svc.Plan(context.Background(), planCatalog(), types.PlanRequest{Budget: types.PriceMid, Stops: 6})
	assert.Error(t, err)
}

func TestPlanCuisineFilter(t *testing.T) {
	catalog := planCatalog()
	catalog = append(catalog, types.Venue{
		ID: uuid.New(), Kind: types.KindRestaurant, Name: "Dessert Bar",
		Cuisine: "Dessert", Rating: 4.9, PriceTier: types.PriceLow, TotalTables: 5,
	})

	plan, err := newPlanService().Plan(context.Background(), catalog, types.PlanRequest{
		Budget: types.PriceMid, Stops: 5, Cuisine: "dessert",
	})
	require.NoError(t, err)
	require.Len(t, plan.Stops, 1)
	assert.Equal(t, "Dessert Bar", plan.Stops[0].Venue.Name)
}

func TestPlanSummaries(t *testing.T) {
	plan, err := newPlanService().Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceLow, Stops: 2,
	})
	require.NoError(t, err)

	// (100+200)/2 + (120+240)/2 = 150 + 180 = 330; waits 10 + 20 = 30.
	assert.InDelta(t, 330, plan.TotalBudget, 1e-9)
	assert.Equal(t, 30, plan.TotalWait)
}

func TestRemoveStopRenumbersContiguously(t *testing.T) {
	svc := newPlanService()
	plan, err := svc.Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceMid, Stops: 4,
	})
	require.NoError(t, err)
	require.Len(t, plan.Stops, 4)

	updated, err := svc.RemoveStop(context.Background(), plan.ID, 2)
	require.NoError(t, err)
	require.Len(t, updated.Stops, 3)
	for i, stop := range updated.Stops {
		assert.Equal(t, i+1, stop.Order)
	}
}

func TestRemoveStopPreservesArrivalTimes(t *testing.T) {
	svc := newPlanService()
	plan, err := svc.Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceMid, Stops: 3,
	})
	require.NoError(t, err)
	require.Len(t, plan.Stops, 3)
	thirdArrival := plan.Stops[2].EstimatedArrival

	updated, err := svc.RemoveStop(context.Background(), plan.ID, 1)
	require.NoError(t, err)
	// Times are not rebuilt after removal.
	assert.Equal(t, thirdArrival, updated.Stops[1].EstimatedArrival)
}

func TestRemoveStopUnknownPlan(t *testing.T) {
	_, err := newPlanService().RemoveStop(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestGenerateParsesFencedJSON(t *testing.T) {
	ai := &MockAIClient{}
	ai.On("GenerateContent", mock.Anything, mock.Anything).Return(
		"```json\n{\"itinerary_name\":\"Bangkok Bites\",\"overall_description\":\"Two days of food\",\"days\":[{\"day\":1,\"activities\":[\"Jeh O Chula\"]}]}\n```", nil)

	svc := NewServiceImpl(ai, slog.Default())
	out, err := svc.Generate(context.Background(), types.GenerateRequest{Location: "Bantadthong", Days: 2})
	require.NoError(t, err)
	assert.Equal(t, "Bangkok Bites", out.Name)
	require.Len(t, out.Days, 1)
	assert.Equal(t, []string{"Jeh O Chula"}, out.Days[0].Activities)
}

func TestGenerateMalformedJSONIsRecoverable(t *testing.T) {
	ai := &MockAIClient{}
	ai.On("GenerateContent", mock.Anything, mock.Anything).Return("sorry, I cannot do that", nil)

	svc := NewServiceImpl(ai, slog.Default())
	_, err := svc.Generate(context.Background(), types.GenerateRequest{Location: "Bantadthong", Days: 1})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetPlanReturnsIsolatedCopy(t *testing.T) {
	svc := newPlanService()
	plan, err := svc.Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceMid, Stops: 4,
	})
	require.NoError(t, err)

	got, err := svc.GetPlan(context.Background(), plan.ID)
	require.NoError(t, err)
	got.Stops[0].Order = 99
	got.TotalWait = -1

	fresh, err := svc.GetPlan(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Stops[0].Order)
	assert.Equal(t, plan.TotalWait, fresh.TotalWait)
}

func TestConcurrentRemoveStopAndGetPlan(t *testing.T) {
	svc := newPlanService()
	plan, err := svc.Plan(context.Background(), planCatalog(), types.PlanRequest{
		Budget: types.PriceMid, Stops: 4,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if p, err := svc.GetPlan(context.Background(), plan.ID); err == nil {
				if _, err := json.Marshal(p); err != nil {
					t.Error(err)
					return
				}
			}
		}
	}()
	go func() {
		defer wg.Done()
		for {
			if _, err := svc.RemoveStop(context.Background(), plan.ID, 1); err != nil {
				return
			}
		}
	}()
	wg.Wait()

	final, err := svc.GetPlan(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Empty(t, final.Stops)
}
