package recommend

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubb-app/bantadthong/internal/types"
)

func testVenue(name string, tier types.PriceTier, rating float64, wait, total, available int) types.Venue {
	return types.Venue{
		ID:              uuid.New(),
		Kind:            types.KindRestaurant,
		Name:            name,
		Cuisine:         "Thai",
		Rating:          rating,
		PriceTier:       tier,
		WaitTime:        wait,
		TotalTables:     total,
		TablesAvailable: available,
		OpenHours:       "11:00 - 22:00",
	}
}

func testCatalog() []types.Venue {
	return []types.Venue{
		testVenue("A", types.PriceLow, 4.5, 10, 10, 5),
		testVenue("B", types.PriceMid, 4.8, 30, 12, 2),
		testVenue("C", types.PriceLow, 3.9, 5, 8, 8),
		testVenue("D", types.PriceHigh, 4.9, 40, 10, 1),
		testVenue("E", types.PriceMid, 4.2, 15, 20, 10),
	}
}

func newService() *ServiceImpl {
	return NewServiceImpl(slog.Default())
}

func TestRecommendPriceFilterSubset(t *testing.T) {
	tier := types.PriceLow
	results := newService().Recommend(context.Background(), testCatalog(), types.Intent{Price: &tier})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, types.PriceLow, r.Venue.PriceTier)
	}
}

func TestRecommendCheapPairRankedByScore(t *testing.T) {
	tier := types.PriceLow
	results := newService().Recommend(context.Background(), testCatalog(), types.Intent{Price: &tier})

	require.Len(t, results, 2)
	// A: 4.5*10 + 0.5*5 - 1 = 46.5; C: 3.9*10 + 1*5 - 0.5 = 43.5
	assert.Equal(t, "A", results[0].Venue.Name)
	assert.Equal(t, "C", results[1].Venue.Name)
	assert.InDelta(t, 46.5, results[0].Score, 1e-9)
	assert.InDelta(t, 43.5, results[1].Score, 1e-9)
}

func TestRecommendAtMostThreeNonIncreasing(t *testing.T) {
	results := newService().Recommend(context.Background(), testCatalog(), types.Intent{})

	require.LessOrEqual(t, len(results), 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRecommendWaitCeilings(t *testing.T) {
	none := types.WaitNone
	short := types.WaitShort

	results := newService().Recommend(context.Background(), testCatalog(), types.Intent{Wait: &none})
	for _, r := range results {
		assert.LessOrEqual(t, r.Venue.WaitTime, 15)
	}

	results = newService().Recommend(context.Background(), testCatalog(), types.Intent{Wait: &short})
	for _, r := range results {
		assert.LessOrEqual(t, r.Venue.WaitTime, 25)
	}
}

func TestRecommendEmptyWhenAllFiltered(t *testing.T) {
	catalog := testCatalog()
	high := types.PriceHigh
	none := types.WaitNone
	// High tier + no wait eliminates everything: D waits 40 minutes.
	results := newService().Recommend(context.Background(), catalog, types.Intent{Price: &high, Wait: &none})
	assert.Empty(t, results)
}

func TestRecommendDoesNotMutateVenues(t *testing.T) {
	catalog := testCatalog()
	before := make([]types.Venue, len(catalog))
	copy(before, catalog)

	newService().Recommend(context.Background(), catalog, types.Intent{Spicy: true, Group: true})
	newService().TopRated(context.Background(), catalog)

	assert.Equal(t, before, catalog)
	for _, v := range catalog {
		assert.True(t, v.Valid())
	}
}

func TestRecommendGroupHeuristic(t *testing.T) {
	small := testVenue("Tiny", types.PriceLow, 4.9, 5, 4, 2)
	tagged := testVenue("Tagged", types.PriceLow, 4.0, 5, 4, 2)
	tagged.KnownFor = []string{"group friendly"}
	big := testVenue("Big", types.PriceLow, 4.1, 5, 16, 8)

	results := newService().Recommend(context.Background(), []types.Venue{small, tagged, big}, types.Intent{Group: true})

	require.Len(t, results, 2)
	names := []string{results[0].Venue.Name, results[1].Venue.Name}
	assert.Contains(t, names, "Tagged")
	assert.Contains(t, names, "Big")
}

func TestRecommendLandmarksExcluded(t *testing.T) {
	landmark := types.Venue{ID: uuid.New(), Kind: types.KindLandmark, Name: "Temple", Rating: 5}
	results := newService().TopRated(context.Background(), []types.Venue{landmark})
	assert.Empty(t, results)
}

func TestRecommendStableTieBreak(t *testing.T) {
	first := testVenue("First", types.PriceMid, 4.0, 10, 10, 5)
	second := testVenue("Second", types.PriceMid, 4.0, 10, 10, 5)

	results := newService().Recommend(context.Background(), []types.Venue{first, second}, types.Intent{})
	require.Len(t, results, 2)
	assert.Equal(t, "First", results[0].Venue.Name)
	assert.Equal(t, "Second", results[1].Venue.Name)
}
