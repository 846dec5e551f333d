package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hubb-app/bantadthong/internal/types"
)

func priceP(t types.PriceTier) *types.PriceTier        { return &t }
func waitP(w types.WaitTolerance) *types.WaitTolerance { return &w }
func timeP(s types.TimeOfDay) *types.TimeOfDay         { return &s }

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  types.Intent
	}{
		{
			name:  "cheap spicy late night",
			query: "find me cheap spicy food late at night",
			want: types.Intent{
				Price: priceP(types.PriceLow),
				Time:  timeP(types.TimeLate),
				Spicy: true,
			},
		},
		{
			name:  "no keywords yields empty intent",
			query: "hello there",
			want:  types.Intent{},
		},
		{
			name:  "multiple cuisines all kept",
			query: "thai noodles or maybe some curry",
			want: types.Intent{
				Cuisines: []string{"thai", "noodle", "curry"},
			},
		},
		{
			name:  "seafood sets flag and cuisine",
			query: "seafood for dinner",
			want: types.Intent{
				Time:     timeP(types.TimeDinner),
				Seafood:  true,
				Cuisines: []string{"seafood"},
			},
		},
		{
			name:  "fancy group with no queue",
			query: "fancy place for a group of friends, no wait please",
			want: types.Intent{
				Price: priceP(types.PriceHigh),
				Wait:  waitP(types.WaitNone),
				Group: true,
			},
		},
		{
			name:  "case insensitive",
			query: "CHEAP BREAKFAST",
			want: types.Intent{
				Price: priceP(types.PriceLow),
				Time:  timeP(types.TimeBreakfast),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.query)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	const query = "cheap spicy thai for a group"
	first := Extract(query)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Extract(query))
	}
}

func TestExtractEmpty(t *testing.T) {
	assert.True(t, Extract("").Empty())
	assert.False(t, Extract("cheap").Empty())
}
