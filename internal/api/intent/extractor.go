// Package intent turns free-text restaurant queries into a structured
// preference set. Extraction is deliberately keyword matching against fixed
// vocabularies, kept as a rule table so axes can be extended without
// touching control flow.
package intent

import (
	"strings"

	"github.com/hubb-app/bantadthong/internal/types"
)

// priceRules maps keyword sets to price tiers. Axis keyword sets are
// curated to be mutually exclusive across values.
var priceRules = []struct {
	keywords []string
	tier     types.PriceTier
}{
	{[]string{"cheap", "budget", "affordable", "inexpensive"}, types.PriceLow},
	{[]string{"mid-range", "moderate", "reasonable"}, types.PriceMid},
	{[]string{"expensive", "fancy", "premium", "upscale", "fine dining"}, types.PriceHigh},
}

var waitRules = []struct {
	keywords []string
	wait     types.WaitTolerance
}{
	{[]string{"no wait", "no queue", "right away", "immediately", "quick"}, types.WaitNone},
	{[]string{"short wait", "short queue", "don't mind waiting a bit"}, types.WaitShort},
}

var timeRules = []struct {
	keywords []string
	slot     types.TimeOfDay
}{
	{[]string{"breakfast", "morning"}, types.TimeBreakfast},
	{[]string{"lunch", "midday", "noon"}, types.TimeLunch},
	{[]string{"dinner", "evening"}, types.TimeDinner},
	{[]string{"late", "night", "midnight", "after hours"}, types.TimeLate},
}

// "hot" is deliberately absent: it collides with "photo" and "hotel" under
// substring matching.
var spiceKeywords = []string{"spicy", "spice", "fiery", "chili"}

var seafoodKeywords = []string{"seafood", "fish", "prawn", "shrimp", "crab", "squid"}

var groupKeywords = []string{"group", "friends", "family", "party", "big table", "many people"}

// cuisineKeywords are matched independently; every hit is kept.
var cuisineKeywords = []string{
	"thai", "isaan", "noodle", "noodles", "curry", "suki", "seafood",
	"grill", "grilled", "street food", "dessert", "sweet",
}

// Extract parses a free-text query into an Intent. It lower-cases the
// input itself, matches by substring containment, and is pure: the same
// input always yields the same Intent.
func Extract(query string) types.Intent {
	q := strings.ToLower(query)
	var out types.Intent

	for _, rule := range priceRules {
		if containsAny(q, rule.keywords) {
			tier := rule.tier
			out.Price = &tier
			break
		}
	}

	for _, rule := range waitRules {
		if containsAny(q, rule.keywords) {
			wait := rule.wait
			out.Wait = &wait
			break
		}
	}

	for _, rule := range timeRules {
		if containsAny(q, rule.keywords) {
			slot := rule.slot
			out.Time = &slot
			break
		}
	}

	out.Spicy = containsAny(q, spiceKeywords)
	out.Seafood = containsAny(q, seafoodKeywords)
	out.Group = containsAny(q, groupKeywords)

	// Every cuisine hit is kept; synonyms collapse to one canonical tag.
	seen := map[string]bool{}
	for _, c := range cuisineKeywords {
		if strings.Contains(q, c) && !seen[normalizeCuisine(c)] {
			seen[normalizeCuisine(c)] = true
			out.Cuisines = append(out.Cuisines, normalizeCuisine(c))
		}
	}

	return out
}

func normalizeCuisine(c string) string {
	switch c {
	case "noodles":
		return "noodle"
	case "grilled":
		return "grill"
	case "sweet":
		return "dessert"
	}
	return c
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
