package types

// WaitTolerance expresses how long a user is willing to queue.
type WaitTolerance string

const (
	WaitNone  WaitTolerance = "none"  // <= 15 min
	WaitShort WaitTolerance = "short" // <= 25 min
)

// TimeOfDay is the meal slot extracted from a query.
type TimeOfDay string

const (
	TimeBreakfast TimeOfDay = "breakfast"
	TimeLunch     TimeOfDay = "lunch"
	TimeDinner    TimeOfDay = "dinner"
	TimeLate      TimeOfDay = "late"
)

// Intent is the structured preference set extracted from one free-text
// query. It is ephemeral: recomputed per message, never stored.
type Intent struct {
	Price    *PriceTier     `json:"price,omitempty"`
	Cuisines []string       `json:"cuisines,omitempty"`
	Wait     *WaitTolerance `json:"wait,omitempty"`
	Time     *TimeOfDay     `json:"time,omitempty"`
	Spicy    bool           `json:"spicy,omitempty"`
	Seafood  bool           `json:"seafood,omitempty"`
	Group    bool           `json:"group,omitempty"`
}

// Empty reports whether no preference was extracted on any axis.
func (i Intent) Empty() bool {
	return i.Price == nil && len(i.Cuisines) == 0 && i.Wait == nil &&
		i.Time == nil && !i.Spicy && !i.Seafood && !i.Group
}
