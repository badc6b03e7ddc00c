package calendar

// Bounds describes how a query result has been bounded relative to the full
// underlying data set. Adapted from runtime/agent.Bounds / BoundedResult:
// generalized here from tool-result truncation to
// calendar-query truncation. Engine.Upcoming returns one alongside its
// events; AvailableSlots returns no Bounds, and the getUpcomingEvents
// dispatch operation does not include the Bounds in its result.
//
// Returned reports how many items are present in the bounded view. Total,
// when non-nil, reports the best-effort total before truncation. Truncated
// indicates whether a cap was applied. RefinementHint gives short,
// human-readable guidance for narrowing the query when Truncated is true.
type Bounds struct {
	Returned       int
	Total          *int
	Truncated      bool
	RefinementHint string
}

func boundsFor(returned, total int, limit *int) Bounds {
	if limit == nil || *limit <= 0 || total <= *limit {
		return Bounds{Returned: returned, Total: intPtr(total)}
	}
	return Bounds{
		Returned:       returned,
		Total:          intPtr(total),
		Truncated:      true,
		RefinementHint: "narrow the time window or request a smaller limit",
	}
}

func intPtr(v int) *int { return &v }
