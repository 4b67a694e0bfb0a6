package loom

// ToolWithResult is a tool invocation joined with its result. Result is nil
// while the invocation is unresolved — a pending tool, not an error.
type ToolWithResult struct {
	Use    ToolUseEvent
	Result *ToolResultEvent
}

// Pending reports whether the invocation has no result yet.
func (t ToolWithResult) Pending() bool { return t.Result == nil }

// PairTools matches tool invocations to results by strict arrival order: the
// K-th ToolUseEvent in the stream pairs with the K-th ToolResultEvent,
// regardless of segment boundaries. Explicit ids are not consulted because
// the runtime does not reliably populate them.
//
// Precondition: the runtime emits invocations and results in matching 1:1
// order (its documented contract). If a result is dropped or reordered,
// pairing misaligns for the remainder of the stream; no correction is
// attempted here.
func PairTools(events []Event) []ToolWithResult {
	var uses []ToolUseEvent
	var results []ToolResultEvent
	for _, ev := range events {
		switch e := ev.(type) {
		case ToolUseEvent:
			uses = append(uses, e)
		case ToolResultEvent:
			results = append(results, e)
		}
	}

	pairs := make([]ToolWithResult, len(uses))
	for i, use := range uses {
		pairs[i] = ToolWithResult{Use: use}
		if i < len(results) {
			r := results[i]
			pairs[i].Result = &r
		}
	}
	return pairs
}
