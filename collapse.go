package loom

import "strings"

// Collapse reduces the raw event log to the sequence GroupBuilder consumes.
// Three rules, applied in order:
//
//  1. Only the last ResultEvent in the whole stream survives; earlier ones
//     are discarded.
//  2. Within each segment, only the chronologically last TextEvent with
//     non-empty content is retained; earlier texts in the segment are
//     intermediate "thinking" output and are dropped.
//  3. A retained text whose content is byte-identical to the previously
//     retained text anywhere earlier in the stream is dropped as a repeat,
//     as is any text that looks like a serialized plan object (plans render
//     exclusively through PlanEvent).
//
// All non-text events pass through unchanged, in order.
func Collapse(events []Event) []Event {
	events = lastResultOnly(events)

	keep := make([]bool, len(events))
	for i := range keep {
		keep[i] = true
	}
	for _, seg := range segments(events) {
		found := false
		for i := seg[1] - 1; i >= seg[0]; i-- {
			t, ok := events[i].(TextEvent)
			if !ok {
				continue
			}
			if !found && strings.TrimSpace(t.Content) != "" && !looksLikePlanObject(t.Content) {
				found = true
				continue
			}
			keep[i] = false
		}
	}

	out := make([]Event, 0, len(events))
	var lastText string
	var haveText bool
	for i, ev := range events {
		if !keep[i] {
			continue
		}
		if t, ok := ev.(TextEvent); ok {
			if haveText && t.Content == lastText {
				continue
			}
			lastText, haveText = t.Content, true
		}
		out = append(out, ev)
	}
	return out
}

// lastResultOnly filters out every ResultEvent except the final one.
func lastResultOnly(events []Event) []Event {
	last := -1
	for i, ev := range events {
		if _, ok := ev.(ResultEvent); ok {
			last = i
		}
	}
	if last < 0 {
		return events
	}
	out := make([]Event, 0, len(events))
	for i, ev := range events {
		if _, ok := ev.(ResultEvent); ok && i != last {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// looksLikePlanObject reports whether text is a serialized plan proposal the
// runtime leaked into the text channel. Such content is rendered by the plan
// path only.
func looksLikePlanObject(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "{") &&
		strings.Contains(trimmed, `"type"`) &&
		strings.Contains(trimmed, `"plan"`)
}
