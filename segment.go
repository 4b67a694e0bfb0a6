package loom

// segments partitions the event sequence into conversational segments.
// A boundary falls after every UserEvent or ResultEvent (the boundary event
// belongs to the segment it closes), plus an implicit final boundary at the
// end of the sequence. Each element is a half-open [start, end) index range.
// An empty stream yields no segments.
//
// Segments scope the one-representative-text-per-segment rule: a segment is
// one back-and-forth turn, and only its final statement is meaningful.
func segments(events []Event) [][2]int {
	var segs [][2]int
	start := 0
	for i, ev := range events {
		switch ev.(type) {
		case UserEvent, ResultEvent:
			segs = append(segs, [2]int{start, i + 1})
			start = i + 1
		}
	}
	if start < len(events) {
		segs = append(segs, [2]int{start, len(events)})
	}
	return segs
}
