package loom

// Transcript is the derived presentation model for one event log: the
// ordered group list, the deduplicated artifact list, and the current
// activity label. It owns no state; callers replace their previous
// Transcript wholesale on every recomputation.
type Transcript struct {
	Groups    []Group
	Artifacts []Artifact
	Activity  string
}

// InterpretOption configures a single Interpret invocation.
type InterpretOption func(*interpretConfig)

type interpretConfig struct {
	running bool
	stored  []FileRecord
}

// WithRunning marks the stream as still open: more events may arrive, so a
// trailing open task group is left incomplete.
func WithRunning(running bool) InterpretOption {
	return func(c *interpretConfig) {
		c.running = running
	}
}

// WithStoredFiles merges previously stored file records for the task into
// the artifact output.
func WithStoredFiles(records []FileRecord) InterpretOption {
	return func(c *interpretConfig) {
		c.stored = records
	}
}

// Interpret runs the full pipeline over an event log and returns a fresh
// Transcript. It is a pure, synchronous function: deterministic for a fixed
// input, and idempotent under append — re-running on a longer log never
// changes groups that were already closed.
func Interpret(events []Event, opts ...InterpretOption) Transcript {
	var cfg interpretConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	collapsed := Collapse(events)
	artifacts := MergeStored(ExtractArtifacts(events), cfg.stored)

	return Transcript{
		Groups:    BuildGroups(collapsed, cfg.running),
		Artifacts: artifacts,
		Activity:  Activity(events),
	}
}
