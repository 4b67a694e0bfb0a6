package loom

import "time"

// Task is one agent task: an id plus the append-only event log produced by
// the runtime while working on it. The log is the source of truth; everything
// shown for a task is derived from it via Interpret.
type Task struct {
	ID        string
	Events    []Event
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileRecord is a file entry from the persistence collaborator: a previously
// stored record of a file the agent produced for a task. Records are merged
// into the Artifact output after structured extraction.
type FileRecord struct {
	ID      string
	Type    string
	Path    string
	Preview string
}

// FileStore looks up stored file records for a task.
type FileStore interface {
	FilesForTask(taskID string) ([]FileRecord, error)
}
