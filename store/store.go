// Package store keeps per-task file records as JSON files on disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"

	"github.com/avisram/loom"
)

// maxPreviewGraphemes caps stored previews. Counted in grapheme clusters so
// emoji and combining sequences are never split.
const maxPreviewGraphemes = 200

// Dir is a FileStore backed by one JSON file per task under a root directory.
type Dir struct {
	root string
	mu   sync.Mutex
}

var _ loom.FileStore = (*Dir)(nil)

// New creates a Dir store rooted at the given directory. The directory is
// created on first write.
func New(root string) *Dir {
	return &Dir{root: root}
}

// FilesForTask returns the records stored for a task. A task with no stored
// records yields an empty slice and no error.
func (d *Dir) FilesForTask(taskID string) ([]loom.FileRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(taskID)
}

// Add stores a record for a task, assigning a fresh ID when the record has
// none and trimming the preview to a bounded number of grapheme clusters.
// The stored record is returned.
func (d *Dir) Add(taskID string, rec loom.FileRecord) (loom.FileRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Preview = trimPreview(rec.Preview)

	d.mu.Lock()
	defer d.mu.Unlock()

	records, err := d.load(taskID)
	if err != nil {
		return loom.FileRecord{}, err
	}
	records = append(records, rec)
	if err := d.save(taskID, records); err != nil {
		return loom.FileRecord{}, err
	}
	return rec, nil
}

func (d *Dir) path(taskID string) string {
	return filepath.Join(d.root, taskID+".json")
}

func (d *Dir) load(taskID string) ([]loom.FileRecord, error) {
	data, err := os.ReadFile(d.path(taskID))
	if os.IsNotExist(err) {
		return []loom.FileRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	var records []loom.FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal store file: %w", err)
	}
	return records, nil
}

func (d *Dir) save(taskID string, records []loom.FileRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.MkdirAll(d.root, 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	path := d.path(taskID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// trimPreview keeps the first maxPreviewGraphemes grapheme clusters of s.
func trimPreview(s string) string {
	if uniseg.GraphemeClusterCount(s) <= maxPreviewGraphemes {
		return s
	}
	g := uniseg.NewGraphemes(s)
	end := 0
	for i := 0; i < maxPreviewGraphemes && g.Next(); i++ {
		_, end = g.Positions()
	}
	return s[:end]
}
