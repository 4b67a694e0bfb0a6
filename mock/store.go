// Package mock provides test doubles for loom interfaces using function fields.
package mock

import "github.com/avisram/loom"

// Interface compliance check.
var _ loom.FileStore = (*FileStore)(nil)

// FileStore is a test double for loom.FileStore.
// Set FilesForTaskFn before calling FilesForTask.
type FileStore struct {
	FilesForTaskFn func(taskID string) ([]loom.FileRecord, error)
}

// FilesForTask delegates to FilesForTaskFn.
func (s *FileStore) FilesForTask(taskID string) ([]loom.FileRecord, error) {
	return s.FilesForTaskFn(taskID)
}
