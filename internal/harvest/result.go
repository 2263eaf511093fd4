package harvest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shaibs3/mediavault/internal/db"
)

// Result is the uniform outcome of a reconciliation operation
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func succeeded(format string, args ...interface{}) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

func failed(format string, args ...interface{}) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Candidate describes a media file written to disk and ready to be persisted
type Candidate struct {
	Name      string
	Path      string
	Hash      string
	Size      int64
	SourceURL string
}

// MediaFile converts the candidate into its persisted form
func (c Candidate) MediaFile() db.MediaFile {
	return db.MediaFile{
		Path:      filepath.ToSlash(c.Path),
		Name:      c.Name,
		Hash:      c.Hash,
		Size:      c.Size,
		DateAdded: time.Now(),
	}
}

// Task is a deferred download producing a Candidate
type Task func(ctx context.Context) (Candidate, error)

// Outcome is the resolved value of a Task: either a Candidate or the failure reason
type Outcome struct {
	Candidate Candidate
	Err       error
}

// OK reports whether the task produced a candidate
func (o Outcome) OK() bool {
	return o.Err == nil
}
