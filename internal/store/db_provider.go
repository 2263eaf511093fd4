package store

import (
	"context"

	"github.com/shaibs3/mediavault/internal/db"
)

type DbProvider interface {
	CreateLink(ctx context.Context, path, name string) (*db.LinkRecord, error)
	GetLink(ctx context.Context, id int64) (*db.LinkRecord, error)
	ListLinks(ctx context.Context, filter db.LinkFilter) ([]db.LinkRecord, error)
	RemoveLink(ctx context.Context, id int64) error
	UpdateCounters(ctx context.Context, id int64, counters db.Counters) error
	SetReachable(ctx context.Context, id int64, reachable bool) error
	SetDuplicate(ctx context.Context, id, duplicateID int64) error

	// CreateMediaFile stores mf once per path and associates it with linkID
	CreateMediaFile(ctx context.Context, linkID int64, mf db.MediaFile) (*db.MediaFile, error)
	ListMediaFilesForLink(ctx context.Context, linkID int64) ([]db.MediaFile, error)
	RemoveMediaFile(ctx context.Context, id int64) error

	Close() error
}
