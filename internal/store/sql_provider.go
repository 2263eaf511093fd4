package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shaibs3/mediavault/internal/db"
	"go.uber.org/zap"
)

// sqlProvider implements DbProvider on top of database/sql.
// Backends supply the dialect, error classification and an execution wrapper.
type sqlProvider struct {
	db       *sql.DB
	queries  *db.Queries
	backend  DbType
	logger   *zap.Logger
	metrics  *storeMetrics
	classify func(error) error
	run      func(ctx context.Context, op string, fn func() error) error
	now      func() time.Time
}

func (p *sqlProvider) do(ctx context.Context, op string, fn func() error) error {
	started := time.Now()
	err := p.run(ctx, op, func() error {
		return p.classify(fn())
	})
	p.metrics.record(ctx, p.backend, op, started, err)
	return err
}

func (p *sqlProvider) inTx(ctx context.Context, fn func(q *db.Queries) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(p.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *sqlProvider) CreateLink(ctx context.Context, path, name string) (*db.LinkRecord, error) {
	var link *db.LinkRecord
	err := p.do(ctx, "create_link", func() error {
		id, err := p.queries.InsertLink(ctx, path, name, p.now())
		if err != nil {
			return err
		}
		link, err = p.queries.GetLink(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create link %q: %w", path, err)
	}
	return link, nil
}

func (p *sqlProvider) GetLink(ctx context.Context, id int64) (*db.LinkRecord, error) {
	var link *db.LinkRecord
	err := p.do(ctx, "get_link", func() error {
		var err error
		link, err = p.queries.GetLink(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get link %d: %w", id, err)
	}
	return link, nil
}

func (p *sqlProvider) ListLinks(ctx context.Context, filter db.LinkFilter) ([]db.LinkRecord, error) {
	var links []db.LinkRecord
	err := p.do(ctx, "list_links", func() error {
		var err error
		links, err = p.queries.ListLinks(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (p *sqlProvider) RemoveLink(ctx context.Context, id int64) error {
	err := p.do(ctx, "remove_link", func() error {
		return p.inTx(ctx, func(q *db.Queries) error {
			return expectOne(q.DeleteLink(ctx, id))
		})
	})
	if err != nil {
		return fmt.Errorf("remove link %d: %w", id, err)
	}
	return nil
}

func (p *sqlProvider) UpdateCounters(ctx context.Context, id int64, counters db.Counters) error {
	err := p.do(ctx, "update_counters", func() error {
		return expectOne(p.queries.UpdateLinkCounters(ctx, id, counters, p.now()))
	})
	if err != nil {
		return fmt.Errorf("update counters of link %d: %w", id, err)
	}
	return nil
}

func (p *sqlProvider) SetReachable(ctx context.Context, id int64, reachable bool) error {
	err := p.do(ctx, "set_reachable", func() error {
		return expectOne(p.queries.UpdateLinkReachable(ctx, id, reachable, p.now()))
	})
	if err != nil {
		return fmt.Errorf("tag link %d reachable=%t: %w", id, reachable, err)
	}
	return nil
}

func (p *sqlProvider) SetDuplicate(ctx context.Context, id, duplicateID int64) error {
	err := p.do(ctx, "set_duplicate", func() error {
		return expectOne(p.queries.UpdateLinkDuplicate(ctx, id, duplicateID, p.now()))
	})
	if err != nil {
		return fmt.Errorf("tag link %d as duplicate of %d: %w", id, duplicateID, err)
	}
	return nil
}

func (p *sqlProvider) CreateMediaFile(ctx context.Context, linkID int64, mf db.MediaFile) (*db.MediaFile, error) {
	if mf.DateAdded.IsZero() {
		mf.DateAdded = p.now()
	}
	var stored *db.MediaFile
	err := p.do(ctx, "create_mediafile", func() error {
		return p.inTx(ctx, func(q *db.Queries) error {
			if _, err := q.GetLink(ctx, linkID); err != nil {
				return err
			}
			id, created, err := q.GetOrCreateMediaFile(ctx, mf)
			if err != nil {
				return err
			}
			if err := q.LinkMediaFile(ctx, linkID, id); err != nil {
				return err
			}
			if created {
				p.logger.Debug("mediafile created", zap.Int64("mediafile_id", id), zap.String("path", mf.Path))
			}
			stored, err = q.GetMediaFile(ctx, id)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create mediafile %q for link %d: %w", mf.Path, linkID, err)
	}
	return stored, nil
}

func (p *sqlProvider) ListMediaFilesForLink(ctx context.Context, linkID int64) ([]db.MediaFile, error) {
	var files []db.MediaFile
	err := p.do(ctx, "list_mediafiles", func() error {
		var err error
		files, err = p.queries.ListMediaFilesForLink(ctx, linkID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list mediafiles of link %d: %w", linkID, err)
	}
	return files, nil
}

func (p *sqlProvider) RemoveMediaFile(ctx context.Context, id int64) error {
	err := p.do(ctx, "remove_mediafile", func() error {
		return p.inTx(ctx, func(q *db.Queries) error {
			return expectOne(q.DeleteMediaFile(ctx, id))
		})
	})
	if err != nil {
		return fmt.Errorf("remove mediafile %d: %w", id, err)
	}
	return nil
}

func (p *sqlProvider) Close() error {
	return p.db.Close()
}

func expectOne(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// classifyCommon maps driver independent errors onto the store sentinels
func classifyCommon(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
