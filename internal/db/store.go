package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the placeholder style of the target database
type Dialect int

const (
	// DialectSQLite uses '?' placeholders
	DialectSQLite Dialect = iota
	// DialectPostgres uses '$n' placeholders
	DialectPostgres
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries holds the SQL shared by the relational store providers.
// Statements are written with '?' placeholders and rebound per dialect.
type Queries struct {
	db      DBTX
	dialect Dialect
}

// NewQueries binds the query set to a connection
func NewQueries(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

// WithTx returns a copy of the query set running inside tx
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

// Rebind rewrites '?' placeholders into the dialect's form
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (q *Queries) rebind(query string) string {
	return Rebind(q.dialect, query)
}

const linkColumns = `l.id, l.path, l.name, l.is_reachable, l.is_downloaded, l.progress,
	l.mediafiles, l.downloaded_mediafiles, l.duplicate_id, d.path, l.date_create, l.date_update`

func scanLink(row interface{ Scan(...interface{}) error }) (*LinkRecord, error) {
	var (
		link          LinkRecord
		duplicateID   sql.NullInt64
		duplicatePath sql.NullString
	)
	err := row.Scan(
		&link.ID,
		&link.Path,
		&link.Name,
		&link.IsReachable,
		&link.IsDownloaded,
		&link.Progress,
		&link.Mediafiles,
		&link.DownloadedMediafiles,
		&duplicateID,
		&duplicatePath,
		&link.DateCreate,
		&link.DateUpdate,
	)
	if err != nil {
		return nil, err
	}
	if duplicateID.Valid {
		id := duplicateID.Int64
		link.DuplicateID = &id
	}
	if duplicatePath.Valid {
		p := duplicatePath.String
		link.DuplicatePath = &p
	}
	return &link, nil
}

// InsertLink creates a reachable, not yet downloaded link and returns its ID
func (q *Queries) InsertLink(ctx context.Context, path, name string, now time.Time) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, q.rebind(`
		INSERT INTO links (path, name, is_reachable, is_downloaded, date_create, date_update)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		path, name, true, false, now, now,
	).Scan(&id)
	return id, err
}

// GetLink returns one link; sql.ErrNoRows when absent
func (q *Queries) GetLink(ctx context.Context, id int64) (*LinkRecord, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(`
		SELECT `+linkColumns+`
		FROM links l
		LEFT JOIN links d ON l.duplicate_id = d.id
		WHERE l.id = ?`), id)
	return scanLink(row)
}

// ListLinks returns links matching the filter ordered by download state
func (q *Queries) ListLinks(ctx context.Context, filter LinkFilter) ([]LinkRecord, error) {
	duplicateClause := "l.duplicate_id IS NULL"
	if filter.ShowDuplicate {
		duplicateClause = "l.duplicate_id IS NOT NULL"
	}
	rows, err := q.db.QueryContext(ctx, q.rebind(`
		SELECT `+linkColumns+`
		FROM links l
		LEFT JOIN links d ON l.duplicate_id = d.id
		WHERE l.is_reachable = ? AND `+duplicateClause+`
		ORDER BY l.is_downloaded ASC, l.id ASC`), filter.IsReachable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []LinkRecord
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

// DeleteLink removes a link and reports the number of affected rows
func (q *Queries) DeleteLink(ctx context.Context, id int64) (int64, error) {
	if _, err := q.db.ExecContext(ctx, q.rebind(`DELETE FROM mediafiles_links WHERE link_id = ?`), id); err != nil {
		return 0, err
	}
	return affected(q.db.ExecContext(ctx, q.rebind(`DELETE FROM links WHERE id = ?`), id))
}

// UpdateLinkCounters writes reconciled counters
func (q *Queries) UpdateLinkCounters(ctx context.Context, id int64, c Counters, now time.Time) (int64, error) {
	return affected(q.db.ExecContext(ctx, q.rebind(`
		UPDATE links
		SET mediafiles = ?, downloaded_mediafiles = ?, is_downloaded = ?, progress = ?, date_update = ?
		WHERE id = ?`),
		c.Mediafiles, c.DownloadedMediafiles, c.IsDownloaded, c.Progress, now, id,
	))
}

// UpdateLinkReachable sets the reachability flag
func (q *Queries) UpdateLinkReachable(ctx context.Context, id int64, reachable bool, now time.Time) (int64, error) {
	return affected(q.db.ExecContext(ctx, q.rebind(`
		UPDATE links SET is_reachable = ?, date_update = ? WHERE id = ?`),
		reachable, now, id,
	))
}

// UpdateLinkDuplicate annotates a link as a duplicate of another
func (q *Queries) UpdateLinkDuplicate(ctx context.Context, id, duplicateID int64, now time.Time) (int64, error) {
	return affected(q.db.ExecContext(ctx, q.rebind(`
		UPDATE links SET duplicate_id = ?, date_update = ? WHERE id = ?`),
		duplicateID, now, id,
	))
}

// GetOrCreateMediaFile inserts a media file if its path is unknown and returns the row ID
func (q *Queries) GetOrCreateMediaFile(ctx context.Context, mf MediaFile) (int64, bool, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, q.rebind(`
		INSERT INTO mediafiles (path, name, hash, size, date_added)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (path) DO NOTHING
		RETURNING id`),
		mf.Path, mf.Name, mf.Hash, mf.Size, mf.DateAdded,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}
	err = q.db.QueryRowContext(ctx, q.rebind(`SELECT id FROM mediafiles WHERE path = ?`), mf.Path).Scan(&id)
	return id, false, err
}

// LinkMediaFile associates a media file with a link, ignoring existing associations
func (q *Queries) LinkMediaFile(ctx context.Context, linkID, mediafileID int64) error {
	_, err := q.db.ExecContext(ctx, q.rebind(`
		INSERT INTO mediafiles_links (link_id, mediafile_id)
		VALUES (?, ?)
		ON CONFLICT (link_id, mediafile_id) DO NOTHING`),
		linkID, mediafileID,
	)
	return err
}

// GetMediaFile returns one media file; sql.ErrNoRows when absent
func (q *Queries) GetMediaFile(ctx context.Context, id int64) (*MediaFile, error) {
	var mf MediaFile
	err := q.db.QueryRowContext(ctx, q.rebind(`
		SELECT id, path, name, hash, size, date_added FROM mediafiles WHERE id = ?`), id,
	).Scan(&mf.ID, &mf.Path, &mf.Name, &mf.Hash, &mf.Size, &mf.DateAdded)
	if err != nil {
		return nil, err
	}
	return &mf, nil
}

// ListMediaFilesForLink returns all media files associated with a link
func (q *Queries) ListMediaFilesForLink(ctx context.Context, linkID int64) ([]MediaFile, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(`
		SELECT m.id, m.path, m.name, m.hash, m.size, m.date_added
		FROM mediafiles m
		JOIN mediafiles_links ml ON m.id = ml.mediafile_id
		WHERE ml.link_id = ?
		ORDER BY m.id ASC`), linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []MediaFile
	for rows.Next() {
		var mf MediaFile
		if err := rows.Scan(&mf.ID, &mf.Path, &mf.Name, &mf.Hash, &mf.Size, &mf.DateAdded); err != nil {
			return nil, err
		}
		files = append(files, mf)
	}
	return files, rows.Err()
}

// DeleteMediaFile removes a media file and its link associations
func (q *Queries) DeleteMediaFile(ctx context.Context, id int64) (int64, error) {
	if _, err := q.db.ExecContext(ctx, q.rebind(`DELETE FROM mediafiles_links WHERE mediafile_id = ?`), id); err != nil {
		return 0, err
	}
	return affected(q.db.ExecContext(ctx, q.rebind(`DELETE FROM mediafiles WHERE id = ?`), id))
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
