package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shaibs3/mediavault/internal/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var linkRowColumns = []string{
	"id", "path", "name", "is_reachable", "is_downloaded", "progress",
	"mediafiles", "downloaded_mediafiles", "duplicate_id", "path", "date_create", "date_update",
}

func newMockPostgres(t *testing.T) (*PostgresProvider, sqlmock.Sqlmock) {
	t.Helper()
	dbConn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbConn.Close() })
	return newPostgresProvider(dbConn, zap.NewNop(), nil), mock
}

func TestPostgresProvider_CreateLink(t *testing.T) {
	p, mock := newMockPostgres(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO links .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs("https://site.com/a/b", "b", true, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT .* FROM links l LEFT JOIN links d .* WHERE l.id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(linkRowColumns).
			AddRow(7, "https://site.com/a/b", "b", true, false, 0, 0, 0, nil, nil, now, now))

	link, err := p.CreateLink(context.Background(), "https://site.com/a/b", "b")
	require.NoError(t, err)
	require.Equal(t, int64(7), link.ID)
	require.Nil(t, link.DuplicateID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_CreateLinkDuplicateIsNotRetried(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectQuery(`INSERT INTO links`).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Message: "duplicate key value violates unique constraint"})

	_, err := p.CreateLink(context.Background(), "https://site.com/a/b", "b")
	require.ErrorIs(t, err, ErrConstraintViolation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_GetLinkNotFound(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT .* FROM links l`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(linkRowColumns))

	_, err := p.GetLink(context.Background(), 3)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_UpdateCountersRetriesTransientErrors(t *testing.T) {
	p, mock := newMockPostgres(t)
	counters := db.Counters{Mediafiles: 4, DownloadedMediafiles: 2, Progress: 50}

	mock.ExpectExec(`UPDATE links SET mediafiles = \$1`).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectExec(`UPDATE links SET mediafiles = \$1`).
		WithArgs(4, 2, false, 50, sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.UpdateCounters(context.Background(), 1, counters))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_RemoveLinkMissingRollsBack(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM mediafiles_links WHERE link_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM links WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := p.RemoveLink(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_CreateMediaFileExistingPath(t *testing.T) {
	p, mock := newMockPostgres(t)
	now := time.Now()
	mf := db.MediaFile{Path: "result/b/a.jpg", Name: "a.jpg", Hash: "abc", Size: 3, DateAdded: now}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM links l`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(linkRowColumns).
			AddRow(1, "https://site.com/a/b", "b", true, false, 0, 0, 0, nil, nil, now, now))
	mock.ExpectQuery(`INSERT INTO mediafiles .* ON CONFLICT \(path\) DO NOTHING`).
		WithArgs(mf.Path, mf.Name, mf.Hash, mf.Size, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id FROM mediafiles WHERE path = \$1`).
		WithArgs(mf.Path).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`INSERT INTO mediafiles_links`).
		WithArgs(int64(1), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id, path, name, hash, size, date_added FROM mediafiles WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "path", "name", "hash", "size", "date_added"}).
			AddRow(9, mf.Path, mf.Name, mf.Hash, mf.Size, now))
	mock.ExpectCommit()

	stored, err := p.CreateMediaFile(context.Background(), 1, mf)
	require.NoError(t, err)
	require.Equal(t, int64(9), stored.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyPostgres(t *testing.T) {
	require.ErrorIs(t, classifyPostgres(&pq.Error{Code: pqForeignKeyViolation}), ErrNotFound)
	require.ErrorIs(t, classifyPostgres(&pq.Error{Code: pqUniqueViolation}), ErrConstraintViolation)

	other := errors.New("boom")
	require.Equal(t, other, classifyPostgres(other))
	require.Nil(t, classifyPostgres(nil))
}
