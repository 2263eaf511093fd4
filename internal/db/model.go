package db

import "time"

// LinkRecord is a tracked source page and its download completeness state
type LinkRecord struct {
	ID                   int64     `db:"id" json:"id"`
	Path                 string    `db:"path" json:"path"`
	Name                 string    `db:"name" json:"name"`
	IsReachable          bool      `db:"is_reachable" json:"isReachable"`
	IsDownloaded         bool      `db:"is_downloaded" json:"isDownloaded"`
	Progress             int       `db:"progress" json:"progress"`
	Mediafiles           int       `db:"mediafiles" json:"mediafiles"`
	DownloadedMediafiles int       `db:"downloaded_mediafiles" json:"downloadedMediafiles"`
	DuplicateID          *int64    `db:"duplicate_id" json:"duplicateId,omitempty"`
	DuplicatePath        *string   `db:"duplicate_path" json:"duplicatePath,omitempty"`
	DateCreate           time.Time `db:"date_create" json:"dateCreate"`
	DateUpdate           time.Time `db:"date_update" json:"dateUpdate"`
}

// Counters is the reconciled download state written back to a link
type Counters struct {
	Mediafiles           int  `json:"mediafiles"`
	DownloadedMediafiles int  `json:"downloadedMediafiles"`
	Progress             int  `json:"progress"`
	IsDownloaded         bool `json:"isDownloaded"`
}

// Counters returns the link's current counter values
func (l *LinkRecord) Counters() Counters {
	return Counters{
		Mediafiles:           l.Mediafiles,
		DownloadedMediafiles: l.DownloadedMediafiles,
		Progress:             l.Progress,
		IsDownloaded:         l.IsDownloaded,
	}
}

// LinkFilter selects links for listing.
// When ShowDuplicate is set only links annotated as duplicates are returned.
type LinkFilter struct {
	IsReachable   bool
	ShowDuplicate bool
}

// MediaFile is a single downloaded media asset, stored once and identified by path
type MediaFile struct {
	ID        int64     `db:"id" json:"id"`
	Path      string    `db:"path" json:"path"`
	Name      string    `db:"name" json:"name"`
	Hash      string    `db:"hash" json:"hash"`
	Size      int64     `db:"size" json:"size"`
	DateAdded time.Time `db:"date_added" json:"dateAdded"`
}

// Schema is the Postgres schema for the links, mediafiles and mediafiles_links tables
const Schema = `
CREATE TABLE IF NOT EXISTS links (
    id SERIAL PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    is_downloaded BOOLEAN NOT NULL DEFAULT FALSE,
    progress INTEGER NOT NULL DEFAULT 0,
    downloaded_mediafiles INTEGER NOT NULL DEFAULT 0,
    mediafiles INTEGER NOT NULL DEFAULT 0,
    date_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    date_create TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    is_reachable BOOLEAN NOT NULL DEFAULT TRUE,
    duplicate_id INTEGER DEFAULT NULL REFERENCES links(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS mediafiles (
    id SERIAL PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    hash TEXT NOT NULL,
    size BIGINT NOT NULL,
    date_added TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS mediafiles_links (
    link_id INTEGER NOT NULL REFERENCES links(id) ON DELETE CASCADE,
    mediafile_id INTEGER NOT NULL REFERENCES mediafiles(id) ON DELETE CASCADE,
    PRIMARY KEY (link_id, mediafile_id)
);

CREATE INDEX IF NOT EXISTS idx_mediafiles_hash ON mediafiles(hash);
`

// SQLiteSchema is the SQLite flavour of Schema
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS links (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    is_downloaded BOOLEAN NOT NULL DEFAULT 0,
    progress INTEGER NOT NULL DEFAULT 0,
    downloaded_mediafiles INTEGER NOT NULL DEFAULT 0,
    mediafiles INTEGER NOT NULL DEFAULT 0,
    date_update DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    date_create DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    is_reachable BOOLEAN NOT NULL DEFAULT 1,
    duplicate_id INTEGER DEFAULT NULL REFERENCES links(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS mediafiles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    hash TEXT NOT NULL,
    size INTEGER NOT NULL,
    date_added DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS mediafiles_links (
    link_id INTEGER NOT NULL REFERENCES links(id) ON DELETE CASCADE,
    mediafile_id INTEGER NOT NULL REFERENCES mediafiles(id) ON DELETE CASCADE,
    PRIMARY KEY (link_id, mediafile_id)
);

CREATE INDEX IF NOT EXISTS idx_mediafiles_hash ON mediafiles(hash);
`
