package harvest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaibs3/mediavault/internal/db"
	"go.uber.org/zap"
)

// Store is the persistence the engine reconciles against
type Store interface {
	GetLink(ctx context.Context, id int64) (*db.LinkRecord, error)
	UpdateCounters(ctx context.Context, id int64, counters db.Counters) error
	SetDuplicate(ctx context.Context, id, duplicateID int64) error
	CreateMediaFile(ctx context.Context, linkID int64, mf db.MediaFile) (*db.MediaFile, error)
	ListMediaFilesForLink(ctx context.Context, linkID int64) ([]db.MediaFile, error)
}

const (
	// DefaultMaxConcurrentDownloads bounds the downloads of one batch
	DefaultMaxConcurrentDownloads = 5
	// DefaultProbeTimeout bounds the HEAD request checking a high resolution variant
	DefaultProbeTimeout = 5 * time.Second
)

// DefaultExtensions is the media allow-list applied to extracted URLs
var DefaultExtensions = []string{"jpeg", "jpg", "mp4", "png", "gif", "webp"}

type EngineConfig struct {
	MediaRoot              string
	MaxConcurrentDownloads int
	Extensions             []string
	SiteRules              SiteRules
}

// Deps are the collaborators of an Engine. Nil members get the production defaults
// except Store, which is required.
type Deps struct {
	Store      Store
	Fetcher    PageFetcher
	FS         FileSystem
	Upgrader   Upgrader
	Downloader MediaDownloader
	Extractor  *Extractor
	Logger     *zap.Logger
	Metrics    *Metrics
}

// Engine keeps page state, files on disk and persisted link counters consistent
type Engine struct {
	cfg        EngineConfig
	store      Store
	fetcher    PageFetcher
	fs         FileSystem
	upgrader   Upgrader
	downloader MediaDownloader
	extractor  *Extractor
	scheduler  *Scheduler
	logger     *zap.Logger
}

// NewEngine creates a new engine, filling unset config and collaborators with defaults
func NewEngine(cfg EngineConfig, deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if cfg.SiteRules == nil {
		cfg.SiteRules = DefaultSiteRules
	}
	if cfg.MaxConcurrentDownloads < 1 {
		cfg.MaxConcurrentDownloads = DefaultMaxConcurrentDownloads
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = append([]string(nil), DefaultExtensions...)
	}

	e := &Engine{
		cfg:        cfg,
		store:      deps.Store,
		fetcher:    deps.Fetcher,
		fs:         deps.FS,
		upgrader:   deps.Upgrader,
		downloader: deps.Downloader,
		extractor:  deps.Extractor,
		logger:     logger.Named("engine"),
	}
	if e.fetcher == nil {
		e.fetcher = NewHTTPPageFetcher(nil, 0, "")
	}
	if e.fs == nil {
		e.fs = OSFileSystem{}
	}
	// one client without an overall timeout so large videos are not cut short
	client := NewHTTPClient(0)
	if e.upgrader == nil {
		e.upgrader = NewResolutionUpgrader(client, DefaultProbeTimeout, "", logger, metrics)
	}
	if e.downloader == nil {
		e.downloader = NewDownloader(client, e.fs, "", logger, metrics)
	}
	if e.extractor == nil {
		e.extractor = NewExtractor(nil)
	}
	e.scheduler = NewScheduler(cfg.MaxConcurrentDownloads, logger, metrics)
	return e
}

// LinkDir is the directory media of link is stored in
func (e *Engine) LinkDir(link *db.LinkRecord) (string, error) {
	name := strings.Trim(link.Name, "/")
	if name == "" || strings.Contains(name, "..") {
		return "", fmt.Errorf("link %d has unusable name %q: %w", link.ID, link.Name, ErrInvalidLinkPath)
	}
	return filepath.Join(e.cfg.MediaRoot, filepath.FromSlash(name)), nil
}

// DownloadFiles fetches the link's page and downloads every allowed media file not yet on disk
func (e *Engine) DownloadFiles(ctx context.Context, linkID int64) (Result, error) {
	link, err := e.store.GetLink(ctx, linkID)
	if err != nil {
		return Result{}, err
	}
	dir, err := e.LinkDir(link)
	if err != nil {
		return Result{}, err
	}
	log := e.logger.With(zap.Int64("link_id", link.ID), zap.String("link", link.Path))

	page, err := e.fetcher.Fetch(ctx, link.Path)
	if err != nil {
		log.Warn("page unreachable, nothing downloaded", zap.Error(err))
		return failed("page %s is unreachable", link.Path), nil
	}

	targets, err := e.targets(link, page)
	if err != nil {
		return Result{}, err
	}

	if err := e.fs.MkdirAll(dir); err != nil {
		log.Error("failed to create media directory", zap.String("dir", dir), zap.Error(err))
	}

	present := 0
	var pending []target
	for _, t := range targets {
		if e.fs.Exists(filepath.Join(dir, t.FileName)) {
			present++
			continue
		}
		pending = append(pending, t)
	}

	tasks := make([]Task, len(pending))
	for i, t := range pending {
		tasks[i] = e.downloadTask(t.URL, filepath.Join(dir, t.FileName))
	}
	outcomes := e.scheduler.Run(ctx, tasks)

	// files already on disk must be recorded even if the caller went away mid batch
	ctx = context.WithoutCancel(ctx)

	downloaded := 0
	var persistErrs []error
	for i, o := range outcomes {
		if !o.OK() {
			log.Warn("download failed", zap.String("url", pending[i].URL), zap.Error(o.Err))
			continue
		}
		downloaded++
		if _, err := e.store.CreateMediaFile(ctx, link.ID, o.Candidate.MediaFile()); err != nil {
			persistErrs = append(persistErrs, err)
		}
	}

	counters := ComputeCounters(present+downloaded, len(targets))
	if err := e.store.UpdateCounters(ctx, link.ID, counters); err != nil {
		return Result{}, err
	}
	if len(persistErrs) > 0 {
		return Result{}, fmt.Errorf("persist downloaded mediafiles: %w", errors.Join(persistErrs...))
	}

	log.Info("download finished",
		zap.Int("candidates", len(targets)),
		zap.Int("present", present),
		zap.Int("downloaded", downloaded),
		zap.Int("failed", len(pending)-downloaded))

	return succeeded("downloaded %d of %d new files, %d of %d present (%d%%)",
		downloaded, len(pending), counters.DownloadedMediafiles, counters.Mediafiles, counters.Progress), nil
}

func (e *Engine) downloadTask(sourceURL, dest string) Task {
	return func(ctx context.Context) (Candidate, error) {
		return e.downloader.Download(ctx, e.upgrader.Upgrade(ctx, sourceURL), dest)
	}
}

// targets extracts the allowed media of page, applying the rules for the link's site
func (e *Engine) targets(link *db.LinkRecord, page string) ([]target, error) {
	absoluteOnly, baseDomain := e.cfg.SiteRules.For(link.Path)
	urls, err := e.extractor.Extract(page, absoluteOnly, baseDomain)
	if err != nil {
		return nil, fmt.Errorf("extract media of link %d: %w", link.ID, err)
	}
	return mediaTargets(urls, link.Path, e.cfg.Extensions), nil
}

// CheckDownloaded reconciles the counters of a link from its directory and its page without downloading
func (e *Engine) CheckDownloaded(ctx context.Context, linkID int64) (Result, error) {
	link, err := e.store.GetLink(ctx, linkID)
	if err != nil {
		return Result{}, err
	}
	dir, err := e.LinkDir(link)
	if err != nil {
		return Result{}, err
	}

	dirExists := e.fs.DirExists(dir)
	page, fetchErr := e.fetcher.Fetch(ctx, link.Path)
	pageFound := fetchErr == nil
	if !pageFound {
		e.logger.Debug("page not found while checking", zap.Int64("link_id", link.ID), zap.Error(fetchErr))
	}

	switch {
	case !dirExists && !pageFound:
		return succeeded("%s does not exist and page not found, cannot determine download state", dir), nil

	case dirExists && !pageFound:
		files, err := e.fs.ListFiles(dir)
		if err != nil {
			return Result{}, fmt.Errorf("list %s: %w", dir, err)
		}
		if len(files) == 0 {
			return succeeded("%s is empty and page not found", dir), nil
		}
		counters := ComputeCounters(len(files), len(files))
		if err := e.store.UpdateCounters(ctx, link.ID, counters); err != nil {
			return Result{}, err
		}
		return succeeded("%d files found in %s, page not found, marked as downloaded", len(files), dir), nil

	case dirExists && pageFound:
		targets, err := e.targets(link, page)
		if err != nil {
			return Result{}, err
		}
		files, err := e.fs.ListFiles(dir)
		if err != nil {
			return Result{}, fmt.Errorf("list %s: %w", dir, err)
		}
		counters := ComputeCounters(len(files), len(targets))
		if err := e.store.UpdateCounters(ctx, link.ID, counters); err != nil {
			return Result{}, err
		}
		return succeeded("%d of %d files downloaded (%d%%)", counters.DownloadedMediafiles, counters.Mediafiles, counters.Progress), nil

	default:
		targets, err := e.targets(link, page)
		if err != nil {
			return Result{}, err
		}
		counters := ComputeCounters(0, len(targets))
		if err := e.store.UpdateCounters(ctx, link.ID, counters); err != nil {
			return Result{}, err
		}
		return succeeded("%s does not exist, %d files to download", dir, counters.Mediafiles), nil
	}
}

// ScanFilesForLink records files found in the link's directory that are not yet tracked.
// Rows of files missing from disk are left alone.
func (e *Engine) ScanFilesForLink(ctx context.Context, linkID int64) (Result, error) {
	link, err := e.store.GetLink(ctx, linkID)
	if err != nil {
		return Result{}, err
	}
	dir, err := e.LinkDir(link)
	if err != nil {
		return Result{}, err
	}
	if !e.fs.DirExists(dir) {
		return succeeded("%s does not exist", dir), nil
	}

	files, err := e.fs.ListFiles(dir)
	if err != nil {
		return Result{}, fmt.Errorf("list %s: %w", dir, err)
	}
	known, err := e.store.ListMediaFilesForLink(ctx, link.ID)
	if err != nil {
		return Result{}, err
	}
	tracked := make(map[string]struct{}, len(known))
	for _, mf := range known {
		tracked[mf.Path] = struct{}{}
	}

	inserted := 0
	for _, f := range files {
		full := filepath.Join(dir, f.Name)
		if _, ok := tracked[filepath.ToSlash(full)]; ok {
			continue
		}
		hash, err := HashFile(e.fs, full)
		if err != nil {
			e.logger.Warn("skipping unreadable file", zap.String("path", full), zap.Error(err))
			continue
		}
		size, err := e.fs.Size(full)
		if err != nil {
			size = f.Size
		}
		c := Candidate{Name: f.Name, Path: full, Hash: hash, Size: size}
		if _, err := e.store.CreateMediaFile(ctx, link.ID, c.MediaFile()); err != nil {
			return Result{}, err
		}
		inserted++
	}

	e.logger.Info("scan finished",
		zap.Int64("link_id", link.ID),
		zap.Int("files", len(files)),
		zap.Int("inserted", inserted))
	return succeeded("%d files in %s, %d new", len(files), dir, inserted), nil
}

// AddDuplicate annotates linkID as a duplicate of duplicateID. No media is moved or merged.
func (e *Engine) AddDuplicate(ctx context.Context, linkID, duplicateID int64) (Result, error) {
	if linkID == duplicateID {
		return failed("link %d cannot be a duplicate of itself", linkID), nil
	}
	if _, err := e.store.GetLink(ctx, linkID); err != nil {
		return Result{}, err
	}
	dup, err := e.store.GetLink(ctx, duplicateID)
	if err != nil {
		return Result{}, err
	}
	if err := e.store.SetDuplicate(ctx, linkID, duplicateID); err != nil {
		return Result{}, err
	}
	return succeeded("link %d tagged as duplicate of %s", linkID, dup.Path), nil
}
