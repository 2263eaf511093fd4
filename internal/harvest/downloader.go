package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"
)

// MediaDownloader fetches one media URL into dest
type MediaDownloader interface {
	Download(ctx context.Context, sourceURL, dest string) (Candidate, error)
}

// Downloader streams the response body into dest+".part" and renames it once complete
type Downloader struct {
	client    *http.Client
	fs        FileSystem
	userAgent string
	logger    *zap.Logger
	metrics   *Metrics
}

// NewDownloader creates a new downloader writing through fs
func NewDownloader(client *http.Client, fs FileSystem, userAgent string, logger *zap.Logger, metrics *Metrics) *Downloader {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if fs == nil {
		fs = OSFileSystem{}
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Downloader{
		client:    client,
		fs:        fs,
		userAgent: userAgent,
		logger:    logger.Named("downloader"),
		metrics:   metrics,
	}
}

func (d *Downloader) Download(ctx context.Context, sourceURL, dest string) (c Candidate, err error) {
	var written int64
	defer func() {
		d.metrics.download(ctx, err, written)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return Candidate{}, fmt.Errorf("build request for %s: %w", sourceURL, err)
	}
	req.Header.Set("User-Agent", resolveUserAgent(d.userAgent))

	resp, err := d.client.Do(req)
	if err != nil {
		return Candidate{}, fmt.Errorf("request %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Candidate{}, fmt.Errorf("request %s: unexpected status %d", sourceURL, resp.StatusCode)
	}

	partial := dest + partialSuffix
	w, err := d.fs.Create(partial)
	if err != nil {
		return Candidate{}, fmt.Errorf("create %s: %w", partial, err)
	}

	written, err = io.Copy(w, resp.Body)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		d.discard(partial)
		return Candidate{}, fmt.Errorf("write %s: %w", partial, err)
	}

	if err = d.fs.Rename(partial, dest); err != nil {
		d.discard(partial)
		return Candidate{}, fmt.Errorf("finalize %s: %w", dest, err)
	}

	hash, err := HashFile(d.fs, dest)
	if err != nil {
		// an unhashed file would count as present without ever getting a row
		d.discard(dest)
		return Candidate{}, err
	}

	d.logger.Debug("media downloaded",
		zap.String("url", sourceURL),
		zap.String("path", dest),
		zap.Int64("bytes", written))

	return Candidate{
		Name:      filepath.Base(dest),
		Path:      dest,
		Hash:      hash,
		Size:      written,
		SourceURL: sourceURL,
	}, nil
}

func (d *Downloader) discard(path string) {
	if err := d.fs.Remove(path); err != nil {
		d.logger.Warn("failed to remove unfinished download", zap.String("path", path), zap.Error(err))
	}
}
