package harvest

import (
	"math"

	"github.com/shaibs3/mediavault/internal/db"
)

// ComputeCounters is the single place link counters are derived from.
// An empty page with nothing on disk counts as fully downloaded.
func ComputeCounters(downloaded, total int) db.Counters {
	if downloaded < 0 {
		downloaded = 0
	}
	if total < 0 {
		total = 0
	}

	c := db.Counters{
		Mediafiles:           total,
		DownloadedMediafiles: downloaded,
		IsDownloaded:         downloaded == total,
	}
	switch {
	case total == 0 && downloaded == 0:
		c.Progress = 100
	case total == 0:
		c.Progress = 0
	default:
		c.Progress = int(math.Round(float64(downloaded) / float64(total) * 100))
	}
	if c.Progress > 100 {
		c.Progress = 100
	}
	return c
}
