package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shaibs3/mediavault/internal/db"
)

type InMemoryProvider struct {
	mu         sync.RWMutex
	links      map[int64]*db.LinkRecord
	linkPaths  map[string]int64
	media      map[int64]*db.MediaFile
	mediaPaths map[string]int64
	mediaLinks map[int64]map[int64]struct{} // link id -> media ids
	nextLinkID int64
	nextFileID int64
	now        func() time.Time
}

// NewInMemoryProvider creates an empty in-memory provider
func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{
		links:      make(map[int64]*db.LinkRecord),
		linkPaths:  make(map[string]int64),
		media:      make(map[int64]*db.MediaFile),
		mediaPaths: make(map[string]int64),
		mediaLinks: make(map[int64]map[int64]struct{}),
		nextLinkID: 1,
		nextFileID: 1,
		now:        time.Now,
	}
}

func (m *InMemoryProvider) CreateLink(ctx context.Context, path, name string) (*db.LinkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.linkPaths[path]; exists {
		return nil, fmt.Errorf("link %q already exists: %w", path, ErrConstraintViolation)
	}
	now := m.now()
	link := &db.LinkRecord{
		ID:          m.nextLinkID,
		Path:        path,
		Name:        name,
		IsReachable: true,
		DateCreate:  now,
		DateUpdate:  now,
	}
	m.nextLinkID++
	m.links[link.ID] = link
	m.linkPaths[path] = link.ID
	return m.copyLink(link), nil
}

func (m *InMemoryProvider) GetLink(ctx context.Context, id int64) (*db.LinkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	link, ok := m.links[id]
	if !ok {
		return nil, fmt.Errorf("link %d: %w", id, ErrNotFound)
	}
	return m.copyLink(link), nil
}

func (m *InMemoryProvider) ListLinks(ctx context.Context, filter db.LinkFilter) ([]db.LinkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var links []db.LinkRecord
	for _, link := range m.links {
		if link.IsReachable != filter.IsReachable {
			continue
		}
		if (link.DuplicateID != nil) != filter.ShowDuplicate {
			continue
		}
		links = append(links, *m.copyLink(link))
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].IsDownloaded != links[j].IsDownloaded {
			return !links[i].IsDownloaded
		}
		return links[i].ID < links[j].ID
	})
	return links, nil
}

func (m *InMemoryProvider) RemoveLink(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok {
		return fmt.Errorf("link %d: %w", id, ErrNotFound)
	}
	delete(m.linkPaths, link.Path)
	delete(m.links, id)
	delete(m.mediaLinks, id)
	for _, other := range m.links {
		if other.DuplicateID != nil && *other.DuplicateID == id {
			other.DuplicateID = nil
		}
	}
	return nil
}

func (m *InMemoryProvider) UpdateCounters(ctx context.Context, id int64, counters db.Counters) error {
	return m.updateLink(id, func(link *db.LinkRecord) {
		link.Mediafiles = counters.Mediafiles
		link.DownloadedMediafiles = counters.DownloadedMediafiles
		link.Progress = counters.Progress
		link.IsDownloaded = counters.IsDownloaded
	})
}

func (m *InMemoryProvider) SetReachable(ctx context.Context, id int64, reachable bool) error {
	return m.updateLink(id, func(link *db.LinkRecord) {
		link.IsReachable = reachable
	})
}

func (m *InMemoryProvider) SetDuplicate(ctx context.Context, id, duplicateID int64) error {
	return m.updateLink(id, func(link *db.LinkRecord) {
		dup := duplicateID
		link.DuplicateID = &dup
	})
}

func (m *InMemoryProvider) updateLink(id int64, mutate func(link *db.LinkRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok {
		return fmt.Errorf("link %d: %w", id, ErrNotFound)
	}
	mutate(link)
	link.DateUpdate = m.now()
	return nil
}

func (m *InMemoryProvider) CreateMediaFile(ctx context.Context, linkID int64, mf db.MediaFile) (*db.MediaFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[linkID]; !ok {
		return nil, fmt.Errorf("link %d: %w", linkID, ErrNotFound)
	}
	id, exists := m.mediaPaths[mf.Path]
	if !exists {
		id = m.nextFileID
		m.nextFileID++
		stored := mf
		stored.ID = id
		if stored.DateAdded.IsZero() {
			stored.DateAdded = m.now()
		}
		m.media[id] = &stored
		m.mediaPaths[mf.Path] = id
	}
	if m.mediaLinks[linkID] == nil {
		m.mediaLinks[linkID] = make(map[int64]struct{})
	}
	m.mediaLinks[linkID][id] = struct{}{}
	out := *m.media[id]
	return &out, nil
}

func (m *InMemoryProvider) ListMediaFilesForLink(ctx context.Context, linkID int64) ([]db.MediaFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.mediaLinks[linkID]))
	for id := range m.mediaLinks[linkID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	files := make([]db.MediaFile, 0, len(ids))
	for _, id := range ids {
		files = append(files, *m.media[id])
	}
	return files, nil
}

func (m *InMemoryProvider) RemoveMediaFile(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mf, ok := m.media[id]
	if !ok {
		return fmt.Errorf("mediafile %d: %w", id, ErrNotFound)
	}
	delete(m.mediaPaths, mf.Path)
	delete(m.media, id)
	for _, ids := range m.mediaLinks {
		delete(ids, id)
	}
	return nil
}

func (m *InMemoryProvider) Close() error {
	return nil
}

// copyLink must be called with the lock held
func (m *InMemoryProvider) copyLink(link *db.LinkRecord) *db.LinkRecord {
	out := *link
	if link.DuplicateID != nil {
		dup := *link.DuplicateID
		out.DuplicateID = &dup
		if target, ok := m.links[dup]; ok {
			p := target.Path
			out.DuplicatePath = &p
		}
	}
	return &out
}
