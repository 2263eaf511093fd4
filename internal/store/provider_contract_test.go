package store

import (
	"context"
	"testing"
	"time"

	"github.com/shaibs3/mediavault/internal/db"
	"github.com/stretchr/testify/require"
)

// runProviderContract exercises the behavior every DbProvider must share
func runProviderContract(t *testing.T, p DbProvider) {
	ctx := context.Background()

	first, err := p.CreateLink(ctx, "https://site.com/album/one", "one")
	require.NoError(t, err)
	require.True(t, first.IsReachable)
	require.False(t, first.IsDownloaded)
	require.Zero(t, first.Progress)

	_, err = p.CreateLink(ctx, "https://site.com/album/one", "one")
	require.ErrorIs(t, err, ErrConstraintViolation)

	second, err := p.CreateLink(ctx, "https://site.com/album/two", "two")
	require.NoError(t, err)

	_, err = p.GetLink(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	counters := db.Counters{Mediafiles: 4, DownloadedMediafiles: 4, Progress: 100, IsDownloaded: true}
	require.NoError(t, p.UpdateCounters(ctx, first.ID, counters))
	require.ErrorIs(t, p.UpdateCounters(ctx, 9999, counters), ErrNotFound)

	got, err := p.GetLink(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, counters, got.Counters())

	// not downloaded links come first
	links, err := p.ListLinks(ctx, db.LinkFilter{IsReachable: true})
	require.NoError(t, err)
	require.Len(t, links, 2)
	require.Equal(t, second.ID, links[0].ID)
	require.Equal(t, first.ID, links[1].ID)

	require.NoError(t, p.SetReachable(ctx, second.ID, false))
	links, err = p.ListLinks(ctx, db.LinkFilter{IsReachable: false})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, second.ID, links[0].ID)

	require.NoError(t, p.SetDuplicate(ctx, second.ID, first.ID))
	links, err = p.ListLinks(ctx, db.LinkFilter{IsReachable: false, ShowDuplicate: true})
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.NotNil(t, links[0].DuplicatePath)
	require.Equal(t, "https://site.com/album/one", *links[0].DuplicatePath)

	mf := db.MediaFile{Path: "result/one/a.jpg", Name: "a.jpg", Hash: "abc", Size: 3, DateAdded: time.Now()}
	stored, err := p.CreateMediaFile(ctx, first.ID, mf)
	require.NoError(t, err)
	require.NotZero(t, stored.ID)
	require.Equal(t, "a.jpg", stored.Name)

	again, err := p.CreateMediaFile(ctx, first.ID, mf)
	require.NoError(t, err)
	require.Equal(t, stored.ID, again.ID)

	shared, err := p.CreateMediaFile(ctx, second.ID, mf)
	require.NoError(t, err)
	require.Equal(t, stored.ID, shared.ID)

	_, err = p.CreateMediaFile(ctx, 9999, mf)
	require.ErrorIs(t, err, ErrNotFound)

	files, err := p.ListMediaFilesForLink(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "abc", files[0].Hash)

	require.NoError(t, p.RemoveMediaFile(ctx, stored.ID))
	require.ErrorIs(t, p.RemoveMediaFile(ctx, stored.ID), ErrNotFound)
	files, err = p.ListMediaFilesForLink(ctx, second.ID)
	require.NoError(t, err)
	require.Empty(t, files)

	require.NoError(t, p.RemoveLink(ctx, first.ID))
	require.ErrorIs(t, p.RemoveLink(ctx, first.ID), ErrNotFound)
	_, err = p.GetLink(ctx, first.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
