package store

import (
	"context"
	"sync"
	"testing"

	"github.com/shaibs3/mediavault/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryProvider_Contract(t *testing.T) {
	runProviderContract(t, NewInMemoryProvider())
}

func TestInMemoryProvider_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	p := NewInMemoryProvider()
	link, err := p.CreateLink(ctx, "https://site.com/a/b", "b")
	require.NoError(t, err)

	link.Progress = 42
	got, err := p.GetLink(ctx, link.ID)
	require.NoError(t, err)
	require.Zero(t, got.Progress)
}

func TestInMemoryProvider_ConcurrentMediaFiles(t *testing.T) {
	ctx := context.Background()
	p := NewInMemoryProvider()
	link, err := p.CreateLink(ctx, "https://site.com/a/b", "b")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.CreateMediaFile(ctx, link.ID, db.MediaFile{Path: "result/b/same.jpg", Name: "same.jpg"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	files, err := p.ListMediaFilesForLink(ctx, link.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestInMemoryProvider_RemoveLinkClearsDuplicates(t *testing.T) {
	ctx := context.Background()
	p := NewInMemoryProvider()
	a, err := p.CreateLink(ctx, "https://site.com/a/one", "one")
	require.NoError(t, err)
	b, err := p.CreateLink(ctx, "https://site.com/a/two", "two")
	require.NoError(t, err)

	require.NoError(t, p.SetDuplicate(ctx, b.ID, a.ID))
	require.NoError(t, p.RemoveLink(ctx, a.ID))

	got, err := p.GetLink(ctx, b.ID)
	require.NoError(t, err)
	require.Nil(t, got.DuplicateID)
	require.Nil(t, got.DuplicatePath)
}
