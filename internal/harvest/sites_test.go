package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSiteRules_For(t *testing.T) {
	abs, base := DefaultSiteRules.For("https://ososedki.com/photos/123")
	require.True(t, abs)
	require.Empty(t, base)

	abs, base = DefaultSiteRules.For("https://telegra.ph/Title-01-01")
	require.False(t, abs)
	require.Equal(t, "https://telegra.ph", base)

	abs, base = DefaultSiteRules.For("https://example.com/gallery")
	require.False(t, abs)
	require.Empty(t, base)
}

func TestMediaTargets(t *testing.T) {
	urls := URLSet{
		"https://cdn.site/x/a.JPG?w=100":  {},
		"https://mirror.site/y/a.jpg":     {},
		"/static/b.webp":                  {},
		"https://cdn.site/c.svg":          {},
		"https://cdn.site/video/clip.mp4": {},
		"data:image/png;base64,AAAA":      {},
	}

	targets := mediaTargets(urls, "https://site.com/album/one", []string{"jpg", "webp", "mp4"})

	names := make(map[string]string)
	for _, tg := range targets {
		names[tg.FileName] = tg.URL
	}
	require.Len(t, names, 4)
	require.Contains(t, names, "a.JPG")
	require.Contains(t, names, "a.jpg")
	require.Equal(t, "https://site.com/static/b.webp", names["b.webp"])
	require.Equal(t, "https://cdn.site/video/clip.mp4", names["clip.mp4"])
}

func TestMediaTargets_DedupesByFileName(t *testing.T) {
	urls := URLSet{
		"https://a.site/p/1.png": {},
		"https://b.site/q/1.png": {},
	}
	targets := mediaTargets(urls, "https://site.com/x/y", []string{"png"})
	require.Len(t, targets, 1)
	require.Equal(t, "https://a.site/p/1.png", targets[0].URL)
}
