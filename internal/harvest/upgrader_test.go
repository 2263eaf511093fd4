package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHighResCandidate(t *testing.T) {
	got, ok := HighResCandidate("https://cdn.site/a/604/photo.jpg")
	require.True(t, ok)
	require.Equal(t, "https://cdn.site/a/1280/photo.jpg", got)

	got, ok = HighResCandidate("https://cdn.site/a/800/photo.jpg")
	require.False(t, ok)
	require.Equal(t, "https://cdn.site/a/800/photo.jpg", got)
}

func TestResolutionUpgrader_Upgrade(t *testing.T) {
	var probes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		probes.Add(1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/ok/a/1280/"):
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(r.URL.Path, "/slow/"):
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	u := NewResolutionUpgrader(server.Client(), 50*time.Millisecond, "test-agent", zap.NewNop(), nil)
	ctx := context.Background()

	t.Run("probe succeeds", func(t *testing.T) {
		src := server.URL + "/ok/a/604/p.jpg"
		require.Equal(t, server.URL+"/ok/a/1280/p.jpg", u.Upgrade(ctx, src))
	})

	t.Run("probe misses", func(t *testing.T) {
		src := server.URL + "/missing/a/604/p.jpg"
		require.Equal(t, src, u.Upgrade(ctx, src))
	})

	t.Run("probe times out", func(t *testing.T) {
		src := server.URL + "/slow/a/604/p.jpg"
		require.Equal(t, src, u.Upgrade(ctx, src))
	})

	t.Run("no marker means no probe", func(t *testing.T) {
		before := probes.Load()
		src := server.URL + "/plain/p.jpg"
		require.Equal(t, src, u.Upgrade(ctx, src))
		require.Equal(t, before, probes.Load())
	})
}

func TestResolutionUpgrader_UnreachableHost(t *testing.T) {
	u := NewResolutionUpgrader(nil, time.Second, "", zap.NewNop(), nil)
	src := "http://127.0.0.1:1/a/604/p.jpg"
	require.Equal(t, src, u.Upgrade(context.Background(), src))
}
