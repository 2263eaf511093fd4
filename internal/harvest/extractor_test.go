package harvest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractor_CollapsesDuplicates(t *testing.T) {
	html := `<html><body>
		<img src="https://cdn.example.com/a.jpg">
		<img src="https://cdn.example.com/b.jpg">
		<img src="https://cdn.example.com/a.jpg">
	</body></html>`

	urls, err := NewExtractor(nil).Extract(html, false, "")
	require.NoError(t, err)
	require.Len(t, urls, 2)
	require.Equal(t, []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}, urls.Sorted())
}

func TestExtractor_AbsoluteOnly(t *testing.T) {
	html := `<img src="/local/a.jpg"><img src="http://x.com/b.png"><video src="https://x.com/c.mp4"></video><img src="//proto-relative/d.gif">`

	urls, err := NewExtractor(nil).Extract(html, true, "")
	require.NoError(t, err)
	require.Equal(t, []string{"http://x.com/b.png", "https://x.com/c.mp4"}, urls.Sorted())
}

func TestExtractor_BaseDomain(t *testing.T) {
	html := `<img src="/file/abc.jpg"><img src="file/def.jpg"><img src="https://other.com/x.jpg">`

	urls, err := NewExtractor(nil).Extract(html, false, "https://telegra.ph/")
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://other.com/x.jpg",
		"https://telegra.ph/file/abc.jpg",
		"https://telegra.ph/file/def.jpg",
	}, urls.Sorted())
}

func TestExtractor_IgnoresElementsWithoutSource(t *testing.T) {
	html := `<img alt="none"><img src=""><video><source src="x.mp4"></video><a href="y.jpg">y</a>`

	urls, err := NewExtractor(nil).Extract(html, false, "")
	require.NoError(t, err)
	require.Empty(t, urls)
}

type stubSource struct {
	sources []string
	err     error
	tags    []string
}

func (s *stubSource) SourcesOf(_ string, tags []string) ([]string, error) {
	s.tags = tags
	return s.sources, s.err
}

func TestExtractor_UsesElementSource(t *testing.T) {
	src := &stubSource{sources: []string{"a.jpg", " a.jpg ", "b.jpg"}}
	urls, err := NewExtractor(src).Extract("ignored", false, "")
	require.NoError(t, err)
	require.Equal(t, MediaTags, src.tags)
	require.Len(t, urls, 2)

	failing := &stubSource{err: errors.New("boom")}
	_, err = NewExtractor(failing).Extract("ignored", false, "")
	require.Error(t, err)
}
