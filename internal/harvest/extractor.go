package harvest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MediaTags are the elements whose src attribute references media
var MediaTags = []string{"img", "video"}

// ElementSource returns the src attribute of every element matching one of tags
type ElementSource interface {
	SourcesOf(html string, tags []string) ([]string, error)
}

// GoquerySource is the goquery backed ElementSource
type GoquerySource struct{}

func (GoquerySource) SourcesOf(html string, tags []string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	var sources []string
	doc.Find(strings.Join(tags, ", ")).Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			sources = append(sources, src)
		}
	})
	return sources, nil
}

// URLSet is an unordered set of media URLs
type URLSet map[string]struct{}

// Sorted returns the members in lexical order
func (s URLSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for u := range s {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Extractor yields candidate media URLs from a page
type Extractor struct {
	source ElementSource
}

// NewExtractor creates a new extractor; a nil source parses with goquery
func NewExtractor(source ElementSource) *Extractor {
	if source == nil {
		source = GoquerySource{}
	}
	return &Extractor{source: source}
}

// Extract collects the src of every img and video element.
// absoluteOnly drops anything that is not an http(s) URL; a non-empty baseDomain
// is prefixed to relative sources.
func (e *Extractor) Extract(html string, absoluteOnly bool, baseDomain string) (URLSet, error) {
	sources, err := e.source.SourcesOf(html, MediaTags)
	if err != nil {
		return nil, err
	}

	urls := make(URLSet, len(sources))
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		absolute := isAbsoluteURL(src)
		if absoluteOnly && !absolute {
			continue
		}
		if baseDomain != "" && !absolute {
			src = strings.TrimRight(baseDomain, "/") + "/" + strings.TrimLeft(src, "/")
		}
		urls[src] = struct{}{}
	}
	return urls, nil
}

func isAbsoluteURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
