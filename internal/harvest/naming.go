package harvest

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidLinkPath is returned for link paths a media directory cannot be derived from
var ErrInvalidLinkPath = errors.New("invalid link path")

var linkPathPattern = regexp.MustCompile(`^https?://[^/\s]+/(.*)$`)

// LinkName derives the media directory name of a link: the URL path with its first
// segment dropped, e.g. https://site.com/album/holiday -> holiday.
func LinkName(linkPath string) (string, error) {
	m := linkPathPattern.FindStringSubmatch(strings.TrimSpace(linkPath))
	if m == nil {
		return "", ErrInvalidLinkPath
	}

	rest := m[1]
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[i+1:]
	}
	name := strings.Trim(rest, "/")

	if name == "" || strings.Contains(name, "..") || strings.Contains(name, `\`) {
		return "", ErrInvalidLinkPath
	}
	return name, nil
}
