package harvest

import (
	"net/url"
	"path"
	"strings"
)

// SiteRule tunes extraction for pages served by Host
type SiteRule struct {
	Host         string
	AbsoluteOnly bool
	BaseDomain   string
}

// SiteRules are matched against a link's path by substring
type SiteRules []SiteRule

// DefaultSiteRules covers the hosts that need special extraction handling
var DefaultSiteRules = SiteRules{
	{Host: "ososedki.com", AbsoluteOnly: true},
	{Host: "telegra.ph", BaseDomain: "https://telegra.ph"},
}

// For returns the extraction options for linkPath. Unknown hosts get the zero rule.
func (r SiteRules) For(linkPath string) (absoluteOnly bool, baseDomain string) {
	for _, rule := range r {
		if strings.Contains(linkPath, rule.Host) {
			return rule.AbsoluteOnly, rule.BaseDomain
		}
	}
	return false, ""
}

// target is a media URL paired with the file name it is stored under
type target struct {
	URL      string
	FileName string
}

// mediaTargets filters urls down to the allowed extensions, resolves relative ones
// against pageURL and dedupes by destination file name.
func mediaTargets(urls URLSet, pageURL string, extensions []string) []target {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	base, _ := url.Parse(pageURL)

	seen := make(map[string]struct{})
	var targets []target
	for _, raw := range urls.Sorted() {
		ref, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if base != nil && !ref.IsAbs() {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			continue
		}

		name := path.Base(ref.Path)
		if name == "" || name == "." || name == "/" {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
		if _, ok := allowed[ext]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		targets = append(targets, target{URL: ref.String(), FileName: name})
	}
	return targets
}
