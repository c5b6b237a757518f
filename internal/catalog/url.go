package catalog

import (
	"net/url"
	"strings"
)

// Slug derives the identity key for a detail-page URL: the last non-empty
// path segment. It is a pure function of the URL path, invariant to query
// and fragment differences, and empty when no segment exists.
func Slug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// NormalizeDetailURL canonicalizes a candidate detail-page link found on a
// listing page. It resolves href against the page URL and returns the
// canonical absolute form: lowercase scheme and host, query and fragment
// stripped, trailing slash enforced. The second return is false for links
// that are not detail pages under pathPrefix (anchors, script/mail/tel
// schemes, foreign paths, nested paths).
func NormalizeDetailURL(base *url.URL, href, pathPrefix string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	if i := strings.IndexByte(href, ':'); i >= 0 {
		switch strings.ToLower(href[:i]) {
		case "javascript", "mailto", "tel":
			return "", false
		}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	scheme := strings.ToLower(abs.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	host := strings.ToLower(abs.Host)
	if host == "" {
		return "", false
	}
	if !strings.HasPrefix(abs.Path, pathPrefix) {
		return "", false
	}
	rest := strings.Trim(abs.Path[len(pathPrefix):], "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return scheme + "://" + host + pathPrefix + rest + "/", true
}
