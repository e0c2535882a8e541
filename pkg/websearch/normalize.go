package websearch

import (
	"net/url"
	"strings"
)

// NormalizeURL reduces a URL to its deduplication form: lowercase scheme
// and host, default ports and fragments stripped, no trailing slash.
// Unparseable input is returned unchanged so it still gets a stable key.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	u.Path = strings.TrimRight(u.Path, "/")

	return u.String()
}
