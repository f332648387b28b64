package crawl

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// trackingParams are query parameters that never affect response content and
// would otherwise split one logical URL into many frontier entries.
var trackingParams = map[string]bool{
	"fbclid":       true,
	"gclid":        true,
	"mc_cid":       true,
	"mc_eid":       true,
	"utm_campaign": true,
	"utm_content":  true,
	"utm_medium":   true,
	"utm_source":   true,
	"utm_term":     true,
}

const normalizeFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagSortQuery |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveTrailingSlash

// Normalize resolves rawURL against base (when given) and canonicalizes it:
// lowercased scheme/host, no fragment, no default port, sorted query with
// tracking parameters stripped, collapsed slashes, no trailing slash.
// Frontier deduplication keys on the result.
func Normalize(rawURL string, base *url.URL) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	if u.RawQuery != "" {
		q := u.Query()
		for param := range q {
			if trackingParams[strings.ToLower(param)] {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
	}

	return purell.NormalizeURLString(u.String(), normalizeFlags)
}

// SameSite reports whether two URLs live on the same site, treating
// "www.example.gov" and "example.gov" as the same host.
func SameSite(a, b *url.URL) bool {
	return canonicalHost(a.Host) == canonicalHost(b.Host)
}

func canonicalHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(h, "www.")
}
