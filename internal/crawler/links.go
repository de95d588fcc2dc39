package crawler

import (
	"net/url"
	"strings"
)

const defaultCanonicalURL = "https://www.xbox.com"

var storefrontDomains = []string{"microsoft.com", "xbox.com"}

// NormalizeURL rewrites a product link onto the canonical storefront:
// the /p/ segment becomes /games/store/, the host is replaced and the
// query is dropped. Links on foreign hosts only lose their query.
// Applying it twice gives the same result as applying it once.
func NormalizeURL(raw, canonical string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if canonical == "" {
		canonical = defaultCanonicalURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Host != "" && !isStorefrontHost(u.Hostname()) {
		return stripQuery(u)
	}

	// escaped form keeps %3F, %23 and %25 literal on re-parse
	path := u.EscapedPath()
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.Contains(path, "/games/store/") {
		path = strings.Replace(path, "/p/", "/games/store/", 1)
	}
	return strings.TrimRight(canonical, "/") + path
}

// CleanImageURL keeps scheme, host and path of an image source
func CleanImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return stripQuery(u)
}

func stripQuery(u *url.URL) string {
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host + u.EscapedPath()
}

func isStorefrontHost(host string) bool {
	host = strings.ToLower(host)
	for _, domain := range storefrontDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
