// Package origin decides whether a browser Origin may submit feedback to a project.
package origin

import (
	"net/url"
	"strings"
)

// Wildcard allows every origin.
const Wildcard = "*"

// IsAllowed reports whether origin matches one of the project's patterns.
//
// An empty pattern list is an open policy. A pattern matches when it is "*",
// equals the origin verbatim, or has the form "*.example.com" and the origin's
// hostname is example.com or one of its subdomains. Origins that do not parse
// as URLs never match a wildcard-subdomain pattern.
func IsAllowed(origin string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	for _, pattern := range patterns {
		if pattern == Wildcard || pattern == origin {
			return true
		}
		if strings.HasPrefix(pattern, "*.") && matchesSubdomain(origin, strings.TrimPrefix(pattern, "*.")) {
			return true
		}
	}
	return false
}

func matchesSubdomain(origin, baseDomain string) bool {
	if baseDomain == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	return host == baseDomain || strings.HasSuffix(host, "."+baseDomain)
}
