// Package urlnorm canonicalizes article URLs into stable comparison keys.
package urlnorm

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const defaultScheme = "https"

// IsValid reports whether raw parses with an http(s) scheme and a non-empty host.
func IsValid(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Normalize returns the canonical form of raw: lowercase scheme and host name,
// cleaned path without a trailing slash (root excepted), no port, userinfo,
// path params, query or fragment. Percent-escapes in the path are kept as
// written. Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = defaultScheme
	}

	return scheme + "://" + hostName(u) + cleanPath(u.EscapedPath()), nil
}

// hostName drops port and userinfo, keeping brackets around IPv6 literals.
func hostName(u *url.URL) string {
	h := strings.ToLower(u.Hostname())
	if strings.Contains(h, ":") {
		return "[" + h + "]"
	}
	return h
}

// cleanPath strips trailing slashes and ;params from the last segment, then
// resolves dot segments and repeated separators. path.Clean never leaves a
// trailing slash except for the root.
func cleanPath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	last := strings.LastIndex(p, "/")
	if i := strings.Index(p[last+1:], ";"); i >= 0 {
		p = p[:last+1+i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
