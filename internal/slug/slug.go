// Package slug derives URL-safe identifiers from document names.
package slug

import (
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// Make returns the slug for a display name: spaces become hyphens, the result
// is lowercased, and every byte outside the unreserved set is percent-encoded.
//
// No trimming, Unicode normalization or hyphen collapsing is performed, so
// "Old Man's Cave" becomes "old-man%27s-cave".
func Make(name string) string {
	return escape(strings.ToLower(strings.ReplaceAll(name, " ", "-")))
}

// Canonical maps a URL path segment to stored slug form. Routers may hand over
// the segment decoded ("old-man's-cave") or raw ("old-man%27s-cave"); both map
// to the same value. Case is preserved; stores compare slugs case-insensitively.
func Canonical(segment string) string {
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	return escape(segment)
}

func escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// unreserved reports whether c is an RFC 3986 unreserved character.
func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
