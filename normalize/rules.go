// Package normalize rewrites scraped vendor and product names into
// URL-safe slugs and shapes scraped rows into the published record format.
package normalize

import (
	"fmt"
	"strings"
)

// Rule replaces Old with New.
type Rule struct {
	Old string
	New string
}

// Rules are substring replacements applied in order.
type Rules []Rule

// Apply runs every rule over s, each one seeing the previous result.
func (rs Rules) Apply(s string) string {
	for _, r := range rs {
		s = strings.ReplaceAll(s, r.Old, r.New)
	}
	return s
}

// Substitutions are whole-value replacements checked in order.
type Substitutions []Rule

// Apply returns the replacement for s when it equals a known value.
func (ss Substitutions) Apply(s string) string {
	for _, sub := range ss {
		if s == sub.Old {
			s = sub.New
		}
	}
	return s
}

const validSpecial = "-._~%"

func isValidByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte(validSpecial, c) >= 0
}

// invalidChars reports whether s holds bytes outside the slug alphabet.
func invalidChars(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isValidByte(s[i]) {
			return true
		}
	}
	return false
}

// escapeInvalid percent-encodes every byte outside the slug alphabet.
func escapeInvalid(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isValidByte(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02x", c)
	}
	return b.String()
}
