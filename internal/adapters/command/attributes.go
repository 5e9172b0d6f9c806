// Package command implements the line protocol that drives the viewer:
// one command per line, followed by key="value" attributes.
package command

import (
	"strings"
	"unicode"

	"github.com/samirrijal/horao/internal/core/domain"
)

// Attributes maps keys to values. A key that is present with an empty value
// is distinct from a missing key.
type Attributes map[string]string

// Get returns the value of key and whether it was given.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Require returns the value of key, failing when it is missing or empty.
func (a Attributes) Require(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", domain.Missing(key)
	}
	if strings.TrimSpace(v) == "" {
		return "", &domain.ConfigError{Key: key, Reason: "empty value"}
	}
	return v, nil
}

// ParseLine splits a line into its command word and attributes. Blank lines
// and lines starting with '#' yield ok == false. Whitespace inside keys is
// removed; anything between '=' and the opening quote is ignored. A value
// without a closing quote ends the attribute list.
func ParseLine(line string) (cmd string, attrs Attributes, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || trimmed[0] == '#' {
		return "", nil, false
	}

	cmd, rest, _ := strings.Cut(trimmed, " ")
	attrs = make(Attributes)
	for {
		key, after, found := strings.Cut(rest, "=")
		if !found {
			break
		}
		_, after, found = strings.Cut(after, `"`)
		if !found {
			break
		}
		value, after, found := strings.Cut(after, `"`)
		if !found {
			break
		}
		attrs[stripSpace(key)] = value
		rest = after
	}
	return cmd, attrs, true
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
