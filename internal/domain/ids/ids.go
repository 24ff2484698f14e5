// Package ids mints ULID identifiers for all stored entities.
package ids

import (
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

var ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

// New generates a new ULID string.
func New() string {
	return ulid.Make().String()
}

// IsValid reports whether value is a well-formed ULID.
func IsValid(value string) bool {
	return ulidRegex.MatchString(strings.TrimSpace(value))
}
