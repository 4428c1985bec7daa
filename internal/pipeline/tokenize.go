package pipeline

import (
	"strings"

	"github.com/pkg/errors"
)

// Delimiter separates fields in input files.
const Delimiter = ";"

// ErrInvalidDelimiter is returned by Split for an empty delimiter.
var ErrInvalidDelimiter = errors.New("invalid delimiter")

// Split splits line on every non-overlapping occurrence of delim. Empty fields
// are preserved, including a trailing one, so the result always has
// strings.Count(line, delim)+1 entries. A nil slice is only returned together
// with an error.
func Split(line, delim string) ([]string, error) {
	if delim == "" {
		return nil, ErrInvalidDelimiter
	}
	return strings.Split(line, delim), nil
}

// StripQuotes removes one pair of surrounding double quotes. Values shorter
// than two bytes or not quoted on both ends are returned unchanged.
func StripQuotes(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return s[1 : len(s)-1]
}
