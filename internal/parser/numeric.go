package parser

import (
	"strconv"
	"strings"
)

// ParseIntOrDefault parses s as a base-10 integer, returning def when the
// value is empty or malformed. Numeric cells in semi-structured sources
// are routinely blank or garbled; those degrade to the default instead of
// failing the whole row.
func ParseIntOrDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
