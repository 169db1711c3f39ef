package handlers

import "strconv"

// parseUint parses an id string, returning 0 for anything invalid.
func parseUint(s string) uint {
	value, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint(value)
}
