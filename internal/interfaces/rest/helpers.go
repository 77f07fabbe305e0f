package rest

import (
	"regexp"
	"strings"
)

// Client-supplied idempotency keys: 1-128 chars from a conservative set.
var idempotencyKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// NormalizeIdempotencyKey trims surrounding whitespace and validates the key
// shape. Returns the normalized key and whether it is acceptable.
func NormalizeIdempotencyKey(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	if !idempotencyKeyPattern.MatchString(key) {
		return "", false
	}
	return key, true
}
