package model

import (
	"regexp"
	"strings"
)

// Closed set of handle rejection reasons.
const (
	HandleRejectEmpty            = "empty"
	HandleRejectTooShort         = "too_short"
	HandleRejectTooLong          = "too_long"
	HandleRejectInvalidCharacter = "invalid_characters"
	HandleRejectDisallowedSymbol = "disallowed_symbol"
)

// HandleMode selects the minimum-length rule: creation accepts 1-24
// characters, the sync path requires 3-24.
type HandleMode int

const (
	HandleModeCreate HandleMode = iota
	HandleModeSync
)

const maxHandleLen = 24

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// HandleError reports why a handle was rejected.
type HandleError struct {
	Handle string
	Reason string
}

func (e *HandleError) Error() string {
	return "invalid handle \"" + e.Handle + "\": " + e.Reason
}

// NormalizeHandle trims surrounding whitespace. Casing is preserved for
// display; comparisons are done case-insensitively elsewhere.
func NormalizeHandle(raw string) string {
	return strings.TrimSpace(raw)
}

// ValidateHandle normalizes raw and returns it, or a *HandleError with one of
// the closed rejection reasons. Codeforces fails a whole batched query on a
// single malformed handle, so this runs before every outbound batch.
func ValidateHandle(raw string, mode HandleMode) (string, error) {
	h := NormalizeHandle(raw)
	if h == "" {
		return "", &HandleError{Handle: raw, Reason: HandleRejectEmpty}
	}

	minLen := 1
	if mode == HandleModeSync {
		minLen = 3
	}
	if len(h) < minLen {
		return "", &HandleError{Handle: h, Reason: HandleRejectTooShort}
	}
	if len(h) > maxHandleLen {
		return "", &HandleError{Handle: h, Reason: HandleRejectTooLong}
	}

	// Stricter filter applied before the character-class check.
	if strings.ContainsAny(h, "* .") {
		return "", &HandleError{Handle: h, Reason: HandleRejectDisallowedSymbol}
	}

	if !handlePattern.MatchString(h) {
		return "", &HandleError{Handle: h, Reason: HandleRejectInvalidCharacter}
	}

	return h, nil
}
