// Package counter defines the counter entity and its error kinds.
package counter

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for counter operations.
var (
	// ErrNotFound is returned when a name has no counter.
	ErrNotFound = errors.New("counter not found")
	// ErrConflict is returned when creating a name that already exists.
	ErrConflict = errors.New("counter already exists")
	// ErrInvalidName is returned for names that cannot address a counter.
	ErrInvalidName = errors.New("invalid counter name")
)

// Counter is a named integer. Name is immutable once created; Value starts at
// zero and only grows through increments.
type Counter struct {
	Name  string
	Value int64
}

// ValidateName checks that name is usable as a single path segment no longer
// than maxLen bytes. A maxLen <= 0 disables the length check.
func ValidateName(name string, maxLen int) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: blank", ErrInvalidName)
	case strings.Contains(name, "/"):
		return fmt.Errorf("%w: contains '/'", ErrInvalidName)
	case maxLen > 0 && len(name) > maxLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxLen)
	}
	return nil
}
