package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutsideRoot is returned when a folder resolves outside the storage root.
	ErrOutsideRoot = errors.New("path escapes storage root")
	// ErrNotDirectory is returned when a folder is missing or not a directory.
	ErrNotDirectory = errors.New("not an existing directory")
)

// AccessError reports a folder the storage refuses to read or write.
type AccessError struct {
	Folder string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("storage access to folder '%s' denied: %v", e.Folder, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// WriteError reports the artifact whose write failed. Written lists the
// artifacts persisted before it; they are left in place.
type WriteError struct {
	Item    string
	Written []string
	Err     error
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("failed to write '%s': %v", e.Item, e.Err)
	if len(e.Written) > 0 {
		msg += fmt.Sprintf(" (already written: %s)", strings.Join(e.Written, ", "))
	}
	return msg
}

func (e *WriteError) Unwrap() error { return e.Err }
