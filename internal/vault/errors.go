package vault

import "errors"

var (
	// Open errors. They are distinct so callers can tell the operator what
	// went wrong.
	ErrMissing     = errors.New("store file is missing")
	ErrWrongSecret = errors.New("wrong master secret")
	ErrCorrupt     = errors.New("store is corrupt")

	ErrEntryNotFound = errors.New("entry not found")
	ErrGroupExists   = errors.New("group already exists")
	ErrInvalidName   = errors.New("invalid group name")
)
