package repositories

import "errors"

// Sentinel errors shared by all repository implementations so the service
// layer can branch with errors.Is instead of matching message strings.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)
