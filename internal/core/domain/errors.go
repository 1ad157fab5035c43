package domain

import "errors"

// ErrNotFound is returned by repositories when a keyed lookup matches nothing.
var ErrNotFound = errors.New("not found")
