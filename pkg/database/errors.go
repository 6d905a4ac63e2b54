package database

import "errors"

// ErrNotReady wraps the failure of the startup ping.
var ErrNotReady = errors.New("database unreachable")
