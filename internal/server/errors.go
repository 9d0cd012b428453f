package server

import "errors"

// Errors returned by the server.
var (
	ErrInboxFull      = errors.New("event inbox is full")
	ErrNotStarted     = errors.New("server not started")
	ErrAlreadyStarted = errors.New("server already started")
	ErrStopped        = errors.New("server stopped")
	ErrInvalidConfig  = errors.New("invalid server config")
)
