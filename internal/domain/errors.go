package domain

import "errors"

var (
	// ErrNoSourceIdentity means the upstream catalog did not report an identity,
	// so a sync cannot tell which library it is caching.
	ErrNoSourceIdentity  = errors.New("could not get server identifier")
	ErrInvalidDecade     = errors.New("invalid decade label")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrSourceUnavailable = errors.New("media source unavailable")
	ErrNotConfigured     = errors.New("not configured")
	ErrEntryNotFound     = errors.New("entry not found")
)
