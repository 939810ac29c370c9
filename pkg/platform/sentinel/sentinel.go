package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Caches, loaders and remote
// clients return these (optionally wrapped) so services can translate them
// into domain errors:
//   - ErrNotFound: no entry for the key (cache miss, unknown job)
//   - ErrExpired: a remote job handle is no longer known upstream
//   - ErrUnavailable: dependency temporarily unreachable
//   - ErrInvalidState: stored data could not be decoded
var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)
