package domain

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNoData        = errors.New("no data")
	ErrNetwork       = errors.New("network error")
	ErrTimeout       = errors.New("timeout")
)

// IsTransient reports whether err is a per-tick fetch failure (network or
// timeout) that callers recover from locally rather than surface.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
