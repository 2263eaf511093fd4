package store

import "errors"

var (
	// ErrNotFound is returned when a link or media file does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConstraintViolation is returned when a unique path already exists
	ErrConstraintViolation = errors.New("constraint violation")
)

// isDomainError reports errors that describe the request, not the backend health
func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConstraintViolation)
}
