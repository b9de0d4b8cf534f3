package entity

import "errors"

var (
	// ErrInvalidTargetURL is returned when the target URL is not an absolute URL.
	ErrInvalidTargetURL = errors.New("invalid target url")
	// ErrInvalidCode is returned when a caller-supplied code does not match the code pattern.
	ErrInvalidCode = errors.New("invalid code")
	// ErrReservedCode is returned when a caller-supplied code shadows a route of the service.
	ErrReservedCode = errors.New("code is reserved")
	// ErrCodeExists is returned when attempting to create a link with a code that already exists.
	ErrCodeExists = errors.New("code exists")
	// ErrLinkNotFound is returned when a link with the specified code cannot be found.
	ErrLinkNotFound = errors.New("link not found")
)

// Kind classifies an error for the delivery layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// KindOf reports the kind of err by walking its wrap chain.
// Errors that are not one of the sentinels above are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidTargetURL),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrReservedCode):
		return KindValidation
	case errors.Is(err, ErrLinkNotFound):
		return KindNotFound
	case errors.Is(err, ErrCodeExists):
		return KindConflict
	default:
		return KindInternal
	}
}
