// Package shortcode generates and validates the short codes links are addressed by.
package shortcode

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the set of characters a code is made of.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength is the length of generated codes.
	DefaultLength = 6
	MinLength     = 6
	MaxLength     = 8
)

// ValidationTag is the validator rule a caller-supplied code must satisfy.
const ValidationTag = "alphanum,min=6,max=8"

var validate = validator.New()

// reserved holds codes that would shadow routes served next to GET /{code}.
var reserved = map[string]struct{}{
	"healthz": {},
	"swagger": {},
}

// Generate returns a random code of the given length drawn uniformly from Alphabet.
// The randomness comes from crypto/rand.
func Generate(length int) (string, error) {
	const op = "shortcode.Generate"

	if length < MinLength || length > MaxLength {
		return "", fmt.Errorf("%s: length %d out of range [%d, %d]", op, length, MinLength, MaxLength)
	}

	code, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate code: %w", op, err)
	}

	return code, nil
}

// IsValid reports whether code is 6 to 8 alphanumeric characters.
func IsValid(code string) bool {
	return validate.Var(code, ValidationTag) == nil
}

// IsReserved reports whether code collides with a route name, ignoring case.
func IsReserved(code string) bool {
	_, ok := reserved[strings.ToLower(code)]
	return ok
}
