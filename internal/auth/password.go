package auth

import (
	"errors"
	"fmt"

	"github.com/desertthunder/moody/internal/shared"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in a verification or reset code.
const CodeLength = 5

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares pw against hash. A mismatch wraps [shared.ErrInvalidCredentials].
func CheckPassword(hash, pw string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return shared.ErrInvalidCredentials
	default:
		return fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}
}

// NewCode returns a random numeric code of [CodeLength] digits and its bcrypt hash.
func NewCode() (code, hash string, err error) {
	code, err = password.Generate(CodeLength, CodeLength, 0, false, true)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err = HashPassword(code)
	if err != nil {
		return "", "", err
	}
	return code, hash, nil
}
