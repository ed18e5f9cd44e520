package shared

import "fmt"

// Sentinel errors. Callers wrap them with fmt.Errorf("%w: ...") and the server maps them to
// HTTP status codes; the client maps status codes back.
var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrForbidden          = fmt.Errorf("forbidden")
	ErrTokenExpired       = fmt.Errorf("access token expired")
	ErrTokenRevoked       = fmt.Errorf("access token revoked")

	// Remote services
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("could not connect")
	ErrNotLinked          = fmt.Errorf("spotify account not linked")

	// Persistence
	ErrNotFound         = fmt.Errorf("not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrConflict         = fmt.Errorf("already exists")

	// Input
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
