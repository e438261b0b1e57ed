package infrastructure

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrMissingToken      = errors.New("missing access token")

	// Failure classes of the real-time messaging core. Authentication
	// failures refuse the connection; authorization, validation and
	// persistence failures are reported to the originating session only;
	// cache failures are logged and swallowed because the durable write
	// already succeeded.
	ErrAuthentication = errors.New("authentication error")
	ErrAuthorization  = errors.New("not authorized")
	ErrValidation     = errors.New("validation error")
	ErrPersistence    = errors.New("persistence error")
	ErrCache          = errors.New("cache error")
)
