package mockbackend

import "errors"

var (
	errAccountExists       = errors.New("account already exists")
	errTokenRevoked        = errors.New("token revoked")
	errRefreshTokenInvalid = errors.New("invalid or expired refresh token")
)

var errSecretRequired = errors.New("signing secret is required")
