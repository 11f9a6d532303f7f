package auth

import "errors"

var (
	LoginFailedErr        = errors.New("login failed")
	RegistrationFailedErr = errors.New("registration failed")
	InvalidLoginErr       = errors.New("invalid login request")
	InvalidRegisterErr    = errors.New("invalid register request")
	ProfileUnavailableErr = errors.New("profile unavailable")
)
