package authmodel

// Auth endpoint paths, relative to the auth base URL
const (
	PathLogin        = "/login"
	PathRegister     = "/register"
	PathRefreshToken = "/refresh-token"
	PathLogout       = "/logout"
	PathMe           = "/me"
)
