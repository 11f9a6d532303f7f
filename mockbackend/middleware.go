package mockbackend

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const claimsKey = "claims"

// RequireBearer rejects requests without a valid, unrevoked access token
func (s *Server) RequireBearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request())
		if !ok {
			return problem(http.StatusUnauthorized, "Full authentication is required to access this resource")
		}
		claims, err := s.issuer.VerifyAccessToken(token)
		if err != nil {
			return problem(http.StatusUnauthorized, "Invalid or expired access token")
		}
		c.Set(claimsKey, claims)
		return next(c)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func claimsFrom(c echo.Context) *AccessClaims {
	claims, _ := c.Get(claimsKey).(*AccessClaims)
	return claims
}
