package mockbackend

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-hms-client/authmodel"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/jrsteele09/go-hms-client/users"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// requestValidator plugs validator/v10 into echo's c.Validate
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return problem(http.StatusBadRequest, err.Error())
	}
	return nil
}

// LoginHandler exchanges credentials for a token pair.
func (s *Server) LoginHandler(c echo.Context) error {
	req := authmodel.LoginRequest{}
	if err := s.bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := s.accounts.Authenticate(req.UsernameOrEmail, req.Password)
	if err != nil {
		return problem(http.StatusUnauthorized, "Invalid username or password")
	}
	return s.issueTokens(c, user)
}

// RegisterHandler creates an account; the client still has to log in.
func (s *Server) RegisterHandler(c echo.Context) error {
	req := authmodel.RegisterRequest{}
	if err := s.bindAndValidate(c, &req); err != nil {
		return err
	}
	if _, err := s.accounts.Create(req.Email, req.Password, req.FirstName, req.LastName, req.PhoneNumber, RoleUser); err != nil {
		if hmserrors.Is(err, errAccountExists) {
			return problem(http.StatusConflict, "Email is already registered")
		}
		return problem(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, authmodel.MessageResponse{
		Message: "Registration successful. Please login with your credentials.",
	})
}

// RefreshTokenHandler rotates the refresh token and issues a new access token.
func (s *Server) RefreshTokenHandler(c echo.Context) error {
	delay, reject := s.refreshBehaviour()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}

	req := authmodel.RefreshTokenRequest{}
	if err := s.bindAndValidate(c, &req); err != nil {
		return err
	}
	if reject {
		s.issuer.RevokeRefreshToken(req.RefreshToken)
		return problem(http.StatusUnauthorized, "Refresh token is invalid or expired")
	}

	userID, err := s.issuer.RedeemRefreshToken(req.RefreshToken)
	if err != nil {
		return problem(http.StatusUnauthorized, "Refresh token is invalid or expired")
	}
	user, err := s.accounts.Profile(userID)
	if err != nil {
		return problem(http.StatusUnauthorized, "User no longer exists")
	}
	return s.issueTokens(c, user)
}

// LogoutHandler revokes the refresh token and, when presented, the access token.
func (s *Server) LogoutHandler(c echo.Context) error {
	req := authmodel.LogoutRequest{}
	if err := c.Bind(&req); err != nil {
		return problem(http.StatusBadRequest, "Malformed request body")
	}
	s.issuer.RevokeRefreshToken(req.RefreshToken)
	if token, ok := bearerToken(c.Request()); ok {
		if claims, err := s.issuer.VerifyAccessToken(token); err == nil {
			s.issuer.RevokeAccessToken(claims.ID)
		}
	}
	return c.JSON(http.StatusOK, authmodel.MessageResponse{Message: "Logged out successfully"})
}

// MeHandler returns the caller's profile.
func (s *Server) MeHandler(c echo.Context) error {
	user, err := s.accounts.Profile(claimsFrom(c).Subject)
	if err != nil {
		return problem(http.StatusUnauthorized, "User no longer exists")
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) issueTokens(c echo.Context, user *users.Profile) error {
	accessToken, expiry, err := s.issuer.CreateAccessToken(user)
	if err != nil {
		return err
	}
	refreshToken, err := s.issuer.CreateRefreshToken(user.ID)
	if err != nil {
		return err
	}
	log.Debug().Str("user", user.ID).Msg("mock backend issued tokens")
	return c.JSON(http.StatusOK, authmodel.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
		ExpiresAt:    expiry,
		User:         user,
	})
}

func (s *Server) bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return problem(http.StatusBadRequest, "Malformed request body")
	}
	return c.Validate(req)
}
