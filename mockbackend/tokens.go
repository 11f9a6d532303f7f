package mockbackend

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-hms-client/users"
)

const refreshTokenLength = 32

// AccessClaims are the claims carried by issued access tokens
type AccessClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
	jwtlib.RegisteredClaims
}

// storedRefreshToken is the server-side record behind an opaque refresh token.
type storedRefreshToken struct {
	Token  string
	UserID string
	Iat    time.Time
}

// Issuer mints HS256 access tokens and opaque rotating refresh tokens. Each user holds at most
// one refresh token; using it deletes it.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowTime    func() time.Time

	lock    sync.Mutex
	refresh map[string]*storedRefreshToken // by token
	byUser  map[string]string              // user ID to token
	issued  map[string]time.Time           // live access token jti to expiry
	revoked map[string]time.Time           // revoked access token jti to expiry
}

func NewIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration, nowTime func() time.Time) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowTime:    nowTime,
		refresh:    make(map[string]*storedRefreshToken),
		byUser:     make(map[string]string),
		issued:     make(map[string]time.Time),
		revoked:    make(map[string]time.Time),
	}
}

// AccessTTL is the lifetime of issued access tokens
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// CreateAccessToken signs a token for user and records its jti.
func (i *Issuer) CreateAccessToken(user *users.Profile) (string, time.Time, error) {
	now := i.nowTime()
	expiry := now.Add(i.accessTTL)
	claims := AccessClaims{
		Email: user.Email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(expiry),
			ID:        uuid.NewString(),
		},
	}
	for _, role := range user.Roles {
		claims.Roles = append(claims.Roles, role.Name)
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign JWT token: %w", err)
	}

	i.lock.Lock()
	i.issued[claims.ID] = expiry
	i.lock.Unlock()
	return signed, expiry, nil
}

// VerifyAccessToken checks signature, expiry and revocation.
func (i *Issuer) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(i.nowTime),
		jwtlib.WithIssuer(i.issuer),
	)
	if _, err := parser.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return i.secret, nil
	}); err != nil {
		return nil, err
	}

	i.lock.Lock()
	defer i.lock.Unlock()
	if _, revoked := i.revoked[claims.ID]; revoked {
		return nil, errTokenRevoked
	}
	return claims, nil
}

// RevokeAccessToken revokes a single access token by jti
func (i *Issuer) RevokeAccessToken(jti string) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if expiry, ok := i.issued[jti]; ok {
		i.revoked[jti] = expiry
		delete(i.issued, jti)
	}
}

// RevokeAllAccessTokens revokes every access token issued so far. It returns how many were live.
func (i *Issuer) RevokeAllAccessTokens() int {
	i.lock.Lock()
	defer i.lock.Unlock()
	n := len(i.issued)
	for jti, expiry := range i.issued {
		i.revoked[jti] = expiry
	}
	i.issued = make(map[string]time.Time)
	return n
}

// Cleanup forgets revoked tokens that have expired anyway
func (i *Issuer) Cleanup() {
	i.lock.Lock()
	defer i.lock.Unlock()
	now := i.nowTime()
	for jti, exp := range i.revoked {
		if now.After(exp) {
			delete(i.revoked, jti)
		}
	}
}

// CreateRefreshToken replaces the user's refresh token with a new random one.
func (i *Issuer) CreateRefreshToken(userID string) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	i.lock.Lock()
	defer i.lock.Unlock()
	if existing, ok := i.byUser[userID]; ok {
		delete(i.refresh, existing)
	}
	i.refresh[token] = &storedRefreshToken{Token: token, UserID: userID, Iat: i.nowTime()}
	i.byUser[userID] = token
	return token, nil
}

// RedeemRefreshToken consumes token and returns its user. Unknown, used and expired tokens fail.
func (i *Issuer) RedeemRefreshToken(token string) (string, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	stored, ok := i.refresh[token]
	if !ok {
		return "", errRefreshTokenInvalid
	}
	delete(i.refresh, token)
	delete(i.byUser, stored.UserID)
	if i.nowTime().Sub(stored.Iat) > i.refreshTTL {
		return "", errRefreshTokenInvalid
	}
	return stored.UserID, nil
}

// RevokeRefreshToken deletes token; unknown tokens are ignored.
func (i *Issuer) RevokeRefreshToken(token string) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if stored, ok := i.refresh[token]; ok {
		delete(i.byUser, stored.UserID)
		delete(i.refresh, token)
	}
}
