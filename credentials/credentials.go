package credentials

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jrsteele09/go-hms-client/users"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Persisted keys. All four are written together and cleared together.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyExpiresAt    = "tokenExpiresAt" // epoch millis
	KeyCurrentUser  = "currentUser"    // JSON encoded users.Profile
)

// Keys lists every persisted key.
var Keys = []string{KeyAccessToken, KeyRefreshToken, KeyExpiresAt, KeyCurrentUser}

// Credentials is the durable half of a session: the token pair, its expiry and the cached profile.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // zero when unknown
	User         *users.Profile
}

// Store persists Credentials as a single unit. Implementations must make Save and Clear
// all-or-nothing so a reader never sees a token from one session and a profile from another.
type Store interface {
	// Load returns the stored credentials, or an empty value when nothing is stored
	Load(ctx context.Context) (*Credentials, error)

	// Save replaces everything stored with c
	Save(ctx context.Context, c *Credentials) error

	// Clear removes every key
	Clear(ctx context.Context) error
}

func (c *Credentials) Empty() bool {
	return c == nil || (c.AccessToken == "" && c.RefreshToken == "" && c.User == nil)
}

// Expired reports whether the stored expiry has passed. Credentials without an expiry are not expired.
func (c *Credentials) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt)
}

// Token returns the credentials as an oauth2 bearer token.
func (c *Credentials) Token() *oauth2.Token {
	if c == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.ExpiresAt,
	}
}

func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	clone := *c
	clone.User = c.User.Clone()
	return &clone
}

// Values flattens the credentials into the persisted key space.
func (c *Credentials) Values() (map[string]string, error) {
	values := map[string]string{
		KeyAccessToken:  c.AccessToken,
		KeyRefreshToken: c.RefreshToken,
	}
	if !c.ExpiresAt.IsZero() {
		values[KeyExpiresAt] = strconv.FormatInt(c.ExpiresAt.UnixMilli(), 10)
	}
	if c.User != nil {
		user, err := json.Marshal(c.User)
		if err != nil {
			return nil, errors.Wrap(err, "[Credentials.Values] marshal user")
		}
		values[KeyCurrentUser] = string(user)
	}
	return values, nil
}

// FromValues rebuilds credentials from the persisted key space. Missing keys are left empty.
func FromValues(values map[string]string) (*Credentials, error) {
	c := &Credentials{
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
	}
	if v := values[KeyExpiresAt]; v != "" {
		millis, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "[credentials.FromValues] parse %s", KeyExpiresAt)
		}
		c.ExpiresAt = time.UnixMilli(millis)
	}
	if v := values[KeyCurrentUser]; v != "" {
		user := &users.Profile{}
		if err := json.Unmarshal([]byte(v), user); err != nil {
			return nil, errors.Wrapf(err, "[credentials.FromValues] unmarshal %s", KeyCurrentUser)
		}
		c.User = user
	}
	return c, nil
}
