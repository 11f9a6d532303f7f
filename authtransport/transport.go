// Package authtransport attaches the session's bearer token to outbound requests and, when a
// protected request is rejected with 401, renews the session once and replays the request.
package authtransport

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/jrsteele09/go-hms-client/credentials"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// maxDrain bounds how much of a discarded 401 body is read so the connection can be reused
const maxDrain = 64 << 10

// Sessions is the part of the session manager the transport depends on.
type Sessions interface {
	// Tokens returns the access and refresh token of one session, read together.
	Tokens() (accessToken, refreshToken string)
	// Renew exchanges refreshToken for a new session. Concurrent calls with the same
	// refresh token must share one exchange.
	Renew(ctx context.Context, refreshToken string) (*credentials.Credentials, error)
	Logout(ctx context.Context)
}

// Transport is an http.RoundTripper implementing the authorization pipeline.
type Transport struct {
	base      http.RoundTripper
	sessions  Sessions
	endpoints Endpoints
}

var _ http.RoundTripper = (*Transport)(nil)

// New wraps base; a nil base uses http.DefaultTransport.
func New(base http.RoundTripper, sessions Sessions, endpoints Endpoints) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, sessions: sessions, endpoints: endpoints}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	class := t.endpoints.Classify(req.URL)
	if class == ClassExempt {
		return t.base.RoundTrip(req)
	}

	body, getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	sent, _ := t.sessions.Tokens()
	resp, err := t.base.RoundTrip(authorize(req, sent, body))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if class == ClassRevoke {
		return resp, nil
	}

	ctx := req.Context()
	token, renewErr := t.renewedToken(ctx, sent)
	if renewErr != nil {
		log.Debug().Err(renewErr).Str("url", req.URL.String()).Msg("renewal failed, ending session")
		t.sessions.Logout(ctx)
		// the caller sees the original 401, not the renewal failure
		return resp, nil
	}
	discard(resp)

	if getBody != nil {
		if body, err = getBody(); err != nil {
			return nil, err
		}
	}
	resp, err = t.base.RoundTrip(authorize(req, token, body))
	if err == nil && resp.StatusCode == http.StatusUnauthorized {
		log.Warn().Str("url", req.URL.String()).Msg("replayed request rejected, ending session")
		t.sessions.Logout(ctx)
	}
	return resp, err
}

// renewedToken returns the token to replay with. If another request already renewed the
// session since this one was sent, that token is reused instead of renewing again.
func (t *Transport) renewedToken(ctx context.Context, sent string) (string, error) {
	current, refreshToken := t.sessions.Tokens()
	if current != "" && current != sent {
		return current, nil
	}
	if refreshToken == "" {
		return "", hmserrors.ErrNoRefreshToken
	}
	// the renewal is shared, one caller going away must not cancel it for the others
	creds, err := t.sessions.Renew(context.WithoutCancel(ctx), refreshToken)
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// authorize clones req with body and, when token is set, an Authorization: Bearer header
func authorize(req *http.Request, token string, body io.ReadCloser) *http.Request {
	out := req.Clone(req.Context())
	out.Body = body
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	return out
}

// replayableBody returns the body for the first attempt and a way to obtain it again.
// Bodies without GetBody are buffered.
func replayableBody(req *http.Request) (io.ReadCloser, func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req.Body, nil, nil
	}
	if req.GetBody != nil {
		return req.Body, req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, nil, err
	}
	getBody := func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	body, _ := getBody()
	return body, getBody, nil
}

func discard(resp *http.Response) {
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrain)
	resp.Body.Close()
}
