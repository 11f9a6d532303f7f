// Package apiclient is the JSON REST client feature services use. It sends through an
// authorized http.Client and turns failures into *APIError, optionally presenting them as toasts.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hms-client/authmodel"
	"github.com/jrsteele09/go-hms-client/notify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	headerRequestID = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Navigator moves the application to another route
type Navigator interface {
	Navigate(ctx context.Context, route string) string
}

type Client struct {
	http       *http.Client
	baseURL    string
	notifier   notify.Notifier // nil disables presentation
	navigator  Navigator
	loginRoute string
	bearer     string // fixed token, for clients that bypass the authorization pipeline
}

type Option func(*Client)

// WithPresenter shows one "Error" toast per failed call and navigates to loginRoute on a 401.
// A 401 gets no toast: the session layer has already announced the expired session once for
// every request that shared the renewal.
func WithPresenter(notifier notify.Notifier, navigator Navigator, loginRoute string) Option {
	return func(c *Client) {
		c.notifier = notifier
		c.navigator = navigator
		c.loginRoute = loginRoute
	}
}

// WithBearer sends token on every request instead of relying on the transport to attach one.
func WithBearer(token string) Option {
	return func(c *Client) {
		c.bearer = token
	}
}

func New(httpClient *http.Client, baseURL string, options ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends in as JSON and decodes a 2xx body into out (either may be nil).
// Failures are returned as *APIError; they are never retried here.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.present(ctx, &APIError{Message: err.Error(), Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.present(ctx, newAPIError(resp))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "[Client.Do] decode %s %s", method, path)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrapf(err, "[Client.newRequest] marshal %s %s", method, path)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.newRequest] %s %s", method, path)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if c.bearer != "" {
		(&oauth2.Token{AccessToken: c.bearer, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return req, nil
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(data) > 0 {
		problem := &authmodel.ErrorResponse{}
		if err := json.Unmarshal(data, problem); err == nil {
			apiErr.Problem = problem
		}
	}
	apiErr.Message = ClassifyStatus(resp.StatusCode, apiErr.Problem)
	return apiErr
}

func (c *Client) present(ctx context.Context, apiErr *APIError) error {
	log.Debug().Int("status", apiErr.StatusCode).Str("message", apiErr.Message).Msg("api call failed")
	if c.notifier == nil {
		return apiErr
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		c.notifier.Show(notify.Toast{Type: notify.ToastError, Title: "Error", Message: apiErr.Message})
		return apiErr
	}
	if c.navigator != nil && c.loginRoute != "" {
		c.navigator.Navigate(ctx, c.loginRoute)
	}
	return apiErr
}
