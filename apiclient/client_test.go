package apiclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-hms-client/apiclient"
	"github.com/jrsteele09/go-hms-client/authmodel"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/jrsteele09/go-hms-client/notify"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	routes []string
}

func (n *recordingNavigator) Navigate(_ context.Context, route string) string {
	n.routes = append(n.routes, route)
	return route
}

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// problemServer answers every request with status and, when detail is set, a problem body
func problemServer(t *testing.T, status int, detail string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if detail != "" {
			_ = json.NewEncoder(w).Encode(authmodel.ErrorResponse{Status: status, Detail: detail})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClassifyStatus(t *testing.T) {
	withDetail := &authmodel.ErrorResponse{Detail: "Phone number already in use"}

	tests := []struct {
		status  int
		problem *authmodel.ErrorResponse
		want    string
	}{
		{http.StatusBadRequest, nil, "Bad request. Please check your input."},
		{http.StatusBadRequest, withDetail, "Phone number already in use"},
		{http.StatusUnauthorized, withDetail, "Unauthorized. Please login again."},
		{http.StatusForbidden, withDetail, "Access denied. You do not have permission."},
		{http.StatusNotFound, withDetail, "Resource not found."},
		{http.StatusConflict, nil, "Conflict. Resource already exists."},
		{http.StatusConflict, withDetail, "Phone number already in use"},
		{http.StatusUnprocessableEntity, nil, "Validation error."},
		{http.StatusUnprocessableEntity, withDetail, "Phone number already in use"},
		{http.StatusTooManyRequests, nil, "Too many requests. Please try again later."},
		{http.StatusInternalServerError, withDetail, "Internal server error. Please try again later."},
		{http.StatusBadGateway, nil, "Error: 502"},
		{http.StatusServiceUnavailable, withDetail, "Phone number already in use"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d detail=%t", tt.status, tt.problem != nil), func(t *testing.T) {
			require.Equal(t, tt.want, apiclient.ClassifyStatus(tt.status, tt.problem))
		})
	}
}

func TestDo_DecodesSuccess(t *testing.T) {
	var gotRequestID, gotContentType string
	var gotBody item
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(item{ID: 7, Name: gotBody.Name})
	}))
	t.Cleanup(server.Close)

	client := apiclient.New(server.Client(), server.URL+"/")
	out := item{}
	require.NoError(t, client.Post(context.Background(), "/items", item{Name: "gauze"}, &out))

	require.Equal(t, item{ID: 7, Name: "gauze"}, out)
	require.Equal(t, "gauze", gotBody.Name)
	require.Equal(t, "application/json", gotContentType)
	require.NotEmpty(t, gotRequestID)
}

func TestDo_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	out := item{}
	require.NoError(t, apiclient.New(server.Client(), server.URL).Delete(context.Background(), "/items/1", &out))
	require.Zero(t, out)
}

func TestDo_ErrorCarriesProblem(t *testing.T) {
	server := problemServer(t, http.StatusConflict, "UHID already exists")
	client := apiclient.New(server.Client(), server.URL)

	err := client.Get(context.Background(), "/items", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusConflict, apiclient.StatusCode(err))

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UHID already exists", apiErr.Detail())
	require.Equal(t, "UHID already exists", apiErr.Message)
	require.NotErrorIs(t, err, hmserrors.ErrUnauthorized)
}

func TestDo_UnauthorizedIsMatchable(t *testing.T) {
	server := problemServer(t, http.StatusUnauthorized, "")
	err := apiclient.New(server.Client(), server.URL).Get(context.Background(), "/items", nil)
	require.ErrorIs(t, err, hmserrors.ErrUnauthorized)
}

func TestDo_WithoutPresenterShowsNothing(t *testing.T) {
	server := problemServer(t, http.StatusInternalServerError, "")
	err := apiclient.New(server.Client(), server.URL).Get(context.Background(), "/items", nil)
	require.Equal(t, http.StatusInternalServerError, apiclient.StatusCode(err))
}

func TestDo_PresenterShowsOneToast(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		detail      string
		wantMessage string
	}{
		{name: "not found", status: http.StatusNotFound, wantMessage: "Resource not found."},
		{name: "validation detail", status: http.StatusBadRequest, detail: "Date of birth is required", wantMessage: "Date of birth is required"},
		{name: "server error", status: http.StatusInternalServerError, detail: "NullPointerException", wantMessage: "Internal server error. Please try again later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := problemServer(t, tt.status, tt.detail)
			recorder := &notify.Recorder{}
			navigator := &recordingNavigator{}
			client := apiclient.New(server.Client(), server.URL, apiclient.WithPresenter(recorder, navigator, "/auth/login"))

			err := client.Get(context.Background(), "/items", nil)
			require.Equal(t, tt.status, apiclient.StatusCode(err))

			toasts := recorder.Toasts()
			require.Len(t, toasts, 1)
			require.Equal(t, "Error", toasts[0].Title)
			require.Equal(t, notify.ToastError, toasts[0].Type)
			require.Equal(t, tt.wantMessage, toasts[0].Message)
			require.Empty(t, navigator.routes)
		})
	}
}

func TestDo_PresenterRedirectsUnauthorizedWithoutToast(t *testing.T) {
	server := problemServer(t, http.StatusUnauthorized, "")
	recorder := &notify.Recorder{}
	navigator := &recordingNavigator{}
	client := apiclient.New(server.Client(), server.URL, apiclient.WithPresenter(recorder, navigator, "/auth/login"))

	err := client.Get(context.Background(), "/items", nil)
	require.ErrorIs(t, err, hmserrors.ErrUnauthorized)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Unauthorized. Please login again.", apiErr.Message)
	require.Empty(t, recorder.Toasts())
	require.Equal(t, []string{"/auth/login"}, navigator.routes)
}

func TestDo_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	recorder := &notify.Recorder{}
	err := apiclient.New(nil, url, apiclient.WithPresenter(recorder, nil, "")).Get(context.Background(), "/items", nil)
	require.Error(t, err)
	require.Zero(t, apiclient.StatusCode(err))
	require.Equal(t, 1, recorder.Count("Error"))
}

func TestWithBearer(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	t.Cleanup(server.Close)

	client := apiclient.New(server.Client(), server.URL, apiclient.WithBearer("abc"))
	require.NoError(t, client.Post(context.Background(), "/logout", map[string]string{"refreshToken": "r"}, nil))
	require.Equal(t, "Bearer abc", got)
}

func TestPageQuery(t *testing.T) {
	require.Equal(t, "?page=0&size=20", apiclient.PageQuery(0, 20))
	require.Equal(t, "?page=2&query=ravi&size=10", apiclient.PageQuery(2, 10, "query", "ravi", "status", ""))
}

func TestPage_Last(t *testing.T) {
	require.True(t, (&apiclient.Page[item]{TotalPages: 3, Number: 2}).Last())
	require.False(t, (&apiclient.Page[item]{TotalPages: 3, Number: 1}).Last())
	require.True(t, (&apiclient.Page[item]{}).Last())
}
