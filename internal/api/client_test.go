package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/layout"
)

func TestLogin_StoresToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case pathLogin:
			var req LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "demo", req.Login)
			json.NewEncoder(w).Encode(LoginResponse{Token: "tok-1", User: User{ID: "u1", Login: "demo"}})
		case pathUserConfig:
			gotAuth = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(UserConfig{UserID: "u1", Config: map[string]json.RawMessage{}})
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.False(t, c.Authenticated())

	resp, err := c.Login(context.Background(), "demo", "demo")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.True(t, c.Authenticated())
	assert.Equal(t, "demo", c.User().Login)

	_, err = c.GetUserConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)

	c.Logout()
	assert.False(t, c.Authenticated())
}

func TestGetUserConfig_KeepsOnlyLayouts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"user_id": "u1",
			"config": {
				"dashboard_layout_v1": {"order": ["stats", "market-info"], "visibility": {"stats": false}},
				"browse_layout_v1": {"order": ["search-filters"]},
				"theme": "dark",
				"broken": {"visibility": {}}
			},
			"updated_at": "2024-03-01T12:00:00Z"
		}`)
	}))
	defer srv.Close()

	got, err := New(srv.URL, WithToken("t")).GetUserConfig(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"stats", "market-info"}, got["dashboard_layout_v1"].Order)
	assert.False(t, got["dashboard_layout_v1"].IsVisible("stats"))
	assert.NotNil(t, got["browse_layout_v1"].Visibility)
}

func TestSaveUserConfig_SendsFullMapping(t *testing.T) {
	var body ConfigPayload
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		io.WriteString(w, `{"user_id":"u1","config":{}}`)
	}))
	defer srv.Close()

	err := New(srv.URL, WithToken("t")).SaveUserConfig(context.Background(), map[string]layout.State{
		"a": {Order: []string{"x"}, Visibility: map[string]bool{"x": false}},
		"b": {Order: []string{"y"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	require.Len(t, body.Config, 2)
	assert.JSONEq(t, `{"order":["x"],"visibility":{"x":false}}`, string(body.Config["a"]))
	assert.JSONEq(t, `{"order":["y"],"visibility":{}}`, string(body.Config["b"]))
}

func TestSaveUserConfig_KeepsNonLayoutEntries(t *testing.T) {
	var saved ConfigPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			io.WriteString(w, `{"user_id":"u1","config":{
				"dashboard_layout_v1": {"order": ["stats"]},
				"theme": "dark",
				"browse_layout_v1": {"visibility": {}}
			}}`)
			return
		}
		saved = ConfigPayload{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
		io.WriteString(w, `{"user_id":"u1","config":{}}`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("t"))
	layouts, err := c.GetUserConfig(context.Background())
	require.NoError(t, err)
	require.Len(t, layouts, 1)

	layouts["portfolio_layout_v1"] = layout.State{Order: []string{"holdings"}}
	require.NoError(t, c.SaveUserConfig(context.Background(), layouts))

	require.Len(t, saved.Config, 4)
	assert.JSONEq(t, `"dark"`, string(saved.Config["theme"]))
	assert.JSONEq(t, `{"visibility":{}}`, string(saved.Config["browse_layout_v1"]))
	assert.JSONEq(t, `{"order":["stats"],"visibility":{}}`, string(saved.Config["dashboard_layout_v1"]))

	// a layout saved under a key that held something else replaces it
	layouts["theme"] = layout.State{Order: []string{"x"}}
	require.NoError(t, c.SaveUserConfig(context.Background(), layouts))
	assert.JSONEq(t, `{"order":["x"],"visibility":{}}`, string(saved.Config["theme"]))

	// entries belong to the logged in user
	c.Logout()
	require.NoError(t, c.SaveUserConfig(context.Background(), map[string]layout.State{}))
	assert.Empty(t, saved.Config)
}

func TestPushUserConfig_ReturnsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathPush, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		io.WriteString(w, `{"updated_users": 7}`)
	}))
	defer srv.Close()

	n, err := New(srv.URL, WithToken("t")).PushUserConfig(context.Background(), map[string]layout.State{
		"k": {Order: []string{"a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestErrors_MapToSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":"nope"}`)
			}))
			defer srv.Close()

			_, err := New(srv.URL).PushUserConfig(context.Background(), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "err = %v", err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestErrors_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL).SaveUserConfig(context.Background(), nil)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "backend down", apiErr.Message)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestLMSConfig_RoundTrip(t *testing.T) {
	stored := DefaultLMSConfig()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&stored))
		}
		json.NewEncoder(w).Encode(stored)
	}))
	defer srv.Close()
	c := New(srv.URL, WithToken("t"))

	got, err := c.GetLMSConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", got.Version)
	assert.Equal(t, 300, got.PortfolioScreen.RefreshInterval)

	got.DashboardScreen.SortBy = "change"
	updated, err := c.UpdateLMSConfig(context.Background(), got)
	require.NoError(t, err)
	assert.Equal(t, "change", updated.DashboardScreen.SortBy)
}

func TestNew_ResolvesURL(t *testing.T) {
	t.Setenv(URLEnv, "")
	assert.Equal(t, DefaultURL, New("").BaseURL())

	t.Setenv(URLEnv, "http://api.example:9000/")
	assert.Equal(t, "http://api.example:9000", New("").BaseURL())
	assert.Equal(t, "http://other", New("http://other/").BaseURL())
}
