package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsBearerTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/users/", r.URL.Path)
		assert.Equal(t, "doctor", r.URL.Query().Get("role"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"General"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", "secret")

	var out struct {
		Name string `json:"name"`
	}
	err := c.Get(context.Background(), "/users/", url.Values{"role": {"doctor"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "General", out.Name)
}

func TestClientPostsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body["first_name"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	err := c.Patch(context.Background(), "/users/1", map[string]string{"first_name": "Ada"}, nil)
	require.NoError(t, err)
}

func TestClientMapsErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Email already in use"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	err := c.Put(context.Background(), "/hospital/", map[string]string{}, nil)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Email already in use", Message(err, "Failed to save"))
	assert.False(t, IsNotFound(err))
}

func TestClientNotFoundWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	err := c.Get(context.Background(), "/hospital/", nil, &struct{}{})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Failed to load hospital", Message(err, "Failed to load hospital"))
}

func TestClientUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid token"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "stale")
	err := c.Delete(context.Background(), "/resources/3")
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, "Invalid token", Message(err, "x"))
}

func TestClientSetTokenSwapsHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "old")
	c.SetToken("new")
	require.NoError(t, c.Post(context.Background(), "/auth/logout/", nil, nil))
	assert.Equal(t, "Bearer new", got)
}

func TestMessageFallbackForTransportErrors(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "tok")
	err := c.Get(context.Background(), "/notifications/", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Failed to load notifications", Message(err, "Failed to load notifications"))
}

func TestClientKeepsErrorTextVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"  Bed is occupied\n"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	defer c.Close()

	err := c.Delete(context.Background(), "/resources/3")
	require.Error(t, err)
	assert.Equal(t, "  Bed is occupied\n", Message(err, "Failed to delete resource"))
}

func TestClientMalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users": [`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	defer c.Close()

	var out struct {
		Users []string `json:"users"`
	}
	err := c.Get(context.Background(), "/users/", nil, &out)
	require.Error(t, err)

	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr), "a 200 is not an API error")
	assert.Equal(t, "Failed to load users", Message(err, "Failed to load users"))
}

func TestClientAckWithoutResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	require.NoError(t, c.Post(context.Background(), "/notifications/mark-all-read/", nil, nil))
	require.NoError(t, c.Close())
}
