package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-jwt-auth"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	app, err := NewApp(context.Background(), auth.Options{
		SigningKey:         base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		ExpirationMillis:   60000,
		DBDriver:           "sqlite",
		DBDSN:              "file:" + t.Name() + "?mode=memory&cache=shared",
		CORSAllowedOrigins: "http://localhost:8080",
		BcryptCost:         auth.MinBcryptCost,
		RequestTimeout:     5 * time.Second,
		LogLevel:           "error",
		ContextKey:         "auth",
		AuthScheme:         "Bearer",
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return app
}

func call(t *testing.T, app *App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderOrigin, "http://localhost:8080")
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	res, err := app.server.WrappedRouter().Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res, data
}

func TestServer_EndToEnd(t *testing.T) {
	app := newTestApp(t)

	res, _ := call(t, app, http.MethodPost, "/auth/signup", "", map[string]string{
		"fullName": "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "analytical-engine",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "http://localhost:8080", res.Header.Get(fiber.HeaderAccessControlAllowOrigin))

	res, body := call(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "analytical-engine",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var login auth.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, int64(60000), login.ExpiresIn)

	res, body = call(t, app, http.MethodGet, "/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "ada@example.com")

	res, _ = call(t, app, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, body = call(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, string(body))
}

func TestServer_PublicEndpoints(t *testing.T) {
	app := newTestApp(t)

	res, body := call(t, app, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	_, _ = call(t, app, http.MethodGet, "/users/me", "", nil)

	res, body = call(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `auth_request_authentications_total{outcome="no_token"}`)
}
