package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arjundev/vidtubebackend/auth"
	"github.com/arjundev/vidtubebackend/config"
	"github.com/arjundev/vidtubebackend/middleware"
	"github.com/arjundev/vidtubebackend/service"
	"github.com/arjundev/vidtubebackend/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeMedia struct {
	mu         sync.Mutex
	uploads    []string
	failUpload bool
}

func (f *fakeMedia) Upload(_ context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload {
		return "", errors.New("bucket unavailable")
	}
	url := fmt.Sprintf("https://cdn.test/media/%d-%s", len(f.uploads), filepath.Base(localPath))
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeMedia) Delete(context.Context, string) error { return nil }

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func testConfig() config.Config {
	return config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryUserStore, *fakeMedia) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	users := store.NewMemoryUserStore()
	fm := &fakeMedia{}
	tokens := auth.NewTokenService(cfg.JWT)
	svc := service.New(users, auth.NewHasher(bcrypt.MinCost), tokens, fm, nil)

	r := gin.New()
	r.POST("/users/register", Register(svc))
	r.POST("/users/login", Login(svc, cfg))
	r.POST("/users/refresh-token", Refresh(svc, cfg))

	authed := r.Group("/users")
	authed.Use(middleware.Auth(tokens))
	{
		authed.POST("/logout", Logout(svc, cfg))
		authed.GET("/me", CurrentUser(svc))
		authed.PATCH("/me", UpdateProfile(svc))
		authed.POST("/change-password", ChangePassword(svc))
		authed.PATCH("/me/avatar", UpdateAvatar(svc))
		authed.GET("/channel/:username", ChannelProfile(svc))
		authed.GET("/history", WatchHistory(svc))
	}
	return r, users, fm
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, filename := range files {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doRegister(t *testing.T, r *gin.Engine, username, email string) envelope {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{
		"username": username,
		"email":    email,
		"password": "password1",
		"fullName": "Test User",
	}, map[string]string{"avatar": "avatar.png"})

	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, env.StatusCode, rec.Code)
	return env
}

func doLogin(t *testing.T, r *gin.Engine, username, password string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	env := doRegister(t, r, "alice", "alice@x.com")
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	assert.True(t, env.Success)

	// Sensitive fields never serialize.
	assert.NotContains(t, string(env.Data), "passwordHash")
	assert.NotContains(t, string(env.Data), "refreshTokenHash")
	assert.Contains(t, string(env.Data), `"username":"alice"`)

	// Duplicate username is a 409 even with a different email.
	env = doRegister(t, r, "alice", "alice2@x.com")
	assert.Equal(t, http.StatusConflict, env.StatusCode)
	assert.False(t, env.Success)
}

func TestRegisterEndpoint_MissingAvatar(t *testing.T) {
	r, _, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{
		"username": "alice",
		"email":    "alice@x.com",
		"password": "password1",
		"fullName": "Test User",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)
	doRegister(t, r, "alice", "alice@x.com")

	rec, env := doLogin(t, r, "alice", "password1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	access := cookieByName(rec, "accessToken")
	refresh := cookieByName(rec, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.NotEmpty(t, access.Value)
	assert.NotEmpty(t, refresh.Value)

	rec, env = doLogin(t, r, "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Nil(t, cookieByName(rec, "accessToken"))

	rec, _ = doLogin(t, r, "ghost", "password1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshEndpoint_Cookie(t *testing.T) {
	r, _, _ := newTestRouter(t)
	doRegister(t, r, "alice", "alice@x.com")
	rec, _ := doLogin(t, r, "alice", "password1")
	refresh := cookieByName(rec, "refreshToken")
	require.NotNil(t, refresh)

	req := httptest.NewRequest(http.MethodPost, "/users/refresh-token", nil)
	req.AddCookie(refresh)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)

	rotated := cookieByName(rec2, "refreshToken")
	require.NotNil(t, rotated)
	assert.NotEqual(t, refresh.Value, rotated.Value)

	// The spent token is rejected on reuse.
	req = httptest.NewRequest(http.MethodPost, "/users/refresh-token", nil)
	req.AddCookie(refresh)
	rec3 := httptest.NewRecorder()
	r.ServeHTTP(rec3, req)
	assert.Equal(t, http.StatusUnauthorized, rec3.Code)
}

func TestRefreshEndpoint_BodyFallback(t *testing.T) {
	r, _, _ := newTestRouter(t)
	doRegister(t, r, "alice", "alice@x.com")
	rec, _ := doLogin(t, r, "alice", "password1")
	refresh := cookieByName(rec, "refreshToken")
	require.NotNil(t, refresh)

	payload, err := json.Marshal(map[string]string{"refreshToken": refresh.Value})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/users/refresh-token", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestRefreshEndpoint_Missing(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/users/refresh-token", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)
	doRegister(t, r, "alice", "alice@x.com")
	rec, _ := doLogin(t, r, "alice", "password1")
	access := cookieByName(rec, "accessToken")
	refresh := cookieByName(rec, "refreshToken")

	req := httptest.NewRequest(http.MethodPost, "/users/logout", nil)
	req.AddCookie(access)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)

	// Cookies are cleared.
	cleared := cookieByName(rec2, "refreshToken")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// The pre-logout refresh token is revoked.
	req = httptest.NewRequest(http.MethodPost, "/users/refresh-token", nil)
	req.AddCookie(refresh)
	rec3 := httptest.NewRecorder()
	r.ServeHTTP(rec3, req)
	assert.Equal(t, http.StatusUnauthorized, rec3.Code)
}

func TestProtectedEndpoints_RequireAuth(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUser_BearerHeader(t *testing.T) {
	r, _, _ := newTestRouter(t)
	doRegister(t, r, "alice", "alice@x.com")
	rec, _ := doLogin(t, r, "alice", "password1")
	access := cookieByName(rec, "accessToken")

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)

	require.Equal(t, http.StatusOK, rec2.Code)
	assert.True(t, strings.Contains(rec2.Body.String(), `"username":"alice"`))
}

func TestChangePasswordEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)
	doRegister(t, r, "alice", "alice@x.com")
	rec, _ := doLogin(t, r, "alice", "password1")
	access := cookieByName(rec, "accessToken")

	payload, err := json.Marshal(map[string]string{
		"oldPassword": "password1",
		"newPassword": "password2",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/users/change-password", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(access)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)

	rec3, _ := doLogin(t, r, "alice", "password1")
	assert.Equal(t, http.StatusUnauthorized, rec3.Code)
	rec4, _ := doLogin(t, r, "alice", "password2")
	assert.Equal(t, http.StatusOK, rec4.Code)
}

func TestChannelProfileEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)
	doRegister(t, r, "alice", "alice@x.com")
	doRegister(t, r, "bob", "bob@x.com")
	rec, _ := doLogin(t, r, "bob", "password1")
	access := cookieByName(rec, "accessToken")

	req := httptest.NewRequest(http.MethodGet, "/users/channel/alice", nil)
	req.AddCookie(access)
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)

	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Contains(t, rec2.Body.String(), `"subscriberCount":0`)

	req = httptest.NewRequest(http.MethodGet, "/users/channel/ghost", nil)
	req.AddCookie(access)
	rec3 := httptest.NewRecorder()
	r.ServeHTTP(rec3, req)
	assert.Equal(t, http.StatusNotFound, rec3.Code)
}
