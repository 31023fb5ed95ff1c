package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/middleware"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/mocks"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/repositories"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/session"
)

func newAuthRouter(users repositories.UserRepository) (*gin.Engine, *session.Service) {
	gin.SetMode(gin.TestMode)
	sessions := session.NewService("test-secret", time.Hour, false)
	handler := NewAuthHandler(users, sessions, nil)

	router := gin.New()
	router.POST("/api/auth/login", handler.Login)
	router.POST("/api/auth/register", handler.Register)
	router.POST("/api/auth/logout", handler.Logout)
	router.GET("/api/auth/me", middleware.RequireSession(sessions), handler.Me)
	return router, sessions
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T, password string) models.DashboardUser {
	return models.DashboardUser{
		ID:           12,
		Email:        "dev@example.com",
		PasswordHash: hashPassword(t, password),
		FullName:     "Dev Eloper",
		Role:         models.RoleDeveloper,
		IsApproved:   true,
		IsActive:     true,
	}
}

func TestLoginSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	user := activeUser(t, "hunter2-strong")
	users.On("GetByEmail", mock.Anything, "dev@example.com").Return(user, nil).Once()
	users.On("UpdateLastLogin", mock.Anything, 12).Return(nil).Once()

	router, _ := newAuthRouter(users)
	rec := postJSON(router, "/api/auth/login", gin.H{"email": "dev@example.com", "password": "hunter2-strong"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"role":"developer"`)
	assert.NotContains(t, rec.Body.String(), "password")

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.CookieName {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	assert.NotEmpty(t, sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)

	users.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetByEmail", mock.Anything, "dev@example.com").Return(activeUser(t, "hunter2-strong"), nil).Once()

	router, _ := newAuthRouter(users)
	rec := postJSON(router, "/api/auth/login", gin.H{"email": "dev@example.com", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	assert.Empty(t, rec.Result().Cookies())
	users.AssertExpectations(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").
		Return(models.DashboardUser{}, repositories.ErrUserNotFound).Once()

	router, _ := newAuthRouter(users)
	rec := postJSON(router, "/api/auth/login", gin.H{"email": "nobody@example.com", "password": "whatever1"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	users.AssertExpectations(t)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	user := activeUser(t, "hunter2-strong")
	user.IsActive = false
	users.On("GetByEmail", mock.Anything, "dev@example.com").Return(user, nil).Once()

	router, _ := newAuthRouter(users)
	rec := postJSON(router, "/api/auth/login", gin.H{"email": "dev@example.com", "password": "hunter2-strong"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account is deactivated. Please contact administrator.")
	users.AssertExpectations(t)
}

func TestLoginPendingApproval(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	user := activeUser(t, "hunter2-strong")
	user.IsApproved = false
	users.On("GetByEmail", mock.Anything, "dev@example.com").Return(user, nil).Once()

	router, _ := newAuthRouter(users)
	rec := postJSON(router, "/api/auth/login", gin.H{"email": "dev@example.com", "password": "hunter2-strong"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account pending approval. Please wait for admin approval.")
	users.AssertExpectations(t)
}

func TestLoginMissingFields(t *testing.T) {
	router, _ := newAuthRouter(new(mocks.UserRepositoryMock))

	rec := postJSON(router, "/api/auth/login", gin.H{"email": "dev@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(router, "/api/auth/login", gin.H{"password": "hunter2-strong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	created := models.DashboardUser{
		ID:       31,
		Email:    "new@example.com",
		FullName: "New Person",
		Role:     models.RoleSupport,
	}
	users.On("Create", mock.Anything, "new@example.com", mock.AnythingOfType("string"), "New Person", models.RoleSupport).
		Return(created, nil).Once()

	router, _ := newAuthRouter(users)
	rec := postJSON(router, "/api/auth/register", gin.H{
		"email":    "new@example.com",
		"password": "long-enough",
		"fullName": "New Person",
		"role":     models.RoleSupport,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registration successful! Your account is pending approval from an administrator.")
	assert.Contains(t, rec.Body.String(), `"isApproved":false`)
	users.AssertExpectations(t)
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newAuthRouter(new(mocks.UserRepositoryMock))

	tests := []struct {
		name string
		body gin.H
		want string
	}{
		{"missing fields", gin.H{"email": "a@b.co"}, "All fields are required"},
		{"bad email", gin.H{"email": "not-an-email", "password": "long-enough", "fullName": "X", "role": "support"}, "Invalid email format"},
		{"short password", gin.H{"email": "a@b.co", "password": "short", "fullName": "X", "role": "support"}, "Password must be at least 8 characters long"},
		{"admin role", gin.H{"email": "a@b.co", "password": "long-enough", "fullName": "X", "role": "admin"}, "Only developer and support roles can be self-registered"},
		{"unknown role", gin.H{"email": "a@b.co", "password": "long-enough", "fullName": "X", "role": "wizard"}, "Only developer and support roles can be self-registered"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(router, "/api/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("Create", mock.Anything, "taken@example.com", mock.AnythingOfType("string"), "X", models.RoleDeveloper).
		Return(models.DashboardUser{}, repositories.ErrDuplicateEmail).Once()

	router, _ := newAuthRouter(users)
	rec := postJSON(router, "/api/auth/register", gin.H{
		"email":    "taken@example.com",
		"password": "long-enough",
		"fullName": "X",
		"role":     models.RoleDeveloper,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
	users.AssertExpectations(t)
}

func TestLogoutClearsCookie(t *testing.T) {
	router, _ := newAuthRouter(new(mocks.UserRepositoryMock))
	rec := postJSON(router, "/api/auth/logout", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestMeEchoesSession(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	user := activeUser(t, "hunter2-strong")
	users.On("GetByEmail", mock.Anything, "dev@example.com").Return(user, nil).Once()
	users.On("UpdateLastLogin", mock.Anything, 12).Return(nil).Once()

	router, _ := newAuthRouter(users)
	login := postJSON(router, "/api/auth/login", gin.H{"email": "dev@example.com", "password": "hunter2-strong"})
	require.Equal(t, http.StatusOK, login.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, cookie := range login.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":12`)
	assert.Contains(t, rec.Body.String(), `"email":"dev@example.com"`)

	// Without a cookie the endpoint answers 401.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertExpectations(t)
}
