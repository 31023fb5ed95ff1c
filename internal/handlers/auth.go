package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/middleware"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/observability"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/repositories"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/session"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/telemetry"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthHandler serves login, registration and logout.
type AuthHandler struct {
	users    repositories.UserRepository
	sessions *session.Service
	audit    *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, sessions *session.Service, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, audit: audit}
}

// Login exchanges credentials for a session cookie. Credential errors
// stay generic; account-state errors are specific because the caller
// already proved the password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			observability.IncAuthAttempt("invalid_credentials")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !user.IsActive {
		observability.IncAuthAttempt("deactivated")
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated. Please contact administrator."})
		return
	}

	if !user.IsApproved {
		observability.IncAuthAttempt("pending_approval")
		c.JSON(http.StatusForbidden, gin.H{"error": "Account pending approval. Please wait for admin approval."})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		observability.IncAuthAttempt("invalid_credentials")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := h.users.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
		// Non-fatal; the login still succeeds.
		c.Error(err)
	}

	if err := h.sessions.CreateSession(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	observability.IncAuthAttempt("success")
	h.emitAudit(c, "INFO", "user logged in", user.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Public()})
}

// Register creates a new unapproved account. Only developer and support
// roles may self-register; admins are created out of band.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" || req.FullName == "" || req.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	if !emailPattern.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters long"})
		return
	}

	if req.Role != models.RoleDeveloper && req.Role != models.RoleSupport {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role. Only developer and support roles can be self-registered."})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Email, string(hash), req.FullName, req.Role)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.emitAudit(c, "INFO", "user registered, pending approval", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Registration successful! Your account is pending approval from an administrator.",
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"fullName":   user.FullName,
			"role":       user.Role,
			"isApproved": user.IsApproved,
		},
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.DestroySession(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me echoes the caller's session for the UI shell.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.SessionFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": session.ReasonNotAuthenticated})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": gin.H{
		"id":       claims.UserID,
		"email":    claims.Email,
		"fullName": claims.FullName,
		"role":     claims.Role,
	}})
}

func (h *AuthHandler) emitAudit(c *gin.Context, level, text string, userID int) {
	if h.audit == nil {
		return
	}
	id := userIDString(userID)
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), id)
}
