package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/middleware"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/repositories"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/telemetry"
)

// AdminHandler serves the admin approval workflow. Every route is
// admin-gated by middleware before it reaches these methods.
type AdminHandler struct {
	users repositories.UserRepository
	audit *telemetry.AuditEmitter
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(users repositories.UserRepository, audit *telemetry.AuditEmitter) *AdminHandler {
	return &AdminHandler{users: users, audit: audit}
}

// Pending lists unapproved accounts.
func (h *AdminHandler) Pending(c *gin.Context) {
	users, err := h.users.PendingUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Users lists every dashboard account.
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.users.AllUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Approve resolves a pending account: approve marks it usable and
// records the approver, reject deletes the record.
func (h *AdminHandler) Approve(c *gin.Context) {
	claims := middleware.SessionFromContext(c)

	var req struct {
		UserID int    `json:"userId"`
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID and action are required"})
		return
	}

	switch req.Action {
	case "approve":
		user, err := h.users.Approve(c.Request.Context(), req.UserID, claims.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		h.emitAudit(c, "INFO", "user approved", claims.UserID)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User approved successfully", "user": user})
	case "reject":
		if err := h.users.Reject(c.Request.Context(), req.UserID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		h.emitAudit(c, "INFO", "user rejected", claims.UserID)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User rejected successfully"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

func (h *AdminHandler) emitAudit(c *gin.Context, level, text string, userID int) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDString(userID))
}
