package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/middleware"
)

// PageRoutes lists every page path the dashboard shell serves. All of
// them pass through the route guard; the guard decides who sees what.
var PageRoutes = []string{
	"/",
	"/users",
	"/plans",
	"/tickets",
	"/chat",
	"/chatbot",
	"/analytics",
	"/admin-panel",
	"/login",
	"/register",
	"/track",
	"/complaint",
}

// PageShell answers for the SPA shell. The real UI is rendered
// client-side; the server's job here is only the access decision made
// by the route guard in front of this handler.
func PageShell(c *gin.Context) {
	resp := gin.H{"page": c.Request.URL.Path}
	if claims := middleware.SessionFromContext(c); claims != nil {
		resp["user"] = gin.H{
			"id":       claims.UserID,
			"fullName": claims.FullName,
			"role":     claims.Role,
		}
	}
	c.JSON(http.StatusOK, resp)
}
