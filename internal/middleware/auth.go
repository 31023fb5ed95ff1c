package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/authz"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/session"
)

// SessionContextKey is where the verified session claims land on the
// gin context.
const SessionContextKey = "session"

// RouteGuard gates every page route. Public paths pass through; missing
// sessions bounce to the login page; invalid tokens are cleared and
// bounced; authenticated users without the route's capability land on
// their role's default page. Any verification failure is fail-closed.
func RouteGuard(sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if authz.IsPublicRoute(path) {
			c.Next()
			return
		}

		if _, err := c.Cookie(session.CookieName); err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		claims := sessions.GetSession(c)
		if claims == nil || claims.Role == "" {
			sessions.DestroySession(c)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		if !authz.CanAccessRoute(claims.Role, path) {
			c.Redirect(http.StatusFound, authz.DefaultRoute(claims.Role))
			c.Abort()
			return
		}

		c.Set(SessionContextKey, claims)
		c.Next()
	}
}

// RequireSession gates JSON API routes, answering 401 instead of
// redirecting.
func RequireSession(sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticated, claims := sessions.RequireAuth(c)
		if !authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": session.ReasonNotAuthenticated})
			return
		}
		c.Set(SessionContextKey, claims)
		c.Next()
	}
}

// RequireRoles gates JSON API routes on role membership.
func RequireRoles(sessions *session.Service, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorized, claims, reason := sessions.RequireRole(c, roles...)
		if !authorized {
			status := http.StatusForbidden
			if reason == session.ReasonNotAuthenticated {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": reason})
			return
		}
		c.Set(SessionContextKey, claims)
		c.Next()
	}
}

// SessionFromContext retrieves claims stored by one of the guards.
func SessionFromContext(c *gin.Context) *session.Claims {
	if val, ok := c.Get(SessionContextKey); ok {
		if claims, ok := val.(*session.Claims); ok {
			return claims
		}
	}
	return nil
}
