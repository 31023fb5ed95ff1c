// Package authz holds the role-based access policy. One table maps each
// role to its capabilities; a lookup layer maps page routes onto
// capabilities so the routing middleware and handlers can never drift
// apart. Both tables are immutable after process start.
package authz

import "github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"

// Capabilities understood by the policy.
const (
	CapDashboard  = "dashboard"
	CapUsers      = "users"
	CapPlans      = "plans"
	CapIssues     = "issues"
	CapAnalytics  = "analytics"
	CapAdminPanel = "admin-panel"
	CapChat       = "chat"
	CapChatbot    = "chatbot"
)

// permissions is the canonical role -> capability table. The overview
// dashboard is admin-only, which is why developer and support land on
// their own default routes instead.
var permissions = map[string][]string{
	models.RoleAdmin:     {CapDashboard, CapUsers, CapPlans, CapIssues, CapAnalytics, CapAdminPanel, CapChat, CapChatbot},
	models.RoleDeveloper: {CapUsers, CapIssues, CapChat},
	models.RoleSupport:   {CapIssues, CapChat},
}

// routeCapabilities maps page routes onto the capability they require.
// A path missing from this table carries no restriction beyond
// authentication.
var routeCapabilities = map[string]string{
	"/":            CapDashboard,
	"/users":       CapUsers,
	"/plans":       CapPlans,
	"/tickets":     CapIssues,
	"/chat":        CapChat,
	"/chatbot":     CapChatbot,
	"/analytics":   CapAnalytics,
	"/admin-panel": CapAdminPanel,
}

// publicRoutes require no session at all.
var publicRoutes = map[string]bool{
	"/login":     true,
	"/register":  true,
	"/track":     true,
	"/complaint": true,
}

// defaultRoutes is where each role lands after an authorization bounce.
var defaultRoutes = map[string]string{
	models.RoleAdmin:     "/",
	models.RoleDeveloper: "/users",
	models.RoleSupport:   "/tickets",
}

// HasPermission reports whether role may use the capability. Unknown
// roles are denied.
func HasPermission(role, capability string) bool {
	caps, ok := permissions[role]
	if !ok {
		return false
	}
	for _, c := range caps {
		if c == capability {
			return true
		}
	}
	return false
}

// IsPublicRoute reports whether the path needs no session.
func IsPublicRoute(path string) bool {
	return publicRoutes[path]
}

// RouteCapability returns the capability guarding a page route, or
// ("", false) for unrestricted paths.
func RouteCapability(path string) (string, bool) {
	cap, ok := routeCapabilities[path]
	return cap, ok
}

// CanAccessRoute decides whether role may load the page at path.
// Restricted paths are fail-closed for unknown roles.
func CanAccessRoute(role, path string) bool {
	cap, restricted := RouteCapability(path)
	if !restricted {
		return true
	}
	return HasPermission(role, cap)
}

// AllowedRoles lists the roles that may load the page at path, derived
// from the capability tables. Unrestricted paths admit every role.
func AllowedRoles(path string) []string {
	roles := make([]string, 0, len(permissions))
	for _, role := range KnownRoles() {
		if CanAccessRoute(role, path) {
			roles = append(roles, role)
		}
	}
	return roles
}

// DefaultRoute is the landing page for a role after a redirect.
func DefaultRoute(role string) string {
	if route, ok := defaultRoutes[role]; ok {
		return route
	}
	return "/tickets"
}

// CanPostToRoom enforces the channel send restriction server-side: an
// admin-only room accepts posts from admins alone.
func CanPostToRoom(role string, adminOnlyPost bool) bool {
	if !adminOnlyPost {
		return true
	}
	return role == models.RoleAdmin
}

// KnownRoles lists the roles the policy recognizes.
func KnownRoles() []string {
	return []string{models.RoleAdmin, models.RoleDeveloper, models.RoleSupport}
}
