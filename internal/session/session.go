package session

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "dashboard_session"

// Failure reasons surfaced by RequireRole.
const (
	ReasonNotAuthenticated = "Not authenticated"
	ReasonInsufficientRole = "Insufficient permissions"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("session token has expired")
)

// Claims are the session token contents. The role travels inside the
// signed token so authorization never trusts a client-supplied value.
type Claims struct {
	UserID   int    `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// Service issues and validates session cookies. The signing secret is a
// single process-wide value shared by the issue and verify paths.
type Service struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewService constructs a session Service. secure controls the cookie's
// Secure flag and should be true in production.
func NewService(secret string, ttl time.Duration, secure bool) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, secure: secure}
}

// CreateSession signs a token for the user and sets the session cookie.
func (s *Service) CreateSession(c *gin.Context, user models.DashboardUser) error {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(s.ttl.Seconds()), "/", "", s.secure, true)
	return nil
}

// GetSession reads and verifies the session cookie. It returns nil for a
// missing cookie, a bad signature, or an expired token; verification
// problems are logged, never propagated.
func (s *Service) GetSession(c *gin.Context) *Claims {
	token, err := c.Cookie(CookieName)
	if err != nil || token == "" {
		return nil
	}

	claims, err := s.Verify(token)
	if err != nil {
		log.Printf("session verification error: %v", err)
		return nil
	}
	return claims
}

// Verify parses and validates a raw token string.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DestroySession deletes the session cookie. The token itself stays
// valid until natural expiry; only the client copy is gone.
func (s *Service) DestroySession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", s.secure, true)
}

// RequireAuth reports whether the request carries a valid session.
func (s *Service) RequireAuth(c *gin.Context) (bool, *Claims) {
	claims := s.GetSession(c)
	if claims == nil {
		return false, nil
	}
	return true, claims
}

// RequireRole additionally checks role membership in the allow-list.
func (s *Service) RequireRole(c *gin.Context, allowedRoles ...string) (bool, *Claims, string) {
	authenticated, claims := s.RequireAuth(c)
	if !authenticated {
		return false, nil, ReasonNotAuthenticated
	}

	for _, role := range allowedRoles {
		if claims.Role == role {
			return true, claims, ""
		}
	}
	return false, claims, ReasonInsufficientRole
}
