// Package session keeps the logged-in user in a signed JWT cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName holds the session token.
	CookieName = "yatube_session"
	// LoginPath is where anonymous users are sent.
	LoginPath = "/auth/login/"

	issuer         = "yatube"
	audience       = "yatube-web"
	revokedPrefix  = "blacklist:"
	localsUser     = "user"
	localsUserID   = "userID"
	localsUsername = "username"
	localsTokenJTI = "sessionJTI"
)

// Claims is the payload of a session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues, reads and revokes session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	users  repository.UserRepository
	redis  *redis.Client
}

// NewManager builds a Manager. rdb may be nil, which disables revocation.
func NewManager(secret string, ttl time.Duration, secure bool, users repository.UserRepository, rdb *redis.Client) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, users: users, redis: rdb}
}

// Issue signs a token for user.
func (m *Manager) Issue(user *models.User) (string, *Claims, error) {
	if len(m.secret) == 0 {
		return "", nil, fmt.Errorf("JWT secret not configured")
	}
	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Parse validates signature, issuer, audience and time claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Login sets the session cookie for user.
func (m *Manager) Login(c *fiber.Ctx, user *models.User) error {
	token, claims, err := m.Issue(user)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(localsUser, user)
	c.Locals(localsUserID, user.ID)
	c.Locals(localsUsername, user.Username)
	return nil
}

// Logout revokes the current token, when Redis is available, and clears the cookie.
func (m *Manager) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(CookieName); token != "" {
		if claims, err := m.Parse(token); err == nil {
			m.revoke(c.UserContext(), claims)
		}
	}
	m.clearCookie(c)
	c.Locals(localsUser, nil)
	c.Locals(localsUserID, nil)
	c.Locals(localsUsername, nil)
	return nil
}

func (m *Manager) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (m *Manager) revoke(ctx context.Context, claims *Claims) {
	if m.redis == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return
	}
	if err := m.redis.Set(ctx, revokedPrefix+claims.ID, 1, remaining).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to revoke session", slog.String("error", err.Error()))
	}
}

func (m *Manager) revoked(ctx context.Context, claims *Claims) bool {
	if m.redis == nil || claims.ID == "" {
		return false
	}
	n, err := m.redis.Exists(ctx, revokedPrefix+claims.ID).Result()
	return err == nil && n > 0
}

// Middleware resolves the session cookie into the current user. Requests
// with a missing, invalid or revoked token continue anonymously.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(CookieName)
		if token == "" {
			return c.Next()
		}
		ctx := c.UserContext()

		claims, err := m.Parse(token)
		if err != nil || m.revoked(ctx, claims) {
			m.clearCookie(c)
			return c.Next()
		}
		id, err := claims.UserID()
		if err != nil {
			m.clearCookie(c)
			return c.Next()
		}
		user, err := m.users.GetByID(ctx, id)
		if err != nil {
			if !models.IsNotFound(err) {
				return err
			}
			m.clearCookie(c)
			return c.Next()
		}

		c.Locals(localsUser, user)
		c.Locals(localsUserID, user.ID)
		c.Locals(localsUsername, user.Username)
		c.Locals(localsTokenJTI, claims.ID)
		return c.Next()
	}
}

// CurrentUser returns the logged-in user or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localsUser).(*models.User)
	return u
}

// CurrentUserID returns the logged-in user's id or 0.
func CurrentUserID(c *fiber.Ctx) uint {
	if u := CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

// LoginURL builds the login redirect for next, keeping slashes literal.
func LoginURL(next string) string {
	escaped := url.QueryEscape(next)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	escaped = strings.ReplaceAll(escaped, "%2F", "/")
	return LoginPath + "?next=" + escaped
}

// SafeNext returns next when it is a local path, otherwise "/".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

// LoginRequired redirects anonymous requests of any method to the login page.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return c.Redirect(LoginURL(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}

// StaffRequired lets only staff through. Anonymous users are sent to log
// in, other users get FORBIDDEN.
func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return c.Redirect(LoginURL(c.OriginalURL()), fiber.StatusFound)
		}
		if !u.IsStaff {
			return models.NewForbiddenError("Staff access required")
		}
		return c.Next()
	}
}
