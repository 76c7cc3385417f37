package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestApp(t *testing.T, rdb *redis.Client) (*fiber.App, *Manager, *models.User, *models.User) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	author := testutil.CreateUser(t, db, "leo")
	staff := testutil.CreateStaff(t, db, "admin")
	mgr := NewManager(testSecret, time.Hour, false, repository.NewUserRepository(db), rdb)

	app := fiber.New()
	app.Use(mgr.Middleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if u := CurrentUser(c); u != nil {
			return c.SendString(u.Username)
		}
		return c.SendString("anonymous")
	})
	app.Get("/create/", LoginRequired(), func(c *fiber.Ctx) error { return c.SendString("form") })
	app.Get("/admin/", StaffRequired(), func(c *fiber.Ctx) error { return c.SendString("admin") })
	app.Post("/logout", func(c *fiber.Ctx) error { return mgr.Logout(c) })
	return app, mgr, author, staff
}

func cookieFor(t *testing.T, mgr *Manager, u *models.User) *http.Cookie {
	t.Helper()
	token, _, err := mgr.Issue(u)
	require.NoError(t, err)
	return &http.Cookie{Name: CookieName, Value: token}
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIssueAndParse(t *testing.T) {
	mgr := NewManager(testSecret, time.Hour, false, nil, nil)
	token, claims, err := mgr.Issue(&models.User{ID: 7, Username: "leo"})
	require.NoError(t, err)

	parsed, err := mgr.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "leo", parsed.Username)
	assert.Equal(t, claims.ID, parsed.ID)
	id, err := parsed.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestParseRejectsBadTokens(t *testing.T) {
	mgr := NewManager(testSecret, time.Hour, false, nil, nil)

	other := NewManager("another-secret", time.Hour, false, nil, nil)
	forged, _, err := other.Issue(&models.User{ID: 1, Username: "x"})
	require.NoError(t, err)
	_, err = mgr.Parse(forged)
	assert.Error(t, err)

	expired := NewManager(testSecret, -time.Minute, false, nil, nil)
	old, _, err := expired.Issue(&models.User{ID: 1, Username: "x"})
	require.NoError(t, err)
	_, err = mgr.Parse(old)
	assert.Error(t, err)

	wrongAud := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{"somebody-else"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := wrongAud.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = mgr.Parse(signed)
	assert.Error(t, err)
}

func TestIssueWithoutSecret(t *testing.T) {
	_, _, err := NewManager("", time.Hour, false, nil, nil).Issue(&models.User{ID: 1})
	assert.Error(t, err)
}

func TestMiddlewareResolvesUser(t *testing.T) {
	app, mgr, author, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", body(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookieFor(t, mgr, author))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "leo", body(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", body(t, resp))
}

func TestLoginRequiredRedirects(t *testing.T) {
	app, mgr, author, _ := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/create/", resp.Header.Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(cookieFor(t, mgr, author))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestStaffRequired(t *testing.T) {
	app, mgr, author, staff := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(cookieFor(t, mgr, author))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(cookieFor(t, mgr, staff))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app, mgr, author, _ := newTestApp(t, rdb)
	cookie := cookieFor(t, mgr, author)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), CookieName+"=;")

	claims, err := mgr.Parse(cookie.Value)
	require.NoError(t, err)
	assert.True(t, mr.Exists(revokedPrefix+claims.ID))
	assert.Greater(t, mr.TTL(revokedPrefix+claims.ID), time.Duration(0))

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", body(t, resp))
}

func TestLoginURL(t *testing.T) {
	cases := map[string]string{
		"/create/":             "/auth/login/?next=/create/",
		"/posts/3/comment/":    "/auth/login/?next=/posts/3/comment/",
		"/follow/?page=2":      "/auth/login/?next=/follow/%3Fpage%3D2",
		"/profile/a b/follow/": "/auth/login/?next=/profile/a%20b/follow/",
	}
	for in, want := range cases {
		assert.Equal(t, want, LoginURL(in), in)
	}
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/create/":             "/create/",
		"/follow/?page=2":      "/follow/?page=2",
		"//evil.example":       "/",
		"https://evil.example": "/",
		"/\\evil.example":      "/",
		"relative":             "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeNext(in), in)
	}
}
