package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t   *testing.T
	db  *gorm.DB
	srv *Server
	app *fiber.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{
		Port:                "0",
		Env:                 "test",
		JWTSecret:           "test-secret",
		SessionTTLHours:     1,
		MediaRoot:           t.TempDir(),
		MaxUploadMB:         5,
		PageCacheTTLSeconds: 20,
	}
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return &testEnv{t: t, db: db, srv: srv, app: srv.App()}
}

type reqOption func(*http.Request)

func asUser(env *testEnv, u *models.User) reqOption {
	token, _, err := env.srv.sessions.Issue(u)
	require.NoError(env.t, err)
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "yatube_session", Value: token})
	}
}

func acceptJSON(r *http.Request) {
	r.Header.Set("Accept", fiber.MIMEApplicationJSON)
}

func (e *testEnv) do(method, target string, body io.Reader, opts ...reqOption) *http.Response {
	e.t.Helper()
	req := httptest.NewRequest(method, target, body)
	for _, opt := range opts {
		opt(req)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) get(target string, opts ...reqOption) *http.Response {
	return e.do(http.MethodGet, target, nil, opts...)
}

func (e *testEnv) postForm(target string, values url.Values, opts ...reqOption) *http.Response {
	opts = append([]reqOption{func(r *http.Request) {
		r.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	}}, opts...)
	return e.do(http.MethodPost, target, strings.NewReader(values.Encode()), opts...)
}

func (e *testEnv) postMultipart(target string, fields map[string]string, image []byte, opts ...reqOption) *http.Response {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, w.WriteField(k, v))
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "small.gif")
		require.NoError(e.t, err)
		_, err = fw.Write(image)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, w.Close())
	opts = append([]reqOption{func(r *http.Request) {
		r.Header.Set("Content-Type", w.FormDataContentType())
	}}, opts...)
	return e.do(http.MethodPost, target, &buf, opts...)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func gifImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.White, color.Black})
	img.SetColorIndex(1, 1, 1)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

type pageJSON struct {
	Results []struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
	} `json:"results"`
	Number   int   `json:"number"`
	NumPages int   `json:"num_pages"`
	Count    int64 `json:"count"`
}

func TestHealthProbes(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/health/live")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.get("/health/ready")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
}

func TestUnknownPathRendersCustom404(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get("/unexisting_page/")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Custom 404")

	resp = env.get("/unexisting_page/", acceptJSON)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
}

func TestStaticPages(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/about/author/", "/about/tech/"} {
		resp := env.get(path)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html", path)
	}
}
