package server

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templateFS embed.FS

const baseLayout = "layouts/base"

// Page titles shown in the header of the listing pages.
const (
	indexTitle = "Последние обновления на сайте"
	groupTitle = "Здесь будет информация о группах проекта Yatube"
)

func newViewEngine(mediaURL func(string) string) *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("media", mediaURL)
	engine.AddFunc("date", func(t time.Time) string {
		return t.Format("02 Jan 2006")
	})
	engine.AddFunc("linebreaksbr", func(s string) template.HTML {
		escaped := template.HTMLEscapeString(s)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	})
	return engine
}

// wantsJSON reports whether the client prefers JSON over HTML.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// render writes name inside the base layout, or view as JSON for API
// clients. data is extended with the current user and path.
func render(c *fiber.Ctx, status int, name string, data fiber.Map, view any) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(view)
	}
	if data == nil {
		data = fiber.Map{}
	}
	data["user"] = session.CurrentUser(c)
	data["path"] = c.Path()
	return c.Status(status).Render(name, data, baseLayout)
}

// ErrorHandler turns handler errors into the custom error pages.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)

	if status == fiber.StatusUnauthorized {
		return c.Redirect(session.LoginURL(c.OriginalURL()), fiber.StatusFound)
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()))
	}

	if wantsJSON(c) {
		return models.RespondWithError(c, status, err)
	}

	var name string
	switch {
	case status == fiber.StatusNotFound:
		name = "core/404"
	case status == fiber.StatusForbidden:
		name = "core/403"
	case status >= fiber.StatusInternalServerError:
		name = "core/500"
	default:
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(status).SendString(http.StatusText(status))
	}

	data := fiber.Map{"path": c.Path(), "user": session.CurrentUser(c)}
	if rerr := c.Status(status).Render(name, data, baseLayout); rerr != nil {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(status).SendString(http.StatusText(status))
	}
	return nil
}
