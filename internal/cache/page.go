package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// KeyFunc derives the cache key of a request.
type KeyFunc func(c *fiber.Ctx) string

type pageEntry struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageKey keys a request by response format, viewer and full URL so
// logged-in users never receive someone else's header.
func PageKey(c *fiber.Ctx) string {
	format := "html"
	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		format = "json"
	}
	var viewer uint
	if uid, ok := c.Locals("userID").(uint); ok {
		viewer = uid
	}
	return fmt.Sprintf("%s:%d:%s", format, viewer, c.OriginalURL())
}

// Page caches successful GET responses for ttl. Writes elsewhere do not
// invalidate entries: a cached page stays stale until it expires or the
// store is cleared. Store failures fall through to the handler.
func Page(store Store, ttl time.Duration, key KeyFunc) fiber.Handler {
	if key == nil {
		key = PageKey
	}
	return func(c *fiber.Ctx) error {
		if ttl <= 0 || c.Method() != fiber.MethodGet {
			return c.Next()
		}

		ctx := c.UserContext()
		k := key(c)

		raw, ok, err := store.Get(ctx, k)
		if err != nil {
			observability.PageCacheRequests.WithLabelValues("error").Inc()
			middleware.Logger.WarnContext(ctx, "page cache read failed", slog.String("error", err.Error()))
		} else if ok {
			var entry pageEntry
			if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
				observability.PageCacheRequests.WithLabelValues("hit").Inc()
				c.Set(fiber.HeaderContentType, entry.ContentType)
				c.Set("X-Cache", "HIT")
				return c.Status(fiber.StatusOK).Send(entry.Body)
			}
		}
		if err == nil {
			observability.PageCacheRequests.WithLabelValues("miss").Inc()
		}

		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		entry := pageEntry{
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		payload, err := json.Marshal(entry)
		if err != nil {
			return nil
		}
		if err := store.Set(ctx, k, payload, ttl); err != nil {
			middleware.Logger.WarnContext(ctx, "page cache write failed", slog.String("error", err.Error()))
		}
		c.Set("X-Cache", "MISS")
		return nil
	}
}
