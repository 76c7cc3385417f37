package server

import (
	"net/url"
	"strconv"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseID reads a positive integer route parameter. Anything else is a
// NOT_FOUND, the same as an id that matches no row.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError(param, raw)
	}
	return uint(id), nil
}

// redirectTo sends a 302 to path.
func redirectTo(c *fiber.Ctx, path string) error {
	return c.Redirect(path, fiber.StatusFound)
}

// profileURL escapes username, which may hold characters the signup form
// would reject when the account came from the seed tool or the database.
func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
