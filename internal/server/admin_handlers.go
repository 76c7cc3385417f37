package server

import (
	"errors"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/session"

	"github.com/gofiber/fiber/v2"
)

const adminUserListLimit = 50

// AdminIndex handles GET /admin/
// @Summary Staff dashboard
// @Tags admin
// @Produce json
// @Success 200 {object} object{groups=[]models.Group,users=[]models.User}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/ [get]
func (s *Server) AdminIndex(c *fiber.Ctx) error {
	return s.renderAdmin(c, fiber.StatusOK, "")
}

func (s *Server) renderAdmin(c *fiber.Ctx, status int, formError string) error {
	ctx := c.UserContext()
	groups, err := s.groupService.List(ctx)
	if err != nil {
		return err
	}
	users, err := s.userRepo.List(ctx, adminUserListLimit)
	if err != nil {
		return err
	}
	return render(c, status, "admin/index", fiber.Map{
		"groups":     groups,
		"users":      users,
		"form_error": formError,
	}, fiber.Map{"groups": groups, "users": users})
}

// AdminCreateGroup handles POST /admin/groups/
// @Summary Create a group
// @Tags admin
// @Accept x-www-form-urlencoded
// @Produce json
// @Param title formData string true "Title"
// @Param slug formData string true "Slug"
// @Param description formData string false "Description"
// @Success 201 {object} models.Group
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/groups/ [post]
func (s *Server) AdminCreateGroup(c *fiber.Ctx) error {
	ctx := c.UserContext()
	group, err := s.groupService.Create(ctx, service.CreateGroupInput{
		Title:       c.FormValue("title"),
		Slug:        c.FormValue("slug"),
		Description: c.FormValue("description"),
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeValidation && !wantsJSON(c) {
			return s.renderAdmin(c, fiber.StatusOK, appErr.Message)
		}
		return err
	}
	middleware.Logger.InfoContext(ctx, "group created",
		slog.String("slug", group.Slug),
		slog.Uint64("staff_id", uint64(session.CurrentUserID(c))))
	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(group)
	}
	return redirectTo(c, "/group/"+group.Slug+"/")
}

// AdminDeleteGroup handles POST /admin/groups/:slug/delete/
// @Summary Delete a group
// @Description The group's posts remain, without a group.
// @Tags admin
// @Param slug path string true "Group slug"
// @Success 302 "Redirect to the dashboard"
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/groups/{slug}/delete/ [post]
func (s *Server) AdminDeleteGroup(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if err := s.groupService.Delete(c.UserContext(), slug); err != nil {
		return err
	}
	middleware.Logger.InfoContext(c.UserContext(), "group deleted", slog.String("slug", slug))
	return adminDone(c)
}

// AdminDeletePost handles POST /admin/posts/:id/delete/
// @Summary Delete a post and its comments
// @Tags admin
// @Param id path int true "Post ID"
// @Success 302 "Redirect to the dashboard"
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id}/delete/ [post]
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := s.postService.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return adminDone(c)
}

// AdminClearCache handles POST /admin/cache/clear/
// @Summary Drop every cached page
// @Tags admin
// @Success 302 "Redirect to the dashboard"
// @Router /admin/cache/clear/ [post]
func (s *Server) AdminClearCache(c *fiber.Ctx) error {
	if err := s.pageCache.Clear(c.UserContext()); err != nil {
		return models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "page cache cleared")
	return adminDone(c)
}

func adminDone(c *fiber.Ctx) error {
	if wantsJSON(c) {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return redirectTo(c, "/admin/")
}
