package server

import (
	"yatube/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Profile handles GET /profile/:username/
// @Summary An author's posts
// @Tags profile
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} service.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	viewer := session.CurrentUserID(c)
	view, err := s.postService.Profile(c.UserContext(), c.Params("username"), c.Query("page"), viewer)
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "posts/profile", fiber.Map{
		"author":     view.Author,
		"post_count": view.PostCount,
		"following":  view.Following,
		"page_obj":   view.Page,
		"is_self":    viewer != 0 && viewer == view.Author.ID,
	}, view)
}

// ProfileFollow handles /profile/:username/follow/
// @Summary Follow an author
// @Tags profile
// @Param username path string true "Username"
// @Success 302 "Redirect to the profile"
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/follow/ [post]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	author, err := s.followService.Follow(c.UserContext(), session.CurrentUserID(c), c.Params("username"))
	if err != nil {
		return err
	}
	return redirectTo(c, profileURL(author.Username))
}

// ProfileUnfollow handles /profile/:username/unfollow/
// @Summary Stop following an author
// @Tags profile
// @Param username path string true "Username"
// @Success 302 "Redirect to the profile"
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/unfollow/ [post]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.UserContext(), session.CurrentUserID(c), c.Params("username"))
	if err != nil {
		return err
	}
	return redirectTo(c, profileURL(author.Username))
}
