package server

import (
	"yatube/internal/forms"
	"yatube/internal/session"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles /posts/:id/comment/
// @Summary Comment on a post
// @Description Empty comments are dropped without an error.
// @Tags posts
// @Accept x-www-form-urlencoded
// @Param id path int true "Post ID"
// @Param text formData string true "Comment text"
// @Success 302 "Redirect to the post"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comment/ [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	post, err := s.postService.Get(ctx, id)
	if err != nil {
		return err
	}

	form := forms.BindCommentForm(c)
	if c.Method() == fiber.MethodPost && form.Validate() {
		if _, err := form.Save(ctx, s.commentService, session.CurrentUser(c), post.ID); err != nil {
			return err
		}
	}
	return redirectTo(c, postURL(post.ID))
}
