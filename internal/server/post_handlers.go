package server

import (
	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /
// @Summary Latest posts
// @Description All posts, newest first, ten per page
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} object{page_obj=service.PostPage}
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.Index(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "posts/index", fiber.Map{
		"title":    indexTitle,
		"page_obj": page,
	}, fiber.Map{"page_obj": page})
}

// GroupPosts handles GET /group/:slug/
// @Summary Posts of a group
// @Tags posts
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "Page number"
// @Success 200 {object} object{group=models.Group,page_obj=service.PostPage}
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug}/ [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.postService.GroupPosts(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "posts/group_list", fiber.Map{
		"title":    groupTitle,
		"group":    group,
		"page_obj": page,
	}, fiber.Map{"group": group, "page_obj": page})
}

// FollowIndex handles GET /follow/
// @Summary Posts by followed authors
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} object{page_obj=service.PostPage}
// @Failure 302 "Redirect to login"
// @Router /follow/ [get]
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.postService.FollowFeed(c.UserContext(), session.CurrentUserID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "posts/follow", fiber.Map{
		"page_obj": page,
	}, fiber.Map{"page_obj": page})
}

// PostDetail handles GET /posts/:id/
// @Summary One post with its comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.DetailView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	view, err := s.postService.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "posts/post_detail", fiber.Map{
		"post":       view.Post,
		"group":      view.Post.Group,
		"author":     &view.Post.Author,
		"post_count": view.AuthorPostCount,
		"comments":   view.Comments,
		"form":       forms.NewCommentForm(),
		"text_help":  forms.CommentTextHelp,
		"is_author":  view.Post.IsAuthor(session.CurrentUserID(c)),
	}, view)
}

// PostCreate handles GET and POST /create/
// @Summary Publish a post
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Image"
// @Success 302 "Redirect to the author's profile"
// @Success 200 {object} object{form=object,errors=forms.Errors}
// @Router /create/ [post]
func (s *Server) PostCreate(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return s.renderPostForm(c, forms.NewPostForm(nil))
	}

	ctx := c.UserContext()
	user := session.CurrentUser(c)
	form := forms.BindPostForm(c, nil)
	ok, err := form.Validate(ctx, s.groupRepo, s.uploader)
	if err != nil {
		return err
	}
	if ok {
		if _, err := form.Save(ctx, s.postService, user); err != nil {
			return err
		}
		if form.Errors.Valid() {
			return redirectTo(c, profileURL(user.Username))
		}
	}
	return s.renderPostForm(c, form)
}

// PostEdit handles GET and POST /posts/:id/edit/
// @Summary Edit a post
// @Description Only the author may edit; anyone else is redirected to the post.
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param id path int true "Post ID"
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Replacement image"
// @Success 302 "Redirect to the post"
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/edit/ [post]
func (s *Server) PostEdit(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	post, err := s.postService.Get(ctx, id)
	if err != nil {
		return err
	}
	user := session.CurrentUser(c)
	if !post.IsAuthor(user.ID) {
		return redirectTo(c, postURL(post.ID))
	}

	if c.Method() != fiber.MethodPost {
		return s.renderPostForm(c, forms.NewPostForm(post))
	}

	form := forms.BindPostForm(c, post)
	ok, err := form.Validate(ctx, s.groupRepo, s.uploader)
	if err != nil {
		return err
	}
	if ok {
		if _, err := form.Save(ctx, s.postService, user); err != nil {
			if models.HasCode(err, models.CodeForbidden) {
				return redirectTo(c, postURL(post.ID))
			}
			return err
		}
		if form.Errors.Valid() {
			return redirectTo(c, postURL(post.ID))
		}
	}
	return s.renderPostForm(c, form)
}

func (s *Server) renderPostForm(c *fiber.Ctx, form *forms.PostForm) error {
	groups, err := s.groupService.List(c.UserContext())
	if err != nil {
		return err
	}
	isEdit := form.Instance != nil
	data := fiber.Map{
		"form":       form,
		"groups":     groups,
		"is_edit":    isEdit,
		"text_help":  forms.PostTextHelp,
		"group_help": forms.PostGroupHelp,
	}
	view := fiber.Map{
		"is_edit": isEdit,
		"form": fiber.Map{
			"text":  form.Text,
			"group": form.Group,
		},
		"errors": form.Errors,
	}
	if isEdit {
		data["post"] = form.Instance
		view["post"] = form.Instance
	}
	return render(c, fiber.StatusOK, "posts/create_post", data, view)
}
