package forms

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentTextHelp is rendered under the comment box.
const CommentTextHelp = "Текст комментария"

// CommentForm is the single-field reply form on the post page.
type CommentForm struct {
	Text   string
	Errors Errors
}

func NewCommentForm() *CommentForm {
	return &CommentForm{Errors: Errors{}}
}

func BindCommentForm(c *fiber.Ctx) *CommentForm {
	return &CommentForm{Text: c.FormValue("text"), Errors: Errors{}}
}

func (f *CommentForm) Validate() bool {
	if strings.TrimSpace(f.Text) == "" {
		f.Errors.Add("text", MsgRequired)
	}
	return f.Errors.Valid()
}

// Save stores the comment with author and post injected.
func (f *CommentForm) Save(ctx context.Context, comments *service.CommentService, author *models.User, postID uint) (*models.Comment, error) {
	return comments.Add(ctx, service.AddCommentInput{PostID: postID, AuthorID: author.ID, Text: f.Text})
}
