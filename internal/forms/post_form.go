package forms

import (
	"context"
	"mime/multipart"
	"strconv"
	"strings"

	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Help texts rendered under the post form fields.
const (
	PostTextHelp  = "Текст нового поста"
	PostGroupHelp = "Группа, к которой будет относиться пост"
)

// PostForm edits the text, group and image of a post.
type PostForm struct {
	Text   string
	Group  string
	Image  *multipart.FileHeader
	Errors Errors

	// Instance is the post being edited, nil when creating.
	Instance *models.Post

	groupID   *uint
	imageData []byte
}

// NewPostForm returns an unbound form, pre-filled from instance when editing.
func NewPostForm(instance *models.Post) *PostForm {
	f := &PostForm{Instance: instance, Errors: Errors{}}
	if instance != nil {
		f.Text = instance.Text
		if instance.GroupID != nil {
			f.Group = strconv.FormatUint(uint64(*instance.GroupID), 10)
		}
	}
	return f
}

// BindPostForm reads a multipart or urlencoded submission.
func BindPostForm(c *fiber.Ctx, instance *models.Post) *PostForm {
	f := &PostForm{
		Text:     c.FormValue("text"),
		Group:    c.FormValue("group"),
		Instance: instance,
		Errors:   Errors{},
	}
	if fh, err := c.FormFile("image"); err == nil && fh != nil && fh.Size > 0 {
		f.Image = fh
	}
	return f
}

// SelectedGroup is the group id to mark as selected in the template.
func (f *PostForm) SelectedGroup() string {
	return f.Group
}

// Validate checks every field and records errors on the form.
func (f *PostForm) Validate(ctx context.Context, groups repository.GroupRepository, uploader *media.Uploader) (bool, error) {
	if strings.TrimSpace(f.Text) == "" {
		f.Errors.Add("text", MsgRequired)
	}

	id, ok := parseOptionalID(f.Group)
	if !ok {
		f.Errors.Add("group", MsgInvalidChoice)
	} else if id != nil {
		if _, err := groups.GetByID(ctx, *id); err != nil {
			if !models.IsNotFound(err) {
				return false, err
			}
			f.Errors.Add("group", MsgInvalidChoice)
		} else {
			f.groupID = id
		}
	}

	if f.Image != nil {
		data, err := uploader.Read(f.Image)
		if err == nil {
			_, err = media.Detect(data)
		}
		if err != nil {
			if err := f.Errors.absorb("image", err); err != nil {
				return false, err
			}
		} else {
			f.imageData = data
		}
	}

	return f.Errors.Valid(), nil
}

// Save creates the post, or updates Instance, with author injected by the
// caller. Validate must have succeeded first.
func (f *PostForm) Save(ctx context.Context, posts *service.PostService, author *models.User) (*models.Post, error) {
	var (
		post *models.Post
		err  error
	)
	if f.Instance == nil {
		post, err = posts.Create(ctx, service.CreatePostInput{
			AuthorID: author.ID,
			Text:     f.Text,
			GroupID:  f.groupID,
			Image:    f.imageData,
		})
	} else {
		post, err = posts.Edit(ctx, service.UpdatePostInput{
			UserID:  author.ID,
			PostID:  f.Instance.ID,
			Text:    f.Text,
			GroupID: f.groupID,
			Image:   f.imageData,
		})
	}
	if err != nil {
		return nil, f.Errors.absorb(nonField, err)
	}
	return post, nil
}
