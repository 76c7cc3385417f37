// Package service holds the business rules that sit between HTTP handlers
// and repositories.
package service

import (
	"context"
	"log/slog"
	"strings"

	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ImageStore keeps uploaded post images. media.Uploader implements it.
type ImageStore interface {
	Save(ctx context.Context, data []byte) (media.Stored, error)
	Remove(ctx context.Context, s media.Stored) error
}

// PostPage is one page of a post listing.
type PostPage = pagination.Page[models.Post]

type PostService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	comments repository.CommentRepository
	images   ImageStore
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    []byte
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Text    string
	GroupID *uint
	// Image replaces the current picture when non-empty.
	Image []byte
}

// ProfileView is everything the profile page shows.
type ProfileView struct {
	Author    *models.User `json:"author"`
	PostCount int64        `json:"post_count"`
	Following bool         `json:"following"`
	Page      PostPage     `json:"page_obj"`
}

// DetailView is everything the post page shows.
type DetailView struct {
	Post            *models.Post     `json:"post"`
	Comments        []models.Comment `json:"comments"`
	AuthorPostCount int64            `json:"author_post_count"`
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	comments repository.CommentRepository,
	images ImageStore,
) *PostService {
	return &PostService{
		posts:    posts,
		groups:   groups,
		users:    users,
		follows:  follows,
		comments: comments,
		images:   images,
	}
}

func (s *PostService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (PostPage, error) {
	count, err := s.posts.Count(ctx, filter)
	if err != nil {
		return PostPage{}, err
	}
	p := pagination.New(count, pagination.PostsPerPage)
	n := p.Number(rawPage)
	offset, limit := p.Bounds(n)

	var items []models.Post
	if count > 0 {
		items, err = s.posts.List(ctx, filter, offset, limit)
		if err != nil {
			return PostPage{}, err
		}
	}
	return pagination.NewPage(p, n, items), nil
}

// Index lists every post, newest first.
func (s *PostService) Index(ctx context.Context, rawPage string) (PostPage, error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "Index")
	page, err := s.page(ctx, repository.PostFilter{}, rawPage)
	observability.EndSpan(span, err)
	return page, err
}

// GroupPosts lists the posts of the group with the given slug.
func (s *PostService) GroupPosts(ctx context.Context, slug, rawPage string) (*models.Group, PostPage, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, PostPage{}, err
	}
	page, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, PostPage{}, err
	}
	return group, page, nil
}

// Profile lists an author's posts. viewerID is 0 for anonymous visitors.
func (s *PostService) Profile(ctx context.Context, username, rawPage string, viewerID uint) (*ProfileView, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	filter := repository.PostFilter{AuthorID: author.ID}
	page, err := s.page(ctx, filter, rawPage)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.Exists(ctx, viewerID, author.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		Author:    author,
		PostCount: page.Count,
		Following: following,
		Page:      page,
	}, nil
}

// FollowFeed lists posts by the authors userID follows.
func (s *PostService) FollowFeed(ctx context.Context, userID uint, rawPage string) (PostPage, error) {
	return s.page(ctx, repository.PostFilter{FollowerID: userID}, rawPage)
}

// Get returns a post with author and group loaded.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// Detail loads a post with its comments.
func (s *PostService) Detail(ctx context.Context, id uint) (*DetailView, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return &DetailView{Post: post, Comments: comments, AuthorPostCount: count}, nil
}

func (s *PostService) checkGroup(ctx context.Context, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	if _, err := s.groups.GetByID(ctx, *groupID); err != nil {
		if models.IsNotFound(err) {
			return models.NewValidationError("Select a valid choice. That choice is not one of the available choices.")
		}
		return err
	}
	return nil
}

func (s *PostService) storeImage(ctx context.Context, data []byte) (media.Stored, error) {
	if len(data) == 0 || s.images == nil {
		return media.Stored{}, nil
	}
	return s.images.Save(ctx, data)
}

// Create publishes a post as in.AuthorID.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "Create",
		attribute.Int("author.id", int(in.AuthorID)))
	post, err := s.create(ctx, in)
	observability.EndSpan(span, err)
	return post, err
}

func (s *PostService) create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("This field is required.")
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	stored, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     in.Text,
		GroupID:  in.GroupID,
		AuthorID: in.AuthorID,
		Image:    stored.Image,
		Thumb:    stored.Thumb,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		if stored.Image != "" {
			_ = s.images.Remove(ctx, stored)
		}
		return nil, err
	}

	observability.PostsCreated.Inc()
	middleware.Logger.InfoContext(ctx, "post created", slog.Uint64("post_id", uint64(post.ID)))
	return post, nil
}

// Edit updates a post owned by in.UserID. Other users get a FORBIDDEN error.
func (s *PostService) Edit(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthor(in.UserID) {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("This field is required.")
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	old := media.Stored{Image: post.Image, Thumb: post.Thumb}
	stored, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post.Text = in.Text
	post.GroupID = in.GroupID
	if stored.Image != "" {
		post.Image = stored.Image
		post.Thumb = stored.Thumb
	}
	if err := s.posts.Update(ctx, post); err != nil {
		if stored.Image != "" {
			_ = s.images.Remove(ctx, stored)
		}
		return nil, err
	}
	if stored.Image != "" && old.Image != "" {
		if err := s.images.Remove(ctx, old); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove replaced image",
				slog.String("image", old.Image), slog.String("error", err.Error()))
		}
	}
	return post, nil
}

// Delete removes a post, its comments and its image.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	if post.Image != "" && s.images != nil {
		if err := s.images.Remove(ctx, media.Stored{Image: post.Image, Thumb: post.Thumb}); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove post image",
				slog.String("image", post.Image), slog.String("error", err.Error()))
		}
	}
	middleware.Logger.InfoContext(ctx, "post deleted", slog.Uint64("post_id", uint64(id)))
	return nil
}
