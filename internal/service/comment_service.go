package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type CommentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
}

type AddCommentInput struct {
	PostID   uint
	AuthorID uint
	Text     string
}

func NewCommentService(posts repository.PostRepository, comments repository.CommentRepository) *CommentService {
	return &CommentService{posts: posts, comments: comments}
}

// Add attaches a comment to an existing post.
func (s *CommentService) Add(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("This field is required.")
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: in.AuthorID, Text: in.Text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	return comment, nil
}
