package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"yatube/internal/models"
	"yatube/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type GroupService struct {
	groups repository.GroupRepository
}

type CreateGroupInput struct {
	Title       string
	Slug        string
	Description string
}

func NewGroupService(groups repository.GroupRepository) *GroupService {
	return &GroupService{groups: groups}
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

func (s *GroupService) Create(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	title := strings.TrimSpace(in.Title)
	slug := strings.TrimSpace(in.Slug)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > 200 {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if !slugPattern.MatchString(slug) {
		return nil, models.NewValidationError("Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}

	group := &models.Group{Title: title, Slug: slug, Description: strings.TrimSpace(in.Description)}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes the group; its posts stay and lose the group.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	return s.groups.Delete(ctx, slug)
}
