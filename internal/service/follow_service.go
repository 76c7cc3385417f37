package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type FollowService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository) *FollowService {
	return &FollowService{users: users, follows: follows}
}

// Follow subscribes userID to username. Following yourself or an author you
// already follow changes nothing.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		return author, nil
	}
	created, err := s.follows.Create(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.Follows.WithLabelValues("follow").Inc()
	}
	return author, nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	removed, err := s.follows.Delete(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if removed {
		observability.Follows.WithLabelValues("unfollow").Inc()
	}
	return author, nil
}
