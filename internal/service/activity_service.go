package service

import (
	"context"
	"fmt"

	"github.com/nikhilm27/socialcast/internal/models"
	"github.com/nikhilm27/socialcast/internal/repository"
)

type ActivityService interface {
	List(ctx context.Context, userID int64, limit int) ([]*models.ActivityLog, error)
}

type activityService struct {
	a repository.ActivityRepository
}

func NewActivityService(a repository.ActivityRepository) ActivityService {
	return &activityService{
		a: a,
	}
}

func (s *activityService) List(ctx context.Context, userID int64, limit int) ([]*models.ActivityLog, error) {
	entries, err := s.a.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error getting activity log")
	}
	return entries, nil
}
