package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/nikhilm27/socialcast/internal/models"
)

type ActivityRepository interface {
	Create(ctx context.Context, a *models.ActivityLog) (int64, error)
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.ActivityLog, error)
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, a *models.ActivityLog) (int64, error) {
	query := `
		INSERT INTO activity_logs (user_id, title, platform, kind, meta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, a.UserID, a.Title, a.Platform, a.Kind, a.Meta).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *activityRepository) ListByUserID(ctx context.Context, userID int64, limit int) ([]*models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, title, platform, kind, meta, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		var a models.ActivityLog
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Platform, &a.Kind, &a.Meta, &a.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		logs = append(logs, &a)
	}
	return logs, rows.Err()
}
