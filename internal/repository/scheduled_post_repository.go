package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/nikhilm27/socialcast/internal/models"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, sp *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	Claim(ctx context.Context, id int64) (bool, error)
	SetOutcome(ctx context.Context, id int64, status string, result []byte, errText string) error
	Remove(ctx context.Context, userID, id int64) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `
	id, user_id, content, media, targets, scheduled_for, status,
	result, error, created_at, updated_at`

func scanScheduledPost(row interface{ Scan(...interface{}) error }) (*models.ScheduledPost, error) {
	var sp models.ScheduledPost
	var result sql.NullString
	var errText sql.NullString
	err := row.Scan(&sp.ID, &sp.UserID, &sp.Content, pq.Array(&sp.Media), &sp.Targets,
		&sp.ScheduledFor, &sp.Status, &result, &errText, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if result.Valid {
		sp.Result = []byte(result.String)
	}
	sp.Error = errText.String
	return &sp, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, sp *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (user_id, content, media, targets, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sp.UserID, sp.Content, pq.Array(sp.Media), sp.Targets, sp.ScheduledFor, models.ScheduleStatusPending,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1`

	sp, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sp, nil
}

func (r *scheduledPostRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts WHERE user_id = $1 ORDER BY scheduled_for DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		sp, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, sp)
	}
	return posts, rows.Err()
}

func (r *scheduledPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for`

	rows, err := r.db.QueryContext(ctx, query, models.ScheduleStatusPending, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		sp, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, sp)
	}
	return posts, rows.Err()
}

// Claim moves a post from pending to processing in a single conditional
// update. The returned bool reports whether this caller won the claim;
// concurrent pollers racing on the same post see rows-affected zero.
func (r *scheduledPostRepository) Claim(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.ExecContext(ctx, query, id, models.ScheduleStatusProcessing, models.ScheduleStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *scheduledPostRepository) SetOutcome(ctx context.Context, id int64, status string, result []byte, errText string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $2, result = $3, error = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	var res interface{}
	if len(result) > 0 {
		res = string(result)
	}
	_, err := r.db.ExecContext(ctx, query, id, status, res, errText)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Remove deletes an owner's post, but only while it is still pending.
func (r *scheduledPostRepository) Remove(ctx context.Context, userID, id int64) error {
	query := `DELETE FROM scheduled_posts WHERE id = $1 AND user_id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, id, userID, models.ScheduleStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return sql.ErrNoRows
	}
	return nil
}
