package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/nikhilm27/socialcast/internal/models"
)

type SocialAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetByTarget(ctx context.Context, userID int64, platform, accountID string) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, until time.Time) ([]*models.SocialAccount, error)
	UpdateTokens(ctx context.Context, id int64, oldAccessToken string, sa *models.SocialAccount) error
	Remove(ctx context.Context, userID, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `
	id, user_id, platform, account_id, account_name, account_username,
	profile_picture_url, access_token, refresh_token, token_expires_at,
	profile_group_id, created_at, updated_at`

func scanSocialAccount(row interface{ Scan(...interface{}) error }) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName,
		&sa.AccountUsername, &sa.ProfilePicture, &sa.AccessToken, &sa.RefreshToken,
		&sa.TokenExpiresAt, &sa.ProfileGroupID, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	insertQuery := `
		INSERT INTO social_accounts(
			user_id,
			platform,
			account_id,
			account_name,
			account_username,
			profile_picture_url,
			access_token,
			refresh_token,
			token_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, platform, account_id) DO UPDATE SET
			account_name = EXCLUDED.account_name,
			account_username = EXCLUDED.account_username,
			profile_picture_url = EXCLUDED.profile_picture_url,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	var err error
	args := []interface{}{
		sa.UserID, sa.Platform, sa.AccountID, sa.AccountName, sa.AccountUsername,
		sa.ProfilePicture, sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt,
	}

	if tx != nil {
		err = tx.QueryRowContext(ctx, insertQuery, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, insertQuery, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) GetByTarget(ctx context.Context, userID int64, platform, accountID string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE user_id = $1 AND platform = $2 AND account_id = $3`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, userID, platform, accountID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, rows.Err()
}

// ListExpiring returns accounts whose credentials expire inside the window
// (or already expired) and that carry a refresh token. Accounts with a NULL
// expiry never expire and are never returned.
func (r *socialAccountRepository) ListExpiring(ctx context.Context, until time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE token_expires_at IS NOT NULL
		AND token_expires_at <= $1
		AND refresh_token <> ''`

	rows, err := r.db.QueryContext(ctx, query, until)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, rows.Err()
}

// UpdateTokens persists a refreshed credential pair. The write is conditional
// on the access-token ciphertext the caller read, so two racing refreshes
// cannot overwrite each other with stale data: the loser writes zero rows.
func (r *socialAccountRepository) UpdateTokens(ctx context.Context, id int64, oldAccessToken string, sa *models.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET
			access_token = $3,
			refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
			token_expires_at = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND access_token = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, oldAccessToken, sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt)
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
		return ErrStaleWrite
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, userID, id int64) error {
	query := `DELETE FROM social_accounts WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
