package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LoginLogRepository struct {
	DB *pgxpool.Pool
}

func NewLoginLogRepository(db *pgxpool.Pool) *LoginLogRepository {
	return &LoginLogRepository{DB: db}
}

// CreateLoginLog records a new login event
func (r *LoginLogRepository) CreateLoginLog(ctx context.Context, operatorID int, ipAddress, userAgent string) (int, error) {
	query := `
		INSERT INTO login_logs (operator_id, login_time, ip_address, user_agent)
		VALUES ($1, NOW(), $2, $3)
		RETURNING id
	`

	var logID int
	err := r.DB.QueryRow(ctx, query, operatorID, ipAddress, userAgent).Scan(&logID)
	if err != nil {
		return 0, err
	}

	return logID, nil
}

// UpdateLogoutTimeByOperator records logout for the most recent open login of an operator
func (r *LoginLogRepository) UpdateLogoutTimeByOperator(ctx context.Context, operatorID int) error {
	query := `
		UPDATE login_logs
		SET logout_time = NOW()
		WHERE id = (
			SELECT id FROM login_logs
			WHERE operator_id = $1 AND logout_time IS NULL
			ORDER BY login_time DESC
			LIMIT 1
		)
	`

	_, err := r.DB.Exec(ctx, query, operatorID)
	return err
}
