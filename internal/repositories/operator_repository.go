package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skyroute-backend/internal/models"
)

type OperatorRepository struct {
	DB *pgxpool.Pool
}

func NewOperatorRepository(db *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{DB: db}
}

const operatorColumns = `id, username, display_name, initials, password_hash, is_active, created_at`

func scanOperator(row pgx.Row) (*models.Operator, error) {
	var o models.Operator
	err := row.Scan(&o.ID, &o.Username, &o.DisplayName, &o.Initials, &o.PasswordHash, &o.IsActive, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OperatorRepository) Create(ctx context.Context, o *models.Operator) error {
	o.Username = strings.ToLower(strings.TrimSpace(o.Username))
	return r.DB.QueryRow(ctx,
		`INSERT INTO operators(username, display_name, initials, password_hash, is_active)
         VALUES($1, $2, $3, $4, TRUE)
         RETURNING id, is_active, created_at`,
		o.Username, o.DisplayName, o.Initials, o.PasswordHash,
	).Scan(&o.ID, &o.IsActive, &o.CreatedAt)
}

// Get returns nil, nil for an unknown id.
func (r *OperatorRepository) Get(ctx context.Context, id int) (*models.Operator, error) {
	return scanOperator(r.DB.QueryRow(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE id=$1`, id))
}

// GetByUsername returns nil, nil for an unknown username.
func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	return scanOperator(r.DB.QueryRow(ctx,
		`SELECT `+operatorColumns+` FROM operators WHERE username=$1`,
		strings.ToLower(strings.TrimSpace(username))))
}
