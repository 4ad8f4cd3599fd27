package repositories

import (
	"context"
	"database/sql"

	"tgreceiver/internal/models"
)

type OperatorRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Operator, error)
}

type operatorRepository struct {
	DB *sql.DB
}

func NewOperatorRepository(db *sql.DB) OperatorRepository {
	return &operatorRepository{DB: db}
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	const q = `
		SELECT id, email, password_hash, role_id
		FROM operators
		WHERE email = $1
	`
	op := &models.Operator{}
	var roleID sql.NullInt64
	err := r.DB.QueryRowContext(ctx, q, email).Scan(&op.ID, &op.Email, &op.PasswordHash, &roleID)
	if err != nil {
		return nil, err
	}
	if roleID.Valid {
		op.RoleID = int(roleID.Int64)
	}
	return op, nil
}
