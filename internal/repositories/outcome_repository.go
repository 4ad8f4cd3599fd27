package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tgreceiver/internal/models"
)

type OutcomeRepository interface {
	Create(ctx context.Context, o *models.Outcome) error
	ListRecent(ctx context.Context, status string, limit, offset int) ([]*models.Outcome, error)
	CountByStatus(ctx context.Context) (map[string]int, error)

	// GetLatestVerified — последняя verified-запись пользователя
	// (нужна для повторного экспорта сессии оператором).
	GetLatestVerified(ctx context.Context, userID int64) (*models.Outcome, error)
}

type outcomeRepository struct {
	DB *sql.DB
}

func NewOutcomeRepository(db *sql.DB) OutcomeRepository {
	return &outcomeRepository{DB: db}
}

func (r *outcomeRepository) Create(ctx context.Context, o *models.Outcome) error {
	const q = `
		INSERT INTO verification_outcomes
			(user_id, phone, status, balance_added, reason, session_name, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return r.DB.QueryRowContext(ctx, q,
		o.UserID,
		o.Phone,
		string(o.Status),
		o.BalanceAdded,
		o.Reason,
		o.SessionName,
		createdAt,
	).Scan(&o.ID)
}

func (r *outcomeRepository) ListRecent(ctx context.Context, status string, limit, offset int) ([]*models.Outcome, error) {
	const base = `
		SELECT id, user_id, phone, status, balance_added, COALESCE(reason,''), COALESCE(session_name,''), created_at
		FROM verification_outcomes
	`
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.DB.QueryContext(ctx, base+` WHERE status=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	} else {
		rows, err = r.DB.QueryContext(ctx, base+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*models.Outcome
	for rows.Next() {
		o := &models.Outcome{}
		var st string
		if err := rows.Scan(&o.ID, &o.UserID, &o.Phone, &st, &o.BalanceAdded, &o.Reason, &o.SessionName, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = models.OutcomeStatus(st)
		res = append(res, o)
	}
	return res, rows.Err()
}

func (r *outcomeRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM verification_outcomes GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := map[string]int{}
	for rows.Next() {
		var status string
		var cnt int
		if err := rows.Scan(&status, &cnt); err != nil {
			return nil, err
		}
		res[status] = cnt
	}
	return res, rows.Err()
}

func (r *outcomeRepository) GetLatestVerified(ctx context.Context, userID int64) (*models.Outcome, error) {
	const q = `
		SELECT id, user_id, phone, status, balance_added, COALESCE(reason,''), COALESCE(session_name,''), created_at
		FROM verification_outcomes
		WHERE user_id = $1 AND status = 'verified'
		ORDER BY created_at DESC
		LIMIT 1
	`
	o := &models.Outcome{}
	var st string
	err := r.DB.QueryRowContext(ctx, q, userID).Scan(
		&o.ID, &o.UserID, &o.Phone, &st, &o.BalanceAdded, &o.Reason, &o.SessionName, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Status = models.OutcomeStatus(st)
	return o, nil
}
