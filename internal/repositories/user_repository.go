package repositories

import (
	"context"
	"database/sql"

	"tgreceiver/internal/models"
)

const DefaultCountry = "US"

type UserRepository interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.UserProfile, error)
	EnsureProfile(ctx context.Context, telegramID int64) (*models.UserProfile, error)
	SetCountry(ctx context.Context, telegramID int64, country string) error

	// AddBalance — единственный путь изменения баланса: один атомарный
	// инкремент на стороне БД, возвращает новый баланс.
	AddBalance(ctx context.Context, telegramID int64, amount float64) (float64, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.UserProfile, error) {
	const q = `
		SELECT telegram_id, COALESCE(country,''), balance_usd, created_at
		FROM users
		WHERE telegram_id = $1
	`
	u := &models.UserProfile{}
	var country sql.NullString
	err := r.DB.QueryRowContext(ctx, q, telegramID).Scan(&u.TelegramID, &country, &u.Balance, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if country.Valid && country.String != "" {
		u.Country = country.String
	} else {
		u.Country = DefaultCountry
	}
	return u, nil
}

func (r *userRepository) EnsureProfile(ctx context.Context, telegramID int64) (*models.UserProfile, error) {
	const q = `
		INSERT INTO users (telegram_id, country, balance_usd, created_at)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (telegram_id) DO NOTHING
	`
	if _, err := r.DB.ExecContext(ctx, q, telegramID, DefaultCountry); err != nil {
		return nil, err
	}
	return r.GetByTelegramID(ctx, telegramID)
}

func (r *userRepository) SetCountry(ctx context.Context, telegramID int64, country string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE users SET country=$1 WHERE telegram_id=$2
	`, country, telegramID)
	return err
}

func (r *userRepository) AddBalance(ctx context.Context, telegramID int64, amount float64) (float64, error) {
	const q = `
		UPDATE users
		SET balance_usd = balance_usd + $1
		WHERE telegram_id = $2
		RETURNING balance_usd
	`
	var newBalance float64
	err := r.DB.QueryRowContext(ctx, q, amount, telegramID).Scan(&newBalance)
	return newBalance, err
}
