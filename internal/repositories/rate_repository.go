package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"tgreceiver/internal/models"
)

type RateRepository interface {
	// GetRate — начисление по коду страны; неизвестная страна = 0.
	GetRate(ctx context.Context, country string) (float64, error)
	List(ctx context.Context) ([]models.CountryRate, error)
	Upsert(ctx context.Context, rate models.CountryRate) error
}

type rateRepository struct {
	DB *sql.DB
}

func NewRateRepository(db *sql.DB) RateRepository {
	return &rateRepository{DB: db}
}

func (r *rateRepository) GetRate(ctx context.Context, country string) (float64, error) {
	var amount float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT amount FROM country_rates WHERE country = $1`,
		strings.ToUpper(strings.TrimSpace(country)),
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (r *rateRepository) List(ctx context.Context) ([]models.CountryRate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT country, amount FROM country_rates ORDER BY country`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.CountryRate
	for rows.Next() {
		var cr models.CountryRate
		if err := rows.Scan(&cr.Country, &cr.Amount); err != nil {
			return nil, err
		}
		res = append(res, cr)
	}
	return res, rows.Err()
}

func (r *rateRepository) Upsert(ctx context.Context, rate models.CountryRate) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO country_rates (country, amount)
		VALUES ($1, $2)
		ON CONFLICT (country) DO UPDATE SET amount = EXCLUDED.amount
	`, strings.ToUpper(strings.TrimSpace(rate.Country)), rate.Amount)
	return err
}
