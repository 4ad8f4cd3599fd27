package models

import "time"

// UserProfile — запись продавца в леджере. Ключ — telegram id.
type UserProfile struct {
	TelegramID int64     `json:"telegram_id"`
	Country    string    `json:"country"`
	Balance    float64   `json:"balance_usd"`
	CreatedAt  time.Time `json:"created_at"`
}

// Operator — учётка оператора для HTTP API.
type Operator struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // не отдаём наружу
	RoleID       int    `json:"role_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
