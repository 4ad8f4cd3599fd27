package provider

import "context"

// Client — живой хэндл одной сессии на шлюзе аккаунтов.
// Владелец хэндла обязан вызвать Close ровно один раз.
type Client interface {
	SendCode(ctx context.Context, phone string) error
	SignIn(ctx context.Context, phone, code string) error
	SetPassword(ctx context.Context, password, hint string) error
	ExportSession(ctx context.Context) (string, error)
	ActiveSessions(ctx context.Context) (int, error)
	Close() error
}

// Factory открывает соединение со шлюзом для пары (phone, session).
type Factory interface {
	Connect(ctx context.Context, phone, session string) (Client, error)
}
