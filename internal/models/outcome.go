package models

import (
	"fmt"
	"strings"
	"time"
)

type OutcomeStatus string

const (
	StatusPending   OutcomeStatus = "pending"
	StatusVerified  OutcomeStatus = "verified"
	StatusRejected  OutcomeStatus = "rejected"
	StatusCompleted OutcomeStatus = "completed"
	StatusFailed    OutcomeStatus = "failed"
)

// Outcome — итоговая запись одной попытки верификации.
// JSON-форма уходит документом в канал-архив, строка — в БД.
type Outcome struct {
	ID            int64         `json:"-"`
	UserID        int64         `json:"user_id"`
	Phone         string        `json:"phone"`
	Status        OutcomeStatus `json:"status"`
	SessionString string        `json:"string_session,omitempty"`
	TwoFAEnabled  bool          `json:"2fa_enabled,omitempty"`
	AdminSet2FA   bool          `json:"admin_set_2fa,omitempty"`
	BalanceAdded  float64       `json:"balance_added,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Message       string        `json:"message,omitempty"`
	SessionName   string        `json:"-"` // имя сессии на шлюзе, наружу не уходит
	CreatedAt     time.Time     `json:"created_at"`
}

func NewPendingOutcome(userID int64, phone string) Outcome {
	return Outcome{
		UserID:    userID,
		Phone:     phone,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

func NewVerifiedOutcome(userID int64, phone, sessionString string, balanceAdded float64) Outcome {
	return Outcome{
		UserID:        userID,
		Phone:         phone,
		Status:        StatusVerified,
		SessionString: sessionString,
		TwoFAEnabled:  true,
		AdminSet2FA:   true,
		BalanceAdded:  balanceAdded,
		CreatedAt:     time.Now(),
	}
}

func NewRejectedOutcome(userID int64, phone, reason string) Outcome {
	return Outcome{
		UserID:    userID,
		Phone:     phone,
		Status:    StatusRejected,
		Reason:    reason,
		Message:   "Sorry this account was rejected, disable the account password and try again ❌",
		CreatedAt: time.Now(),
	}
}

func NewCompletedOutcome(userID int64, phone, sessionString string) Outcome {
	return Outcome{
		UserID:        userID,
		Phone:         phone,
		Status:        StatusCompleted,
		SessionString: sessionString,
		CreatedAt:     time.Now(),
	}
}

func NewFailedOutcome(userID int64, phone, reason string) Outcome {
	return Outcome{
		UserID:    userID,
		Phone:     phone,
		Status:    StatusFailed,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

// FileName — имя документа в канале: {user_id}_{status}.json.
// Для completed историческое имя "session".
func (o Outcome) FileName() string {
	status := string(o.Status)
	if o.Status == StatusCompleted {
		status = "session"
	}
	return fmt.Sprintf("%d_%s.json", o.UserID, status)
}

// Caption — подпись к документу: "VERIFIED | +15551234567".
func (o Outcome) Caption() string {
	return fmt.Sprintf("%s | %s", strings.ToUpper(string(o.Status)), o.Phone)
}
