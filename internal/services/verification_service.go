package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"tgreceiver/internal/config"
	"tgreceiver/internal/models"
	"tgreceiver/internal/provider"
	"tgreceiver/internal/repositories"
)

var (
	ErrNoAttempt         = errors.New("no active attempt")
	ErrAttemptInProgress = errors.New("attempt already in progress")
	ErrPhoneBusy         = errors.New("phone already being verified")
	ErrNothingToExport   = errors.New("no verified session to export")
)

// AttemptState — состояние машины одной попытки.
type AttemptState int

const (
	StateIdle AttemptState = iota
	StateCodeRequested
	StateCodeSubmitted
	StateSessionChecked
	StateSecretEnrolled
	StateCredentialExported
)

// Attempt — одна попытка онбординга. Живёт только в памяти процесса.
type Attempt struct {
	ID        string
	UserID    int64
	ChatID    int64
	Phone     string
	Session   string
	State     AttemptState
	Tries     int
	CreatedAt time.Time

	expire *time.Timer
}

// VerificationService — оркестратор: OTP → проверка сессий → 2FA →
// экспорт → начисление → аудит. На каждую попытку ровно одна итоговая
// запись; хэндл шлюза освобождается ровно один раз на любом пути.
type VerificationService struct {
	OTP      *OTPService
	Fraud    *FraudService
	TwoFA    *TwoFAService
	Exporter *ExportService
	Factory  provider.Factory

	Audit    AuditSink
	Ledger   repositories.UserRepository
	Rates    repositories.RateRepository
	Outcomes repositories.OutcomeRepository
	Notifier Notifier
	Alerts   AlertMailer

	Cfg config.VerificationConfig

	mu      sync.Mutex
	byUser  map[int64]*Attempt
	byPhone map[string]int64
}

func NewVerificationService(
	otp *OTPService,
	fraud *FraudService,
	twofa *TwoFAService,
	exporter *ExportService,
	factory provider.Factory,
	audit AuditSink,
	ledger repositories.UserRepository,
	rates repositories.RateRepository,
	outcomes repositories.OutcomeRepository,
	notifier Notifier,
	alerts AlertMailer,
	cfg config.VerificationConfig,
) *VerificationService {
	return &VerificationService{
		OTP:      otp,
		Fraud:    fraud,
		TwoFA:    twofa,
		Exporter: exporter,
		Factory:  factory,
		Audit:    audit,
		Ledger:   ledger,
		Rates:    rates,
		Outcomes: outcomes,
		Notifier: notifier,
		Alerts:   alerts,
		Cfg:      cfg,
		byUser:   map[int64]*Attempt{},
		byPhone:  map[string]int64{},
	}
}

// StartAttempt — приём номера: регистрирует попытку и просит провайдера
// отправить код. Второй параллельной попытки для пользователя или номера
// не бывает.
func (s *VerificationService) StartAttempt(ctx context.Context, userID, chatID int64, phone string) error {
	s.mu.Lock()
	if _, ok := s.byUser[userID]; ok {
		s.mu.Unlock()
		return ErrAttemptInProgress
	}
	if _, ok := s.byPhone[phone]; ok {
		s.mu.Unlock()
		return ErrPhoneBusy
	}
	a := &Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		ChatID:    chatID,
		Phone:     phone,
		Session:   fmt.Sprintf("sessions/%d_%s", userID, uuid.NewString()[:8]),
		State:     StateIdle,
		CreatedAt: time.Now(),
	}
	s.byUser[userID] = a
	s.byPhone[phone] = userID
	s.mu.Unlock()

	if err := s.OTP.RequestCode(ctx, chatID, phone, a.Session); err != nil {
		log.Printf("[verify][request] attempt=%s phone=%s err=%v", a.ID, phone, err)
		s.fail(ctx, a, "code request failed")
		return err
	}

	s.mu.Lock()
	a.State = StateCodeRequested
	a.expire = time.AfterFunc(s.Cfg.AttemptTTL, func() { s.expireAttempt(userID, a.ID) })
	s.mu.Unlock()

	if err := s.Audit.Submit(ctx, s.withSession(a, models.NewPendingOutcome(userID, phone))); err != nil {
		log.Printf("[verify][audit] pending submit failed: attempt=%s err=%v", a.ID, err)
	}
	return nil
}

// SubmitCode — приём кода: логин, анти-фрод, 2FA, экспорт, начисление.
// Неверный/протухший код оставляет попытку ретраябельной на месте.
func (s *VerificationService) SubmitCode(ctx context.Context, userID int64, code string) error {
	s.mu.Lock()
	a, ok := s.byUser[userID]
	if !ok || a.State != StateCodeRequested {
		s.mu.Unlock()
		return ErrNoAttempt
	}
	a.State = StateCodeSubmitted
	s.mu.Unlock()

	_, _ = s.Notifier.SendMessage(a.ChatID, "💱 This Code Verifying ⏩⏭️\nPlease Wait 🚫 For Conforming Message🚾")

	client, err := s.OTP.SubmitCode(ctx, a.Phone, a.Session, code)
	if err != nil {
		if provider.IsWrongCode(err) {
			return s.wrongCode(ctx, a)
		}
		log.Printf("[verify][signin] attempt=%s phone=%s err=%v", a.ID, a.Phone, err)
		s.fail(ctx, a, "sign in failed")
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			log.Printf("[verify][disconnect] attempt=%s err=%v", a.ID, cerr)
		}
	}()

	// анти-фрод строго до 2FA и экспорта: отклонённый аккаунт не должен
	// получить ни начисления, ни выгруженной сессии
	count, err := s.Fraud.CheckSessions(ctx, client)
	if err != nil {
		log.Printf("[verify][sessions] attempt=%s phone=%s err=%v", a.ID, a.Phone, err)
		s.fail(ctx, a, "session check failed")
		return err
	}
	if s.Fraud.IsMultiSession(count) {
		s.reject(ctx, a, count)
		return nil
	}
	s.setState(a, StateSessionChecked)
	_, _ = s.Notifier.SendMessage(a.ChatID, "✅ Single active session detected, proceeding with verification.")

	if err := s.TwoFA.Enroll(ctx, client); err != nil {
		log.Printf("[verify][2fa] attempt=%s phone=%s err=%v", a.ID, a.Phone, err)
		s.fail(ctx, a, "2fa enrollment failed")
		return err
	}
	s.setState(a, StateSecretEnrolled)

	credential, err := s.Exporter.Export(ctx, client)
	if err != nil {
		log.Printf("[verify][export] attempt=%s phone=%s err=%v", a.ID, a.Phone, err)
		s.fail(ctx, a, "session export failed")
		return err
	}
	s.setState(a, StateCredentialExported)

	profile, err := s.Ledger.EnsureProfile(ctx, userID)
	if err != nil {
		log.Printf("[verify][ledger] attempt=%s err=%v", a.ID, err)
		s.fail(ctx, a, "ledger lookup failed")
		return err
	}
	credit, err := s.Rates.GetRate(ctx, profile.Country)
	if err != nil {
		log.Printf("[verify][rates] attempt=%s country=%s err=%v", a.ID, profile.Country, err)
		s.fail(ctx, a, "rate lookup failed")
		return err
	}
	newBalance, err := s.Ledger.AddBalance(ctx, userID, credit)
	if err != nil {
		log.Printf("[verify][credit] attempt=%s err=%v", a.ID, err)
		s.fail(ctx, a, "balance credit failed")
		return err
	}

	if err := s.Audit.Submit(ctx, s.withSession(a, models.NewVerifiedOutcome(userID, a.Phone, credential, credit))); err != nil {
		log.Printf("[verify][audit] verified submit failed: attempt=%s err=%v", a.ID, err)
	}

	_, _ = s.Notifier.SendMessage(a.ChatID, fmt.Sprintf(
		"🎉 We have successfully processed your account\nNumber: %s\nPrice: $%v\nStatus: Not set up\nCongratulations, $%v has been added to your balance.",
		a.Phone, credit, credit))

	log.Printf("[verify][done] attempt=%s phone=%s credit=%v balance=%v", a.ID, a.Phone, credit, newBalance)
	s.unregister(a)
	return nil
}

// Finalize — повторный экспорт сессии последней verified-записи,
// completed-документ уходит в канал подтверждённых.
func (s *VerificationService) Finalize(ctx context.Context, userID int64) error {
	last, err := s.Outcomes.GetLatestVerified(ctx, userID)
	if err != nil {
		return err
	}
	if last == nil || last.SessionName == "" {
		return ErrNothingToExport
	}

	client, err := s.Factory.Connect(ctx, last.Phone, last.SessionName)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			log.Printf("[verify][finalize] disconnect failed: user_id=%d err=%v", userID, cerr)
		}
	}()

	credential, err := s.Exporter.Export(ctx, client)
	if err != nil {
		return err
	}

	o := models.NewCompletedOutcome(userID, last.Phone, credential)
	o.SessionName = last.SessionName
	return s.Audit.Submit(ctx, o)
}

// HasAttempt — есть ли у пользователя попытка, ждущая код.
func (s *VerificationService) HasAttempt(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byUser[userID]
	return ok && a.State == StateCodeRequested
}

func (s *VerificationService) wrongCode(ctx context.Context, a *Attempt) error {
	s.mu.Lock()
	a.Tries++
	tries := a.Tries
	if tries < s.Cfg.MaxCodeTries {
		a.State = StateCodeRequested
	}
	s.mu.Unlock()

	if tries >= s.Cfg.MaxCodeTries {
		s.fail(ctx, a, "too many wrong codes")
		return nil
	}
	_, _ = s.Notifier.SendMessage(a.ChatID,
		"Your code is wrong ⛔\nPlease try again and be careful entering the code ⚠️")
	return nil
}

func (s *VerificationService) reject(ctx context.Context, a *Attempt, sessions int) {
	_, _ = s.Notifier.SendMessage(a.ChatID, fmt.Sprintf(
		"⚠️ Multiple active sessions detected for the number %s\n❗ Total detected: %d devices\nYour account will be rejected.",
		a.Phone, sessions))

	reason := fmt.Sprintf("multiple active sessions: %d", sessions)
	if err := s.Audit.Submit(ctx, s.withSession(a, models.NewRejectedOutcome(a.UserID, a.Phone, reason))); err != nil {
		log.Printf("[verify][audit] rejected submit failed: attempt=%s err=%v", a.ID, err)
	}
	if s.Alerts != nil {
		if err := s.Alerts.SendRejectionAlert(a.Phone, reason, sessions); err != nil {
			log.Printf("[verify][alert] mail failed: attempt=%s err=%v", a.ID, err)
		}
	}
	s.unregister(a)
}

func (s *VerificationService) fail(ctx context.Context, a *Attempt, reason string) {
	_, _ = s.Notifier.SendMessage(a.ChatID, "⚠️ Verification failed, please try again later.")
	if err := s.Audit.Submit(ctx, s.withSession(a, models.NewFailedOutcome(a.UserID, a.Phone, reason))); err != nil {
		log.Printf("[verify][audit] failed submit failed: attempt=%s err=%v", a.ID, err)
	}
	s.unregister(a)
}

// expireAttempt — TTL застрявшей между запросом и вводом кода попытки.
func (s *VerificationService) expireAttempt(userID int64, attemptID string) {
	s.mu.Lock()
	a, ok := s.byUser[userID]
	if !ok || a.ID != attemptID || a.State != StateCodeRequested {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	log.Printf("[verify][expire] attempt=%s phone=%s", a.ID, a.Phone)
	_, _ = s.Notifier.SendMessage(a.ChatID, "⌛ Verification attempt expired. Send your phone number again to restart.")
	if err := s.Audit.Submit(context.Background(), s.withSession(a, models.NewFailedOutcome(a.UserID, a.Phone, "attempt expired"))); err != nil {
		log.Printf("[verify][audit] expired submit failed: attempt=%s err=%v", a.ID, err)
	}
	s.unregister(a)
}

// setState — все записи состояния только под мьютексом: HasAttempt и
// expireAttempt читают его с других горутин.
func (s *VerificationService) setState(a *Attempt, st AttemptState) {
	s.mu.Lock()
	a.State = st
	s.mu.Unlock()
}

func (s *VerificationService) withSession(a *Attempt, o models.Outcome) models.Outcome {
	o.SessionName = a.Session
	return o
}

func (s *VerificationService) unregister(a *Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.expire != nil {
		a.expire.Stop()
	}
	if cur, ok := s.byUser[a.UserID]; ok && cur.ID == a.ID {
		delete(s.byUser, a.UserID)
		delete(s.byPhone, a.Phone)
	}
}
