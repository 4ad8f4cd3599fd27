package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgreceiver/internal/config"
	"tgreceiver/internal/models"
	"tgreceiver/internal/provider"
)

// ---------- стабы коллабораторов ----------

type stubClient struct {
	signInErr      error
	sessions       int
	sessionsErr    error
	setPasswordErr error
	enrollDelay    time.Duration
	exportStr      string
	exportErr      error

	signIns   int
	passwords int
	exports   int
	closes    int
}

func (c *stubClient) SendCode(ctx context.Context, phone string) error { return nil }

func (c *stubClient) SignIn(ctx context.Context, phone, code string) error {
	c.signIns++
	return c.signInErr
}

func (c *stubClient) SetPassword(ctx context.Context, password, hint string) error {
	if c.enrollDelay > 0 {
		time.Sleep(c.enrollDelay)
	}
	c.passwords++
	return c.setPasswordErr
}

func (c *stubClient) ExportSession(ctx context.Context) (string, error) {
	c.exports++
	if c.exportErr != nil {
		return "", c.exportErr
	}
	return c.exportStr, nil
}

func (c *stubClient) ActiveSessions(ctx context.Context) (int, error) {
	if c.sessionsErr != nil {
		return 0, c.sessionsErr
	}
	return c.sessions, nil
}

func (c *stubClient) Close() error {
	c.closes++
	return nil
}

// stubFactory выдаёт копию шаблона на каждый Connect и запоминает все хэндлы.
type stubFactory struct {
	connectErr error
	template   stubClient
	clients    []*stubClient
}

func (f *stubFactory) Connect(ctx context.Context, phone, session string) (provider.Client, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	c := f.template
	f.clients = append(f.clients, &c)
	return &c, nil
}

type sentDoc struct {
	ChatID  int64
	Name    string
	Caption string
	Data    []byte
}

type stubNotifier struct {
	msgs []string
	docs []sentDoc
}

func (n *stubNotifier) SendMessage(chatID int64, text string) (int, error) {
	n.msgs = append(n.msgs, text)
	return len(n.msgs), nil
}

func (n *stubNotifier) EditMessage(chatID int64, messageID int, text string) error {
	n.msgs = append(n.msgs, text)
	return nil
}

func (n *stubNotifier) SendInlineKeyboard(chatID int64, text string, rows [][]Button) error {
	n.msgs = append(n.msgs, text)
	return nil
}

func (n *stubNotifier) EditInlineKeyboard(chatID int64, messageID int, text string, rows [][]Button) error {
	n.msgs = append(n.msgs, text)
	return nil
}

func (n *stubNotifier) SendDocument(chatID int64, name string, data []byte, caption string) error {
	n.docs = append(n.docs, sentDoc{ChatID: chatID, Name: name, Caption: caption, Data: data})
	return nil
}

func (n *stubNotifier) AnswerCallback(callbackID string) error { return nil }

func (n *stubNotifier) hasMessageContaining(sub string) bool {
	for _, m := range n.msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

type stubAudit struct {
	outcomes []models.Outcome
}

func (a *stubAudit) Submit(ctx context.Context, o models.Outcome) error {
	a.outcomes = append(a.outcomes, o)
	return nil
}

func (a *stubAudit) statuses() []models.OutcomeStatus {
	var res []models.OutcomeStatus
	for _, o := range a.outcomes {
		res = append(res, o.Status)
	}
	return res
}

type stubLedger struct {
	country string
	balance float64
	added   []float64
}

func (l *stubLedger) profile(id int64) *models.UserProfile {
	country := l.country
	if country == "" {
		country = "US"
	}
	return &models.UserProfile{TelegramID: id, Country: country, Balance: l.balance}
}

func (l *stubLedger) GetByTelegramID(ctx context.Context, id int64) (*models.UserProfile, error) {
	return l.profile(id), nil
}

func (l *stubLedger) EnsureProfile(ctx context.Context, id int64) (*models.UserProfile, error) {
	return l.profile(id), nil
}

func (l *stubLedger) SetCountry(ctx context.Context, id int64, country string) error {
	l.country = country
	return nil
}

func (l *stubLedger) AddBalance(ctx context.Context, id int64, amount float64) (float64, error) {
	l.balance += amount
	l.added = append(l.added, amount)
	return l.balance, nil
}

type stubRates struct {
	rates map[string]float64
}

func (r *stubRates) GetRate(ctx context.Context, country string) (float64, error) {
	return r.rates[strings.ToUpper(country)], nil
}

func (r *stubRates) List(ctx context.Context) ([]models.CountryRate, error) {
	var res []models.CountryRate
	for c, a := range r.rates {
		res = append(res, models.CountryRate{Country: c, Amount: a})
	}
	return res, nil
}

func (r *stubRates) Upsert(ctx context.Context, rate models.CountryRate) error {
	r.rates[strings.ToUpper(rate.Country)] = rate.Amount
	return nil
}

type stubOutcomes struct {
	rows           []*models.Outcome
	latestVerified *models.Outcome
}

func (s *stubOutcomes) Create(ctx context.Context, o *models.Outcome) error {
	o.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, o)
	return nil
}

func (s *stubOutcomes) ListRecent(ctx context.Context, status string, limit, offset int) ([]*models.Outcome, error) {
	return s.rows, nil
}

func (s *stubOutcomes) CountByStatus(ctx context.Context) (map[string]int, error) {
	res := map[string]int{}
	for _, o := range s.rows {
		res[string(o.Status)]++
	}
	return res, nil
}

func (s *stubOutcomes) GetLatestVerified(ctx context.Context, userID int64) (*models.Outcome, error) {
	return s.latestVerified, nil
}

type stubMailer struct {
	alerts []string
}

func (m *stubMailer) SendRejectionAlert(phone, reason string, sessions int) error {
	m.alerts = append(m.alerts, phone)
	return nil
}

// ---------- сборка тестового оркестратора ----------

type verificationFixture struct {
	svc      *VerificationService
	factory  *stubFactory
	notifier *stubNotifier
	audit    *stubAudit
	ledger   *stubLedger
	rates    *stubRates
	outcomes *stubOutcomes
	mailer   *stubMailer
}

func newFixture(template stubClient) *verificationFixture {
	f := &verificationFixture{
		factory:  &stubFactory{template: template},
		notifier: &stubNotifier{},
		audit:    &stubAudit{},
		ledger:   &stubLedger{country: "US"},
		rates:    &stubRates{rates: map[string]float64{"US": 5}},
		outcomes: &stubOutcomes{},
		mailer:   &stubMailer{},
	}
	cfg := config.VerificationConfig{
		TwoFAPassword: "cloud-pass",
		TwoFAHint:     "By Bot",
		AttemptTTL:    time.Minute,
		MaxCodeTries:  5,
	}
	f.svc = NewVerificationService(
		NewOTPService(f.factory, f.notifier),
		NewFraudService(),
		NewTwoFAService(cfg.TwoFAPassword, cfg.TwoFAHint),
		NewExportService(),
		f.factory,
		f.audit,
		f.ledger,
		f.rates,
		f.outcomes,
		f.notifier,
		f.mailer,
		cfg,
	)
	return f
}

func (f *verificationFixture) requireAllHandlesClosedOnce(t *testing.T) {
	t.Helper()
	for i, c := range f.factory.clients {
		assert.Equalf(t, 1, c.closes, "handle %d must be released exactly once", i)
	}
}

const testPhone = "+15551234567"

// ---------- сценарии ----------

func TestVerification_SuccessfulFlow(t *testing.T) {
	f := newFixture(stubClient{sessions: 1, exportStr: "1BVtsOH...session"})
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	assert.True(t, f.svc.HasAttempt(42))
	require.Equal(t, []models.OutcomeStatus{models.StatusPending}, f.audit.statuses())

	require.NoError(t, f.svc.SubmitCode(ctx, 42, "12345"))

	require.Equal(t, []models.OutcomeStatus{models.StatusPending, models.StatusVerified}, f.audit.statuses())
	verified := f.audit.outcomes[1]
	assert.Equal(t, testPhone, verified.Phone)
	assert.Equal(t, "1BVtsOH...session", verified.SessionString)
	assert.Equal(t, 5.0, verified.BalanceAdded)
	assert.True(t, verified.TwoFAEnabled)

	assert.Equal(t, []float64{5}, f.ledger.added)
	assert.Equal(t, 5.0, f.ledger.balance)
	assert.True(t, f.notifier.hasMessageContaining("$5 has been added"))
	assert.False(t, f.svc.HasAttempt(42))
	f.requireAllHandlesClosedOnce(t)
}

func TestVerification_MultiSessionRejected(t *testing.T) {
	f := newFixture(stubClient{sessions: 3, exportStr: "never-used"})
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	require.NoError(t, f.svc.SubmitCode(ctx, 42, "12345"))

	require.Equal(t, []models.OutcomeStatus{models.StatusPending, models.StatusRejected}, f.audit.statuses())
	rejected := f.audit.outcomes[1]
	assert.Contains(t, rejected.Reason, "3")

	// отклонённый аккаунт: ни 2FA, ни экспорта, ни начисления
	for _, c := range f.factory.clients {
		assert.Zero(t, c.passwords)
		assert.Zero(t, c.exports)
	}
	assert.Empty(t, f.ledger.added)
	assert.Zero(t, f.ledger.balance)
	assert.Equal(t, []string{testPhone}, f.mailer.alerts)
	assert.False(t, f.svc.HasAttempt(42))
	f.requireAllHandlesClosedOnce(t)
}

func TestVerification_WrongCodeRetryableInPlace(t *testing.T) {
	f := newFixture(stubClient{signInErr: provider.ErrCodeInvalid, sessions: 1, exportStr: "sess"})
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	require.NoError(t, f.svc.SubmitCode(ctx, 42, "00000"))

	// попытка жива, итоговой записи нет — только pending
	assert.True(t, f.svc.HasAttempt(42))
	assert.Equal(t, []models.OutcomeStatus{models.StatusPending}, f.audit.statuses())
	assert.True(t, f.notifier.hasMessageContaining("code is wrong"))

	// тот же сценарий для истёкшего кода
	f.factory.template.signInErr = provider.ErrCodeExpired
	require.NoError(t, f.svc.SubmitCode(ctx, 42, "00001"))
	assert.True(t, f.svc.HasAttempt(42))
	assert.Equal(t, []models.OutcomeStatus{models.StatusPending}, f.audit.statuses())

	// правильный код добивает попытку до verified
	f.factory.template.signInErr = nil
	require.NoError(t, f.svc.SubmitCode(ctx, 42, "12345"))
	assert.Equal(t, []models.OutcomeStatus{models.StatusPending, models.StatusVerified}, f.audit.statuses())
	f.requireAllHandlesClosedOnce(t)
}

func TestVerification_TooManyWrongCodes(t *testing.T) {
	f := newFixture(stubClient{signInErr: provider.ErrCodeInvalid})
	f.svc.Cfg.MaxCodeTries = 2
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	require.NoError(t, f.svc.SubmitCode(ctx, 42, "00000"))
	assert.True(t, f.svc.HasAttempt(42))

	require.NoError(t, f.svc.SubmitCode(ctx, 42, "00000"))
	assert.False(t, f.svc.HasAttempt(42))
	require.Equal(t, []models.OutcomeStatus{models.StatusPending, models.StatusFailed}, f.audit.statuses())
	assert.Equal(t, "too many wrong codes", f.audit.outcomes[1].Reason)
	f.requireAllHandlesClosedOnce(t)
}

func TestVerification_UnknownCountryCreditsZero(t *testing.T) {
	f := newFixture(stubClient{sessions: 1, exportStr: "sess"})
	f.ledger.country = "ZZ"
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	require.NoError(t, f.svc.SubmitCode(ctx, 42, "12345"))

	require.Equal(t, []models.OutcomeStatus{models.StatusPending, models.StatusVerified}, f.audit.statuses())
	assert.Zero(t, f.audit.outcomes[1].BalanceAdded)
	assert.Equal(t, []float64{0}, f.ledger.added)
	assert.Zero(t, f.ledger.balance)
}

func TestVerification_EnrollFailureIsTerminalAndAudited(t *testing.T) {
	f := newFixture(stubClient{sessions: 1, setPasswordErr: errors.New("PASSWORD_ALREADY_SET")})
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	require.Error(t, f.svc.SubmitCode(ctx, 42, "12345"))

	require.Equal(t, []models.OutcomeStatus{models.StatusPending, models.StatusFailed}, f.audit.statuses())
	assert.Equal(t, "2fa enrollment failed", f.audit.outcomes[1].Reason)
	for _, c := range f.factory.clients {
		assert.Zero(t, c.exports)
	}
	assert.Empty(t, f.ledger.added)
	assert.True(t, f.notifier.hasMessageContaining("Verification failed"))
	assert.False(t, f.svc.HasAttempt(42))
	f.requireAllHandlesClosedOnce(t)
}

func TestVerification_CodeRequestFailure(t *testing.T) {
	f := newFixture(stubClient{})
	f.factory.connectErr = errors.New("gateway down")
	ctx := context.Background()

	require.Error(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	assert.False(t, f.svc.HasAttempt(42))
	require.Equal(t, []models.OutcomeStatus{models.StatusFailed}, f.audit.statuses())

	// после сбоя можно начать заново
	f.factory.connectErr = nil
	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	assert.True(t, f.svc.HasAttempt(42))
}

func TestVerification_ConcurrentAttemptGuards(t *testing.T) {
	f := newFixture(stubClient{sessions: 1, exportStr: "sess"})
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))

	t.Run("same user", func(t *testing.T) {
		err := f.svc.StartAttempt(ctx, 42, 42, "+15550000000")
		assert.ErrorIs(t, err, ErrAttemptInProgress)
	})

	t.Run("same phone, another user", func(t *testing.T) {
		err := f.svc.StartAttempt(ctx, 77, 77, testPhone)
		assert.ErrorIs(t, err, ErrPhoneBusy)
	})

	t.Run("no attempt", func(t *testing.T) {
		err := f.svc.SubmitCode(ctx, 99, "12345")
		assert.ErrorIs(t, err, ErrNoAttempt)
	})
}

func TestVerification_BackToBackCreditsAccumulate(t *testing.T) {
	f := newFixture(stubClient{sessions: 1, exportStr: "sess"})
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	require.NoError(t, f.svc.SubmitCode(ctx, 42, "12345"))
	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, "+15550000001"))
	require.NoError(t, f.svc.SubmitCode(ctx, 42, "12345"))

	assert.Equal(t, []float64{5, 5}, f.ledger.added)
	assert.Equal(t, 10.0, f.ledger.balance)
}

func TestVerification_IdleAttemptExpires(t *testing.T) {
	f := newFixture(stubClient{sessions: 1})
	f.svc.Cfg.AttemptTTL = 20 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
	require.True(t, f.svc.HasAttempt(42))

	assert.Eventually(t, func() bool { return !f.svc.HasAttempt(42) }, time.Second, 10*time.Millisecond)

	statuses := f.audit.statuses()
	require.Equal(t, []models.OutcomeStatus{models.StatusPending, models.StatusFailed}, statuses)
	assert.Equal(t, "attempt expired", f.audit.outcomes[1].Reason)
	assert.True(t, f.notifier.hasMessageContaining("expired"))

	// номер снова свободен
	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))
}

// Вебхук-апдейты приходят на разных горутинах: опрос состояния попытки
// не должен гоняться с переходами машины внутри SubmitCode (go test -race).
func TestVerification_ConcurrentPollDuringSubmit(t *testing.T) {
	f := newFixture(stubClient{sessions: 1, exportStr: "sess", enrollDelay: 5 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, f.svc.StartAttempt(ctx, 42, 42, testPhone))

	done := make(chan error, 1)
	go func() { done <- f.svc.SubmitCode(ctx, 42, "12345") }()

	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.False(t, f.svc.HasAttempt(42))
			f.requireAllHandlesClosedOnce(t)
			return
		default:
			f.svc.HasAttempt(42)
		}
	}
}

func TestVerification_FinalizeExportsCompletedRecord(t *testing.T) {
	f := newFixture(stubClient{exportStr: "re-exported"})
	f.outcomes.latestVerified = &models.Outcome{
		UserID:      42,
		Phone:       testPhone,
		Status:      models.StatusVerified,
		SessionName: "sessions/42_abcd1234",
	}
	ctx := context.Background()

	require.NoError(t, f.svc.Finalize(ctx, 42))
	require.Equal(t, []models.OutcomeStatus{models.StatusCompleted}, f.audit.statuses())
	assert.Equal(t, "re-exported", f.audit.outcomes[0].SessionString)
	f.requireAllHandlesClosedOnce(t)
}

func TestVerification_FinalizeWithoutVerified(t *testing.T) {
	f := newFixture(stubClient{})
	err := f.svc.Finalize(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNothingToExport)
}
