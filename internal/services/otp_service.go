package services

import (
	"context"
	"fmt"
	"log"

	"tgreceiver/internal/provider"
)

// OTPService гоняет запрос и проверку одноразового кода через шлюз.
type OTPService struct {
	Factory  provider.Factory
	Notifier Notifier
}

func NewOTPService(factory provider.Factory, notifier Notifier) *OTPService {
	return &OTPService{Factory: factory, Notifier: notifier}
}

// RequestCode просит провайдера отправить код на номер. Хэндл живёт только
// внутри вызова: закрывается на любом выходе.
func (s *OTPService) RequestCode(ctx context.Context, chatID int64, phone, session string) error {
	msgID, _ := s.Notifier.SendMessage(chatID, "🔄 Processing\n📳 Please wait for code.....")

	client, err := s.Factory.Connect(ctx, phone, session)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			log.Printf("[otp][request] disconnect failed: phone=%s err=%v", phone, cerr)
		}
	}()

	if err := client.SendCode(ctx, phone); err != nil {
		return fmt.Errorf("send code: %w", err)
	}

	_ = s.Notifier.EditMessage(chatID, msgID,
		fmt.Sprintf("🔄 Processing\n📳 The code has been sent to the number %s", phone))
	return nil
}

// SubmitCode логинится кодом. При успехе возвращает живой авторизованный
// хэндл — владение переходит вызывающему. При ошибке хэндл закрыт здесь.
func (s *OTPService) SubmitCode(ctx context.Context, phone, session, code string) (provider.Client, error) {
	client, err := s.Factory.Connect(ctx, phone, session)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.SignIn(ctx, phone, code); err != nil {
		if cerr := client.Close(); cerr != nil {
			log.Printf("[otp][submit] disconnect failed: phone=%s err=%v", phone, cerr)
		}
		return nil, err
	}
	return client, nil
}
