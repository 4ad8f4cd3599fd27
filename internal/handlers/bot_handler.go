package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tgreceiver/internal/repositories"
	"tgreceiver/internal/services"
	"tgreceiver/internal/utils"
)

const welcomeText = "🎉 Welcome to Robot!\n\n" +
	"Enter your phone number with the country code.\n" +
	"Example: +91xxxxxxxxxx\n\n" +
	"Type /cap to see available countries."

type BotHandler struct {
	TG           services.Notifier
	Verification *services.VerificationService
	Ledger       repositories.UserRepository
	Rates        repositories.RateRepository
}

func NewBotHandler(
	tg services.Notifier,
	verification *services.VerificationService,
	ledger repositories.UserRepository,
	rates repositories.RateRepository,
) *BotHandler {
	return &BotHandler{TG: tg, Verification: verification, Ledger: ledger, Rates: rates}
}

// Webhook — единственная точка входа обновлений Telegram.
// Всегда отвечаем 200, иначе Telegram будет ретраить апдейт.
func (h *BotHandler) Webhook(c *gin.Context) {
	var up tgbotapi.Update
	if err := c.ShouldBindJSON(&up); err != nil {
		log.Printf("[bot][webhook] bind json error: %v", err)
		c.Status(http.StatusOK)
		return
	}

	switch {
	case up.CallbackQuery != nil:
		h.handleCallback(c, up.CallbackQuery)
	case up.Message != nil && up.Message.Chat != nil:
		h.handleMessage(c, up.Message)
	default:
		log.Printf("[bot][webhook] empty update")
	}
	c.Status(http.StatusOK)
}

func (h *BotHandler) handleMessage(c *gin.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := chatID // приватный чат: chat id == user id
	if msg.From != nil {
		userID = msg.From.ID
	}
	text := strings.TrimSpace(msg.Text)
	log.Printf("[bot][webhook] incoming: chatID=%d text=%q", chatID, text)

	switch {
	case strings.HasPrefix(text, "/start"):
		if _, err := h.Ledger.EnsureProfile(c.Request.Context(), userID); err != nil {
			log.Printf("[bot][start] ensure profile failed: user_id=%d err=%v", userID, err)
		}
		_ = h.TG.SendInlineKeyboard(chatID, welcomeText, [][]services.Button{
			{{Text: "≡ Menu", Data: "menu_options"}},
		})

	case strings.HasPrefix(text, "/cap"):
		h.sendCapacity(c, chatID)

	case strings.HasPrefix(text, "/account"):
		h.sendBalance(c, chatID, userID)

	case strings.HasPrefix(text, "/withdraw"):
		_, _ = h.TG.SendMessage(chatID, "💸 Withdrawals are processed manually. Contact /support with your balance.")

	case strings.HasPrefix(text, "/support"):
		_, _ = h.TG.SendMessage(chatID, "🆘 Support: @receiver_support")

	default:
		h.handleFreeText(c, chatID, userID, text)
	}
}

// handleFreeText — либо номер телефона (старт попытки), либо код.
func (h *BotHandler) handleFreeText(c *gin.Context, chatID, userID int64, text string) {
	if phone, ok := utils.NormalizePhone(text); ok {
		err := h.Verification.StartAttempt(c.Request.Context(), userID, chatID, phone)
		switch {
		case errors.Is(err, services.ErrAttemptInProgress):
			_, _ = h.TG.SendMessage(chatID, "⏳ You already have a verification in progress. Enter the code or wait for it to expire.")
		case errors.Is(err, services.ErrPhoneBusy):
			_, _ = h.TG.SendMessage(chatID, "⚠️ This number is already being verified.")
		case err != nil:
			log.Printf("[bot][phone] start attempt failed: user_id=%d err=%v", userID, err)
		}
		return
	}

	if utils.LooksLikeCode(text) {
		err := h.Verification.SubmitCode(c.Request.Context(), userID, text)
		if errors.Is(err, services.ErrNoAttempt) {
			_, _ = h.TG.SendMessage(chatID, "Send your phone number first, e.g. +91xxxxxxxxxx")
		} else if err != nil {
			log.Printf("[bot][code] submit failed: user_id=%d err=%v", userID, err)
		}
		return
	}

	if h.Verification.HasAttempt(userID) {
		_, _ = h.TG.SendMessage(chatID, "Enter the code you received, e.g. 12345")
		return
	}
	_, _ = h.TG.SendMessage(chatID, "Enter your phone number with the country code, e.g. +91xxxxxxxxxx")
}

func (h *BotHandler) handleCallback(c *gin.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	userID := chatID
	if cb.From != nil {
		userID = cb.From.ID
	}
	_ = h.TG.AnswerCallback(cb.ID)

	switch cb.Data {
	case "menu_options":
		_ = h.TG.EditInlineKeyboard(chatID, cb.Message.MessageID, "Please choose an option:", [][]services.Button{
			{{Text: "✅ Restart /start", Data: "restart"}},
			{{Text: "🌐 Capacity /cap", Data: "capacity"}},
			{{Text: "🎰 Check - Balance /account", Data: "account"}},
			{{Text: "💸 Withdraw Accounts /withdraw", Data: "withdraw"}},
			{{Text: "🆘 Need Help? /support", Data: "support"}},
		})
	case "restart":
		_ = h.TG.SendInlineKeyboard(chatID, welcomeText, [][]services.Button{
			{{Text: "≡ Menu", Data: "menu_options"}},
		})
	case "capacity":
		h.sendCapacity(c, chatID)
	case "account":
		h.sendBalance(c, chatID, userID)
	case "withdraw":
		_, _ = h.TG.SendMessage(chatID, "💸 Withdrawals are processed manually. Contact /support with your balance.")
	case "support":
		_, _ = h.TG.SendMessage(chatID, "🆘 Support: @receiver_support")
	default:
		log.Printf("[bot][callback] unknown data=%q chatID=%d", cb.Data, chatID)
	}
}

func (h *BotHandler) sendCapacity(c *gin.Context, chatID int64) {
	rates, err := h.Rates.List(c.Request.Context())
	if err != nil {
		log.Printf("[bot][cap] list rates failed: %v", err)
		_, _ = h.TG.SendMessage(chatID, "⚠️ Could not load country list, try again later.")
		return
	}
	if len(rates) == 0 {
		_, _ = h.TG.SendMessage(chatID, "No countries are accepted right now.")
		return
	}
	var b strings.Builder
	b.WriteString("🌐 Accepted countries:\n\n")
	for _, r := range rates {
		fmt.Fprintf(&b, "%s — $%.2f\n", r.Country, r.Amount)
	}
	_, _ = h.TG.SendMessage(chatID, b.String())
}

func (h *BotHandler) sendBalance(c *gin.Context, chatID, userID int64) {
	profile, err := h.Ledger.EnsureProfile(c.Request.Context(), userID)
	if err != nil {
		log.Printf("[bot][account] profile failed: user_id=%d err=%v", userID, err)
		_, _ = h.TG.SendMessage(chatID, "⚠️ Could not load your balance, try again later.")
		return
	}
	_, _ = h.TG.SendMessage(chatID, fmt.Sprintf("🎰 Balance: $%.2f\nCountry: %s", profile.Balance, profile.Country))
}
