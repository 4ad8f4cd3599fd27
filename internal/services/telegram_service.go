package services

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Button — кнопка inline-клавиатуры.
type Button struct {
	Text string
	Data string
}

// Notifier — доставка в чат; интерфейс, чтобы сервисы можно было мокать.
type Notifier interface {
	SendMessage(chatID int64, text string) (int, error)
	EditMessage(chatID int64, messageID int, text string) error
	SendInlineKeyboard(chatID int64, text string, rows [][]Button) error
	EditInlineKeyboard(chatID int64, messageID int, text string, rows [][]Button) error
	SendDocument(chatID int64, name string, data []byte, caption string) error
	AnswerCallback(callbackID string) error
}

type TelegramService struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramService(bot *tgbotapi.BotAPI) *TelegramService {
	return &TelegramService{bot: bot}
}

func (t *TelegramService) SendMessage(chatID int64, text string) (int, error) {
	if t == nil || t.bot == nil || chatID == 0 {
		log.Printf("[tg][skip] bot or chatID empty (chatID=%d)", chatID)
		return 0, nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := t.bot.Send(msg)
	if err != nil {
		log.Printf("[tg][send][err] chatID=%d: %v", chatID, err)
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *TelegramService) EditMessage(chatID int64, messageID int, text string) error {
	if t == nil || t.bot == nil || chatID == 0 || messageID == 0 {
		return nil
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := t.bot.Send(edit); err != nil {
		log.Printf("[tg][edit][err] chatID=%d msgID=%d: %v", chatID, messageID, err)
		return err
	}
	return nil
}

func inlineMarkup(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	var kb [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var r []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		kb = append(kb, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func (t *TelegramService) SendInlineKeyboard(chatID int64, text string, rows [][]Button) error {
	if t == nil || t.bot == nil || chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = inlineMarkup(rows)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[tg][send+kb][err] chatID=%d: %v", chatID, err)
		return err
	}
	return nil
}

func (t *TelegramService) EditInlineKeyboard(chatID int64, messageID int, text string, rows [][]Button) error {
	if t == nil || t.bot == nil || chatID == 0 || messageID == 0 {
		return nil
	}
	markup := inlineMarkup(rows)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := t.bot.Send(edit); err != nil {
		log.Printf("[tg][edit+kb][err] chatID=%d msgID=%d: %v", chatID, messageID, err)
		return err
	}
	return nil
}

func (t *TelegramService) SendDocument(chatID int64, name string, data []byte, caption string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		log.Printf("[tg][doc][skip] bot or chatID empty (chatID=%d name=%s)", chatID, name)
		return nil
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := t.bot.Send(doc); err != nil {
		log.Printf("[tg][doc][err] chatID=%d name=%s: %v", chatID, name, err)
		return err
	}
	return nil
}

func (t *TelegramService) AnswerCallback(callbackID string) error {
	if t == nil || t.bot == nil || callbackID == "" {
		return nil
	}
	_, err := t.bot.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

// SetWebhook регистрирует URL вебхука; пустой URL — ничего не делаем.
func (t *TelegramService) SetWebhook(url string) error {
	if t == nil || t.bot == nil || url == "" {
		return nil
	}
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	resp, err := t.bot.Request(wh)
	if err != nil {
		return err
	}
	log.Printf("[tg][setWebhook] ok=%v desc=%s", resp.Ok, resp.Description)
	return nil
}
