// pkg/telegram/bot.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Clean1ines/sp2ytm/pkg/api"
	"github.com/Clean1ines/sp2ytm/pkg/logging"
	"github.com/Clean1ines/sp2ytm/pkg/sync"
)

const (
	callbackPrefix = "choice:"
	callbackSkip   = callbackPrefix + "skip"
	buttonsPerRow  = 5
)

// sender описывает часть BotAPI, которой пользуется бот.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot выбирает кандидатов через inline-кнопки в одном чате и присылает отчёты.
type Bot struct {
	api     sender
	updates tgbotapi.UpdatesChannel
	chatID  int64
	timeout time.Duration
	logger  *logging.Logger
	stop    func()
}

// NewBot подключается к Telegram и начинает получать обновления.
func NewBot(token string, chatID int64, timeout time.Duration, logger *logging.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram-бота: %w", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	b := newBot(botAPI, botAPI.GetUpdatesChan(u), chatID, timeout, logger)
	b.stop = botAPI.StopReceivingUpdates
	return b, nil
}

// Close прекращает получение обновлений.
func (b *Bot) Close() error {
	if b.stop != nil {
		b.stop()
	}
	return nil
}

func newBot(api sender, updates tgbotapi.UpdatesChannel, chatID int64, timeout time.Duration, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bot{api: api, updates: updates, chatID: chatID, timeout: timeout, logger: logger}
}

// Choose отправляет список кандидатов и ждёт нажатия кнопки или номера в ответ.
// По таймауту трек пропускается.
func (b *Bot) Choose(ctx context.Context, track api.SourceTrack, results api.RankedResults) (int, error) {
	msg := tgbotapi.NewMessage(b.chatID, formatCandidates(track, results))
	msg.ReplyMarkup = choiceKeyboard(len(results))
	sent, err := b.api.Send(msg)
	if err != nil {
		return sync.Skip, fmt.Errorf("ошибка отправки кандидатов: %w", err)
	}

	var timeout <-chan time.Time
	if b.timeout > 0 {
		timer := time.NewTimer(b.timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return sync.Skip, ctx.Err()
		case <-timeout:
			b.sendText("Время ожидания истекло, трек пропущен")
			return sync.Skip, nil
		case upd, ok := <-b.updates:
			if !ok {
				return sync.Skip, fmt.Errorf("канал обновлений Telegram закрыт")
			}
			if idx, ok := b.answer(upd, sent.MessageID); ok {
				return idx, nil
			}
		}
	}
}

// answer извлекает выбор из обновления, относящегося к нашему сообщению.
func (b *Bot) answer(upd tgbotapi.Update, messageID int) (int, bool) {
	if cb := upd.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.MessageID != messageID || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
			return 0, false
		}
		idx, ok := parseCallback(cb.Data)
		if !ok {
			return 0, false
		}
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.logger.Warnf("Ошибка подтверждения нажатия: %v", err)
		}
		return idx, true
	}
	if m := upd.Message; m != nil && m.Chat != nil && m.Chat.ID == b.chatID && !m.IsCommand() {
		return sync.ParseChoice(m.Text), true
	}
	return 0, false
}

// Notify отправляет текст в чат.
func (b *Bot) Notify(_ context.Context, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(b.chatID, text))
	return err
}

func (b *Bot) sendText(text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		b.logger.Warnf("Ошибка отправки сообщения: %v", err)
	}
}

// choiceKeyboard строит кнопки с номерами кандидатов и кнопку пропуска.
func choiceKeyboard(n int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i := 0; i < n; i++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(i), callbackPrefix+strconv.Itoa(i)))
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Пропустить", callbackSkip)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func parseCallback(data string) (int, bool) {
	if data == callbackSkip {
		return sync.Skip, true
	}
	if !strings.HasPrefix(data, callbackPrefix) {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(data, callbackPrefix))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func formatCandidates(track api.SourceTrack, results api.RankedResults) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 %s – %s\n", track.Title, strings.Join(track.Artists, ", "))
	for i, c := range results {
		fmt.Fprintf(&b, "[%d] %s – %s | Album: %s | Duration: %s\n",
			i, c.Title, strings.Join(c.ArtistNames(), ", "), c.AlbumName("Unknown Album"), c.DurationText("Unknown"))
	}
	return strings.TrimRight(b.String(), "\n")
}
