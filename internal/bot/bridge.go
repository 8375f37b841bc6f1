package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/smeta-bot/internal/confirm"
	"github.com/Spok95/smeta-bot/internal/host"
)

// chatBridge is the host of an estimate session running in a chat.
type chatBridge struct {
	bot    *Bot
	chatID int64
}

var _ host.Bridge = (*chatBridge)(nil)

func (c *chatBridge) Ready(context.Context)  {}
func (c *chatBridge) Expand(context.Context) {}

// Haptic has no chat equivalent beyond the "typing" indicator.
func (c *chatBridge) Haptic(ctx context.Context, kind host.Haptic) {
	if kind == host.HapticSuccess {
		c.bot.wait(ctx)
		_, _ = c.bot.api.Request(tgbotapi.NewChatAction(c.chatID, tgbotapi.ChatTyping))
	}
}

func (c *chatBridge) Alert(ctx context.Context, text string) {
	c.bot.reply(ctx, c.chatID, "⚠️ "+text)
}

func (c *chatBridge) Confirm(ctx context.Context, text string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()
	ok, err := c.bot.prompts.Ask(ctx, c.chatID, text)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false, nil
	}
	return ok, err
}

func (c *chatBridge) SendData(ctx context.Context, data string) error {
	_, err := c.bot.send(ctx, tgbotapi.NewMessage(c.chatID, data))
	return err
}

func (b *Bot) sendConfirm(ctx context.Context, chatID int64, token, text string) error {
	m := tgbotapi.NewMessage(chatID, "❓ "+text)
	m.ReplyMarkup = confirmKeyboard(token)
	_, err := b.send(ctx, m)
	return err
}

// onConfirmAnswer runs outside the chat queue: the chat's worker is blocked
// in Confirm until this answer arrives.
func (b *Bot) onConfirmAnswer(cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	cd := parseCallback(cb.Data)
	yes := cd.Action == "yes"
	delivered, err := b.prompts.Resolve(chatID, cd.Arg, yes)
	switch {
	case errors.Is(err, confirm.ErrNotTop):
		b.answerCallback(cb, "Сначала ответьте на последний вопрос.", true)
		return
	case !delivered:
		b.answerCallback(cb, "Вопрос уже неактуален.", false)
	default:
		b.answerCallback(cb, "", false)
	}
	answer := "Нет"
	if yes {
		answer = "Да"
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cb.Message.MessageID,
		cb.Message.Text+"\n— "+answer,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = b.api.Send(edit)
}
