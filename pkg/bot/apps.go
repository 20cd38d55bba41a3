package bot

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"f1lapcompare/pkg/settings"
)

// Sender is the part of *tgbotapi.BotAPI the apps use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Request is a command or button press of a user.
type Request struct {
	ChatID int64
	User   settings.TelegramUser
	Args   []string
}

func newRequest(m *tgbotapi.Message, args []string) Request {
	req := Request{ChatID: m.Chat.ID, Args: args}
	if m.From != nil {
		req.User = settings.TelegramUser{
			ID:     strconv.FormatInt(m.From.ID, 10),
			Name:   m.From.UserName,
			ChatID: m.Chat.ID,
		}
		if req.User.Name == "" {
			req.User.Name = m.From.FirstName
		}
	}
	return req
}

type Handler func(ctx context.Context, req Request) error

type CallbackHandler func(ctx context.Context, query *tgbotapi.CallbackQuery) error

type Accepter interface {
	AcceptCommand(command string) (bool, Handler)
	AcceptButton(button string) (bool, Handler)
	AcceptCallback(query *tgbotapi.CallbackQuery) (bool, CallbackHandler)
}
