package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"f1lapcompare/pkg/settings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	commandSubscribe    = "/subscribe"
	buttonSubscriptions = "Subscriptions"
	callbackSubscribe   = "subscribe"
)

// Subscriptions stores which categories a user is notified of.
type Subscriptions interface {
	Toggle(user settings.TelegramUser, category string) (settings.Notifications, error)
	ListNotifications(userID string) (settings.Notifications, error)
}

// SubscriptionsApp toggles the notifications of finished comparisons.
type SubscriptionsApp struct {
	bot Sender
	sm  Subscriptions
}

func NewSubscriptionsApp(bot Sender, sm Subscriptions) *SubscriptionsApp {
	return &SubscriptionsApp{bot: bot, sm: sm}
}

func (sa *SubscriptionsApp) AcceptCommand(command string) (bool, Handler) {
	if command == commandSubscribe {
		return true, sa.renderSubscribe()
	}
	return false, nil
}

func (sa *SubscriptionsApp) AcceptButton(button string) (bool, Handler) {
	if button == buttonSubscriptions {
		return true, sa.renderStatus()
	}
	return false, nil
}

func (sa *SubscriptionsApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, CallbackHandler) {
	split := strings.Split(query.Data, ":")
	if len(split) == 2 && split[0] == callbackSubscribe {
		return true, sa.toggleCallback(split[1])
	}
	return false, nil
}

func keyboard() tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	for _, c := range settings.Categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c, callbackSubscribe+":"+c))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func (sa *SubscriptionsApp) renderStatus() Handler {
	return func(ctx context.Context, req Request) error {
		n, err := sa.sm.ListNotifications(req.User.ID)
		if err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(req.ChatID, n.String())
		msg.ReplyMarkup = keyboard()
		_, err = sa.bot.Send(msg)
		return err
	}
}

func (sa *SubscriptionsApp) renderSubscribe() Handler {
	status := sa.renderStatus()
	return func(ctx context.Context, req Request) error {
		if len(req.Args) == 0 {
			return status(ctx, req)
		}
		category, ok := settings.ParseCategory(req.Args[0])
		if !ok {
			msg := tgbotapi.NewMessage(req.ChatID, fmt.Sprintf("Unknown category %q, use one of %s", req.Args[0], strings.Join(settings.Categories, ", ")))
			_, err := sa.bot.Send(msg)
			return err
		}
		n, err := sa.sm.Toggle(req.User, category)
		if err != nil {
			return err
		}
		_, err = sa.bot.Send(tgbotapi.NewMessage(req.ChatID, n.String()))
		return err
	}
}

func (sa *SubscriptionsApp) toggleCallback(category string) CallbackHandler {
	return func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
		if _, ok := settings.ParseCategory(category); !ok || query.Message == nil || query.From == nil {
			_, err := sa.bot.Request(tgbotapi.NewCallback(query.ID, "Unknown category"))
			return err
		}
		user := settings.TelegramUser{
			ID:     strconv.FormatInt(query.From.ID, 10),
			Name:   query.From.UserName,
			ChatID: query.Message.Chat.ID,
		}
		n, err := sa.sm.Toggle(user, category)
		if err != nil {
			return err
		}
		if _, err := sa.bot.Request(tgbotapi.NewCallback(query.ID, category)); err != nil {
			return err
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(query.Message.Chat.ID, query.Message.MessageID, n.String(), keyboard())
		_, err = sa.bot.Send(edit)
		return err
	}
}
