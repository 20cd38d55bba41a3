package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	menuStart = "/start"
	menuHelp  = "/help"
)

var menuKeyboard = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(buttonSubscriptions),
	),
)

// MainApp answers /start and /help and dispatches everything else to its
// accepters.
type MainApp struct {
	bot       Sender
	accepters []Accepter
	l         *zap.Logger
}

func NewMainApp(bot Sender, comparer Comparer, sm Subscriptions, l *zap.Logger) *MainApp {
	if l == nil {
		l = zap.NewNop()
	}
	return &MainApp{
		bot: bot,
		accepters: []Accepter{
			NewCompareApp(bot, comparer, l.Named("compare")),
			NewSubscriptionsApp(bot, sm),
		},
		l: l,
	}
}

func (m *MainApp) AcceptCommand(command string) (bool, Handler) {
	if command == menuStart || command == menuHelp {
		return true, m.renderHelp()
	}
	for _, accepter := range m.accepters {
		if accept, handler := accepter.AcceptCommand(command); accept {
			return true, handler
		}
	}
	return false, nil
}

func (m *MainApp) AcceptButton(button string) (bool, Handler) {
	for _, accepter := range m.accepters {
		if accept, handler := accepter.AcceptButton(button); accept {
			return true, handler
		}
	}
	return false, nil
}

func (m *MainApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, CallbackHandler) {
	for _, accepter := range m.accepters {
		if accept, handler := accepter.AcceptCallback(query); accept {
			return true, handler
		}
	}
	return false, nil
}

func (m *MainApp) renderHelp() Handler {
	return func(ctx context.Context, req Request) error {
		var b strings.Builder
		b.WriteString("I compare the laps of two Formula 1 drivers.\n\n")
		fmt.Fprintf(&b, "%s - channels and circuit map of the fastest laps\n", usage("laps"))
		fmt.Fprintf(&b, "%s - fastest laps with the dominance map\n", usage("fastest"))
		fmt.Fprintf(&b, "%s - a race lap with the dominance map, fastest when no lap\n", usage("race"))
		fmt.Fprintf(&b, "%s <Practice|Qual|Race> - toggle notifications of new comparisons\n", commandSubscribe)
		msg := tgbotapi.NewMessage(req.ChatID, b.String())
		msg.ReplyMarkup = menuKeyboard
		_, err := m.bot.Send(msg)
		return err
	}
}

// Run handles updates concurrently until ctx is done or the channel is
// closed, then waits for the running handlers.
func (m *MainApp) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.handleUpdate(ctx, update)
			}()
		}
	}
}

func (m *MainApp) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil:
		err = m.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		if accept, handler := m.AcceptCallback(update.CallbackQuery); accept {
			err = handler(ctx, update.CallbackQuery)
		}
	}
	if err != nil {
		m.l.Error("handling update", zap.Int("update", update.UpdateID), zap.Error(err))
	}
}

func (m *MainApp) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return nil
	}
	m.l.Debug("message received", zap.String("user", message.From.UserName), zap.String("text", message.Text))

	if message.IsCommand() {
		req := newRequest(message, strings.Fields(message.CommandArguments()))
		if accept, handler := m.AcceptCommand("/" + message.Command()); accept {
			return handler(ctx, req)
		}
		_, err := m.bot.Send(tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("Unknown command, try %s", menuHelp)))
		return err
	}
	if accept, handler := m.AcceptButton(message.Text); accept {
		return handler(ctx, newRequest(message, nil))
	}
	return nil
}
