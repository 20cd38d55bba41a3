package notification

import (
	"context"
	"fmt"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/settings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/telegram"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const subject = "New lap comparison"

type Lister interface {
	ListSubscribers(category string) ([]settings.TelegramUser, error)
}

// NotifierFactory builds the notifier delivering to the given chats.
type NotifierFactory func(chatIDs []int64) notify.Notifier

// TelegramNotifier sends through the bot's own client.
func TelegramNotifier(bot *tgbotapi.BotAPI) NotifierFactory {
	return func(chatIDs []int64) notify.Notifier {
		tg := &telegram.Telegram{}
		tg.SetClient(bot)
		tg.AddReceivers(chatIDs...)
		return notify.NewWithServices(tg)
	}
}

// Manager forwards finished comparisons to the users subscribed to the
// session category, plus a fixed list of chats.
type Manager struct {
	lister  Lister
	factory NotifierFactory
	always  []int64
	l       *zap.Logger
}

func NewManager(lister Lister, factory NotifierFactory, always []int64, l *zap.Logger) *Manager {
	if l == nil {
		l = zap.NewNop()
	}
	return &Manager{
		lister:  lister,
		factory: factory,
		always:  always,
		l:       l,
	}
}

// Start consumes reports until ctx is done or the channel is closed.
func (m *Manager) Start(ctx context.Context, reports <-chan *compare.Report) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-reports:
			if !ok {
				return
			}
			if err := m.Notify(ctx, r); err != nil {
				m.l.Error("error notifying users", zap.String("report", r.ID), zap.Error(err))
			}
		}
	}
}

// Notify sends the summary of r to every recipient.
func (m *Manager) Notify(ctx context.Context, r *compare.Report) error {
	recipients, err := m.recipients(r.Category)
	if err != nil {
		return err
	}
	m.l.Info("sending notification",
		zap.String("title", r.Title), zap.String("category", r.Category), zap.Int("chats", len(recipients)))
	if len(recipients) == 0 {
		return nil
	}
	return m.factory(recipients).Send(ctx, subject, Message(r))
}

func (m *Manager) recipients(category string) ([]int64, error) {
	chatIDs := append([]int64(nil), m.always...)
	if category != "" && m.lister != nil {
		users, err := m.lister.ListSubscribers(category)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			chatIDs = append(chatIDs, u.ChatID)
		}
	}
	return lo.Uniq(chatIDs), nil
}

// Message is the notification body of a report.
func Message(r *compare.Report) string {
	return fmt.Sprintf("%s\n%s", r.Title, r.Summary())
}
