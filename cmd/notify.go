package cmd

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/config"
	"f1lapcompare/pkg/log"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/notification"
	"f1lapcompare/pkg/pubsub"
	"f1lapcompare/pkg/settings"
)

func addTelegramFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&config.TelegramToken, "telegram-token", "", "token of the telegram bot")
	cmd.Flags().StringVar(&config.DB, "db", settings.DbName, "sqlite database of the notification subscriptions")
	cmd.Flags().Int64SliceVar(&config.NotifyChatIDs, "notify-chat-ids", nil,
		"chats notified of every comparison regardless of subscriptions")
}

func newBotAPI() (*tgbotapi.BotAPI, error) {
	if config.TelegramToken == "" {
		return nil, errors.Wrap(model.ErrInvalid, "missing telegram token (--telegram-token or F1LC_TELEGRAM_TOKEN)")
	}
	return tgbotapi.NewBotAPI(config.TelegramToken)
}

// startNotifications forwards every published report to the subscribers of
// its session category until ctx is done.
func startNotifications(ctx context.Context, bot *tgbotapi.BotAPI, sm *settings.Manager) *pubsub.PubSub[*compare.Report] {
	ps := pubsub.NewPubSub[*compare.Report]()
	nm := notification.NewManager(sm, notification.TelegramNotifier(bot), config.NotifyChatIDs, log.Named("notification"))
	go nm.Start(ctx, ps.Subscribe(compare.Topic))
	return ps
}
