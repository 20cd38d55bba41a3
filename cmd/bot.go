package cmd

import (
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"f1lapcompare/pkg/bot"
	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/config"
	"f1lapcompare/pkg/log"
	"f1lapcompare/pkg/settings"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "answers comparison requests on telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startBot(cmd)
		},
	}
	cmd.Flags().BoolVar(&config.Notify, "notify", true, "notify subscribers of every comparison")
	addTelegramFlags(cmd)
	return cmd
}

func startBot(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := log.Named("bot")

	api, err := newBotAPI()
	if err != nil {
		return err
	}
	sm, err := settings.NewManager(config.DB)
	if err != nil {
		return err
	}
	defer sm.Close()

	var opts []compare.Option
	if config.Notify {
		ps := startNotifications(ctx, api, sm)
		defer ps.Close()
		opts = append(opts, compare.WithPublisher(ps))
	}
	s, err := newService(opts...)
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	logger.Info("start listening for updates", zap.String("bot", api.Self.UserName))
	bot.NewMainApp(api, s, sm, logger).Run(ctx, updates)
	return nil
}
