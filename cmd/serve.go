package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/config"
	"f1lapcompare/pkg/log"
	"f1lapcompare/pkg/settings"
	"f1lapcompare/pkg/webserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serves comparisons, figures and lap replays over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd)
		},
	}
	cmd.Flags().StringVar(&config.WebserverAddr, "addr", webserver.DefaultAddr, "listen address of the webserver")
	cmd.Flags().BoolVar(&config.Notify, "notify", false, "notify telegram subscribers of every comparison")
	addTelegramFlags(cmd)
	return cmd
}

func startServer(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := log.Named("serve")

	var opts []compare.Option
	if config.Notify {
		bot, err := newBotAPI()
		if err != nil {
			return err
		}
		sm, err := settings.NewManager(config.DB)
		if err != nil {
			return err
		}
		defer sm.Close()
		ps := startNotifications(ctx, bot, sm)
		defer ps.Close()
		opts = append(opts, compare.WithPublisher(ps))
		logger.Info("notifications enabled", zap.String("bot", bot.Self.UserName))
	}

	s, err := newService(opts...)
	if err != nil {
		return err
	}
	return webserver.NewManager(config.WebserverAddr, config.ResourcesDir, s, log.Named("webserver")).Serve(ctx)
}
