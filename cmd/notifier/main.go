// Command notifier drains the notification queue into SMTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/config"
	"github.com/MrJamesThe3rd/revstay/internal/logging"
	"github.com/MrJamesThe3rd/revstay/internal/mail"
	"github.com/MrJamesThe3rd/revstay/internal/mq"
	"github.com/MrJamesThe3rd/revstay/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("notifier stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Notify.RabbitURL == "" {
		return fmt.Errorf("RABBIT_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sender notify.Sender = notify.NewLogSender(logger.Named("mail"))
	if cfg.Mail.Host != "" {
		sender = mail.NewSender(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
		})
	} else {
		logger.Warn("SMTP_HOST not set, notifications are only logged")
	}

	consumer, err := mq.NewConsumer(
		cfg.Notify.RabbitURL,
		cfg.Notify.Exchange,
		cfg.Notify.Queue,
		[]string{notify.RoutingKeyPrefix + "#"},
		logger.Named("mq"),
	)
	if err != nil {
		return err
	}
	defer func() { _ = consumer.Close() }()

	logger.Info("consuming notifications", zap.String("queue", cfg.Notify.Queue))

	if err := consumer.Run(ctx, notify.Relay(sender)); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}
