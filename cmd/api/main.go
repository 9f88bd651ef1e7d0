package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/internal/auth"
	"github.com/MrJamesThe3rd/revstay/internal/booking"
	bookingStore "github.com/MrJamesThe3rd/revstay/internal/booking/store"
	"github.com/MrJamesThe3rd/revstay/internal/config"
	"github.com/MrJamesThe3rd/revstay/internal/database"
	revhttp "github.com/MrJamesThe3rd/revstay/internal/http"
	bookingHandler "github.com/MrJamesThe3rd/revstay/internal/http/booking"
	paymentHandler "github.com/MrJamesThe3rd/revstay/internal/http/payment"
	"github.com/MrJamesThe3rd/revstay/internal/logging"
	"github.com/MrJamesThe3rd/revstay/internal/mail"
	"github.com/MrJamesThe3rd/revstay/internal/mq"
	"github.com/MrJamesThe3rd/revstay/internal/notify"
	"github.com/MrJamesThe3rd/revstay/internal/payment"
	userStore "github.com/MrJamesThe3rd/revstay/internal/user/store"
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

	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		return err
	}

	gateway, err := payment.NewClient(payment.Config{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
		MaxAmount: cfg.MaxAmountMinor(),
		Timeout:   cfg.Payment.Timeout,
		Mock:      cfg.Payment.Mock,
	}, logger.Named("payment"))
	if err != nil {
		return fmt.Errorf("payment gateway: %w", err)
	}

	sender, closeSender, err := notificationSender(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSender()

	dispatcher := notify.NewDispatcher(sender, cfg.Notify.QueueSize, cfg.Notify.Workers, logger.Named("notify"),
		notify.WithSendTimeout(cfg.Notify.SendTimeout))

	bookingService := booking.NewService(
		bookingStore.New(db),
		userStore.New(db),
		gateway,
		dispatcher,
		logger.Named("booking"),
		booking.WithCurrency(cfg.Payment.Currency),
	)

	var (
		bookingH = bookingHandler.NewHandler(bookingService)
		paymentH = paymentHandler.NewHandler(gateway, cfg.Payment.KeyID, cfg.Payment.Currency)
	)

	router := revhttp.New(revhttp.Options{
		Issuer:      auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		CORSOrigins: cfg.Auth.CORSOrigins,
		Ping:        db.PingContext,
	}, bookingH, paymentH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown incomplete", zap.Error(err))
	}

	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("notifications left undelivered", zap.Error(err))
	}

	return nil
}

// notificationSender prefers the queue, then direct SMTP, then the log.
func notificationSender(cfg *config.Config, logger *zap.Logger) (notify.Sender, func(), error) {
	switch {
	case cfg.Notify.RabbitURL != "":
		pub, err := mq.NewPublisher(cfg.Notify.RabbitURL, cfg.Notify.Exchange)
		if err != nil {
			return nil, nil, fmt.Errorf("notification queue: %w", err)
		}

		logger.Info("notifications via queue", zap.String("exchange", cfg.Notify.Exchange))

		return notify.NewQueueSender(pub), func() { _ = pub.Close() }, nil
	case cfg.Mail.Host != "":
		logger.Info("notifications via smtp", zap.String("host", cfg.Mail.Host))

		return mail.NewSender(mailConfig(cfg)), func() {}, nil
	default:
		logger.Warn("no notification transport configured, logging only")

		return notify.NewLogSender(logger.Named("mail")), func() {}, nil
	}
}

func mailConfig(cfg *config.Config) mail.Config {
	return mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
	}
}
