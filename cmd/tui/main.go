package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/revstay/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/revstay/internal/booking"
	bookingStore "github.com/MrJamesThe3rd/revstay/internal/booking/store"
	"github.com/MrJamesThe3rd/revstay/internal/config"
	"github.com/MrJamesThe3rd/revstay/internal/database"
	"github.com/MrJamesThe3rd/revstay/internal/notify"
	"github.com/MrJamesThe3rd/revstay/internal/payment"
	"github.com/MrJamesThe3rd/revstay/internal/user"
	userStore "github.com/MrJamesThe3rd/revstay/internal/user/store"
)

type model struct {
	bookingService *booking.Service
	users          view.UserFinder
	currency       string

	account     *user.User
	currentView View

	loginView    view.LoginModel
	bookingsView view.BookingsModel
	bookView     view.BookModel
	summaryView  view.SummaryModel
}

type View int

const (
	ViewLogin    View = 0
	ViewMenu     View = 1
	ViewBookings View = 2
	ViewBook     View = 3
	ViewSummary  View = 4
)

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "o":
				m.account = nil
				m.currentView = ViewLogin
				m.loginView = view.NewLoginModel(m.users)

				return m, m.loginView.Init()
			case "1":
				return m.openBookings()
			case "2":
				if m.account.Role == user.RoleBuyer {
					m.currentView = ViewBook
					m.bookView = view.NewBookModel(m.bookingService, m.account)

					return m, m.bookView.Init()
				}
			case "3":
				if m.account.Role == user.RoleSeller {
					return m.openSummary()
				}
			}
		}
	case view.LoggedInMsg:
		m.account = msg.User
		m.currentView = ViewMenu

		return m, nil
	case view.ShowSummaryMsg:
		return m.openSummary()
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewBookings:
		var newModel tea.Model
		newModel, cmd = m.bookingsView.Update(msg)
		m.bookingsView = newModel.(view.BookingsModel)
	case ViewBook:
		var newModel tea.Model
		newModel, cmd = m.bookView.Update(msg)
		m.bookView = newModel.(view.BookModel)
	case ViewSummary:
		var newModel tea.Model
		newModel, cmd = m.summaryView.Update(msg)
		m.summaryView = newModel.(view.SummaryModel)
	case ViewMenu:
	}

	return m, cmd
}

func (m model) openBookings() (tea.Model, tea.Cmd) {
	m.currentView = ViewBookings
	m.bookingsView = view.NewBookingsModel(m.bookingService, m.account)

	return m, m.bookingsView.Init()
}

func (m model) openSummary() (tea.Model, tea.Cmd) {
	m.currentView = ViewSummary
	m.summaryView = view.NewSummaryModel(m.bookingService, m.account, m.currency)

	return m, m.summaryView.Init()
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		menu := fmt.Sprintf("RevStay Console (%s, %s)\n\n1. Bookings\n", m.account.Username, m.account.Role)

		switch m.account.Role {
		case user.RoleBuyer:
			menu += "2. Book a Property\n"
		case user.RoleSeller:
			menu += "3. Seller Summary\n"
		case user.RoleAdmin:
		}

		return lipgloss.NewStyle().Padding(2).Render(menu + "\no. Sign Out\nq. Quit")
	case ViewBookings:
		return m.bookingsView.View()
	case ViewBook:
		return m.bookView.View()
	case ViewSummary:
		return m.summaryView.View()
	}

	return "Unknown View"
}

func initialModel(cfg *config.Config, logger *zap.Logger) (model, func(), error) {
	ctx := context.Background()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return model{}, nil, err
	}

	gateway, err := payment.NewClient(payment.Config{
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
		MaxAmount: cfg.MaxAmountMinor(),
		Timeout:   cfg.Payment.Timeout,
		Mock:      cfg.Payment.Mock,
	}, logger)
	if err != nil {
		db.Close()
		return model{}, nil, err
	}

	dispatcher := notify.NewDispatcher(notify.NewLogSender(logger), cfg.Notify.QueueSize, 1, logger,
		notify.WithSendTimeout(cfg.Notify.SendTimeout))
	users := userStore.New(db)

	svc := booking.NewService(
		bookingStore.New(db),
		users,
		gateway,
		dispatcher,
		logger,
		booking.WithCurrency(cfg.Payment.Currency),
	)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		_ = dispatcher.Close(ctx)
		db.Close()
	}

	return model{
		bookingService: svc,
		users:          users,
		currency:       cfg.Payment.Currency,
		currentView:    ViewLogin,
		loginView:      view.NewLoginModel(users),
	}, cleanup, nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	zcfg := zap.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{"revstay-tui.log"}
	zcfg.ErrorOutputPaths = []string{"revstay-tui.log"}

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	m, cleanup, err := initialModel(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		logger.Error("failed to run TUI", zap.Error(err))
		os.Exit(1)
	}
}
