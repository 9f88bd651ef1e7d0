package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/revstay/internal/booking"
	"github.com/MrJamesThe3rd/revstay/internal/money"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

type SummaryModel struct {
	CommonModel
	svc      *booking.Service
	account  *user.User
	currency string

	summary *booking.SellerSummary
	err     error
}

func NewSummaryModel(svc *booking.Service, account *user.User, currency string) SummaryModel {
	return SummaryModel{svc: svc, account: account, currency: currency}
}

func (m SummaryModel) Title() string     { return "Seller Summary" }
func (m SummaryModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m SummaryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.summary = nil
			return m, m.loadCmd()
		}

	case summaryMsg:
		m.summary = &msg.summary
		m.err = msg.err
	}

	return m, nil
}

func (m SummaryModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(Esc to back)", m.err))
	}

	if m.summary == nil {
		return lipgloss.NewStyle().Padding(2).Render("Loading summary...")
	}

	s := m.summary

	return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
		"Bookings for %s\n\nTotal:     %d\nPending:   %d\nConfirmed: %d\nCompleted: %d\nCancelled: %d\n\nRevenue:   %s\n\n(%s)",
		m.account.Username,
		s.Total, s.Pending, s.Confirmed, s.Completed, s.Cancelled,
		activeStyle(money.Format(s.Revenue, m.currency)),
		m.ShortHelp(),
	))
}

type summaryMsg struct {
	summary booking.SellerSummary
	err     error
}

func (m SummaryModel) loadCmd() tea.Cmd {
	username := m.account.Username

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		sum, err := m.svc.SellerSummary(ctx, username)

		return summaryMsg{summary: sum, err: err}
	}
}
