package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/booking"
	"github.com/MrJamesThe3rd/revstay/internal/money"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

type bookState int

const (
	bookStateForm bookState = iota
	bookStateBooking
	bookStateResult
)

// bookFields outlives the model copies bubbletea makes, so the form can
// bind to it.
type bookFields struct {
	propertyID string
	date       string
}

type BookModel struct {
	CommonModel
	svc     *booking.Service
	account *user.User

	state   bookState
	fields  *bookFields
	form    *huh.Form
	spinner spinner.Model

	booking *booking.Booking
	err     error
}

func NewBookModel(svc *booking.Service, account *user.User) BookModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := BookModel{
		svc:     svc,
		account: account,
		fields:  &bookFields{},
		spinner: s,
	}
	m.form = m.buildForm()

	return m
}

func (m BookModel) Title() string { return "Book a Property" }

func (m BookModel) ShortHelp() string {
	switch m.state {
	case bookStateBooking:
		return "Booking..."
	case bookStateResult:
		return "Esc: back to menu"
	case bookStateForm:
	}

	return "Esc: back | Enter: confirm"
}

func (m BookModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m BookModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case bookStateForm:
		return m.updateForm(msg)
	case bookStateBooking:
		return m.updateBooking(msg)
	case bookStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m BookModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = bookStateBooking

	return m, tea.Batch(m.spinner.Tick, m.createCmd())
}

func (m BookModel) updateBooking(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(bookResultMsg); ok {
		m.state = bookStateResult
		m.booking = result.booking
		m.err = result.err

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m BookModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("property_id").
				Title("Property ID").
				Value(&m.fields.propertyID).
				Validate(func(s string) error {
					if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("not a property id")
					}
					return nil
				}),

			huh.NewInput().
				Key("booking_date").
				Title("Booking date").
				Description("Optional, defaults to today").
				Placeholder(time.DateOnly).
				Value(&m.fields.date).
				Validate(func(s string) error {
					if _, err := parseBookingDate(s); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m BookModel) View() string {
	switch m.state {
	case bookStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case bookStateBooking:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Reserving the property and opening a payment order...", m.spinner.View()),
		)
	case bookStateResult:
		return m.viewResult()
	}

	return ""
}

func (m BookModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("Error: %v", m.err)),
		)
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Booking Created!")

	title := ""
	if m.booking.Property != nil {
		title = m.booking.Property.Title
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			fmt.Sprintf("Property: %s", title),
			fmt.Sprintf("Date:     %s", FormatDate(m.booking.BookingDate)),
			fmt.Sprintf("Amount:   %s", money.Format(m.booking.Amount, m.booking.Currency)),
			fmt.Sprintf("Order:    %s", m.booking.TransactionID),
			fmt.Sprintf("Status:   %s", m.booking.Status),
		),
	)
}

// parseBookingDate accepts an empty string as "no date".
func parseBookingDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

type bookResultMsg struct {
	booking *booking.Booking
	err     error
}

func (m BookModel) createCmd() tea.Cmd {
	propertyID := uuid.MustParse(strings.TrimSpace(m.fields.propertyID))
	date, _ := parseBookingDate(m.fields.date)
	username := m.account.Username

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		b, err := m.svc.Create(ctx, username, propertyID, booking.CreateParams{BookingDate: date})

		return bookResultMsg{booking: b, err: err}
	}
}
