package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/revstay/internal/booking"
	"github.com/MrJamesThe3rd/revstay/internal/money"
	"github.com/MrJamesThe3rd/revstay/internal/payment"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

type bookingsState int

const (
	bookingsStateBrowse bookingsState = iota
	bookingsStateStatus
)

// ShowSummaryMsg asks for the seller summary screen.
type ShowSummaryMsg struct{}

// statusFilters is cycled with "f". The empty status means all.
var statusFilters = []booking.Status{
	"",
	booking.StatusPending,
	booking.StatusConfirmed,
	booking.StatusCompleted,
	booking.StatusCancelled,
}

type BookingsModel struct {
	CommonModel
	svc     *booking.Service
	account *user.User

	state    bookingsState
	table    table.Model
	all      []*booking.Booking
	bookings []*booking.Booking // all, filtered

	form       *huh.Form
	nextStatus *booking.Status

	statusFilterIdx int
	timeframe       Timeframe

	loading bool
	err     error
	status  string
}

func NewBookingsModel(svc *booking.Service, account *user.User) BookingsModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Property", Width: 28},
		{Title: "Buyer", Width: 14},
		{Title: "Seller", Width: 14},
		{Title: "Status", Width: 11},
		{Title: "Amount", Width: 12},
		{Title: "Order", Width: 24},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return BookingsModel{
		svc:     svc,
		account: account,
		table:   t,
		loading: true,
	}
}

func (m BookingsModel) Title() string { return "Bookings" }

func (m BookingsModel) ShortHelp() string {
	if m.state == bookingsStateStatus {
		return "Enter: apply | Esc: cancel"
	}

	help := "Esc: back | r: refresh | f: filter | d: date | c: cancel | s: status | p: pay and confirm"
	if m.account.Role == user.RoleSeller {
		help += " | m: summary"
	}

	return help
}

func (m BookingsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BookingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadBookingsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.all = msg.bookings
		m.applyFilter()

		return m, nil

	case bookingActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Booking %s is now %s", shortID(msg.booking), msg.booking.Status)

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))

		return m, nil
	}

	switch m.state {
	case bookingsStateBrowse:
		return m.updateBrowse(msg)
	case bookingsStateStatus:
		return m.updateStatus(msg)
	}

	return m, nil
}

func (m BookingsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "f":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(statusFilters)
			m.applyFilter()

			return m, nil
		case "d":
			m.timeframe = m.timeframe.Next()
			m.applyFilter()

			return m, nil
		case "c":
			return m, m.cancelCmd()
		case "s":
			return m.enterStatusMode()
		case "p":
			return m, m.payCmd()
		case "m":
			if m.account.Role == user.RoleSeller {
				return m, func() tea.Msg { return ShowSummaryMsg{} }
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BookingsModel) enterStatusMode() (tea.Model, tea.Cmd) {
	b := m.selected()
	if b == nil {
		return m, nil
	}

	next := b.Status.Next()
	if len(next) == 0 {
		m.status = fmt.Sprintf("Booking %s is %s and cannot change", shortID(b), b.Status)
		return m, nil
	}

	options := make([]huh.Option[booking.Status], len(next))
	for i, st := range next {
		options[i] = huh.NewOption(string(st), st)
	}

	m.nextStatus = new(next[0])
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[booking.Status]().
				Key("status").
				Title(fmt.Sprintf("Move %s from %s to", shortID(b), b.Status)).
				Options(options...).
				Value(m.nextStatus),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = bookingsStateStatus
	m.table.Blur()

	return m, m.form.Init()
}

func (m BookingsModel) updateStatus(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.leaveStatusMode(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	next := *m.nextStatus
	update := m.statusCmd(next, booking.PaymentProof{})

	return m.leaveStatusMode(), update
}

func (m BookingsModel) leaveStatusMode() BookingsModel {
	m.state = bookingsStateBrowse
	m.form = nil
	m.nextStatus = nil
	m.table.Focus()

	return m
}

func (m BookingsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading bookings...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(Esc to back)", m.err))
	}

	statusLabel := "All"
	if st := statusFilters[m.statusFilterIdx]; st != "" {
		statusLabel = string(st)
	}

	header := fmt.Sprintf(
		"%s (%s) | [f] Status: %s | [d] Date: %s | %d of %d",
		m.account.Username,
		m.account.Role,
		activeStyle(statusLabel),
		activeStyle(m.timeframe.String()),
		len(m.bookings),
		len(m.all),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.state == bookingsStateStatus && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *BookingsModel) applyFilter() {
	want := statusFilters[m.statusFilterIdx]
	now := time.Now()

	filtered := make([]*booking.Booking, 0, len(m.all))
	for _, b := range m.all {
		if want != "" && b.Status != want {
			continue
		}

		if !m.timeframe.Contains(b.BookingDate, now) {
			continue
		}

		filtered = append(filtered, b)
	}

	m.bookings = filtered
	m.refreshTable()
}

func (m *BookingsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.bookings))
	for _, b := range m.bookings {
		var title, buyer, seller string
		if b.Property != nil {
			title = b.Property.Title
			seller = b.Property.Seller.Username
		}

		if b.Buyer != nil {
			buyer = b.Buyer.Username
		}

		rows = append(rows, table.Row{
			FormatDate(b.BookingDate),
			title,
			buyer,
			seller,
			string(b.Status),
			money.Format(b.Amount, b.Currency),
			b.TransactionID,
		})
	}

	m.table.SetRows(rows)
}

func (m BookingsModel) selected() *booking.Booking {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.bookings) {
		return nil
	}

	return m.bookings[idx]
}

func shortID(b *booking.Booking) string {
	return b.ID.String()[:8]
}

// Messages

type loadBookingsMsg struct {
	bookings []*booking.Booking
	err      error
}

func (m BookingsModel) loadCmd() tea.Cmd {
	username, role := m.account.Username, m.account.Role

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			bookings []*booking.Booking
			err      error
		)

		switch role {
		case user.RoleSeller:
			bookings, err = m.svc.SellerBookings(ctx, username)
		case user.RoleBuyer:
			bookings, err = m.svc.BuyerBookings(ctx, username)
		case user.RoleAdmin:
			err = fmt.Errorf("%s accounts have no bookings", role)
		}

		return loadBookingsMsg{bookings: bookings, err: err}
	}
}

type bookingActionMsg struct {
	booking *booking.Booking
	err     error
}

func (m BookingsModel) statusCmd(next booking.Status, proof booking.PaymentProof) tea.Cmd {
	b := m.selected()
	if b == nil {
		return nil
	}

	id, username := b.ID, m.account.Username

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.svc.UpdateStatus(ctx, username, id, string(next), proof)

		return bookingActionMsg{booking: updated, err: err}
	}
}

// payCmd confirms the selected booking with a sandbox payment, the way the
// checkout test button does.
func (m BookingsModel) payCmd() tea.Cmd {
	paymentID, signature := payment.NewTestPayment(time.Now())

	return m.statusCmd(booking.StatusConfirmed, booking.PaymentProof{PaymentID: paymentID, Signature: signature})
}

func (m BookingsModel) cancelCmd() tea.Cmd {
	b := m.selected()
	if b == nil {
		return nil
	}

	id, username, role := b.ID, m.account.Username, m.account.Role

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			updated *booking.Booking
			err     error
		)

		if role == user.RoleBuyer {
			updated, err = m.svc.Cancel(ctx, username, id)
		} else {
			updated, err = m.svc.UpdateStatus(ctx, username, id, string(booking.StatusCancelled), booking.PaymentProof{})
		}

		return bookingActionMsg{booking: updated, err: err}
	}
}
