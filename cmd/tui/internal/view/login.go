package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/revstay/internal/user"
)

type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*user.User, error)
}

// LoginModel picks the account the console acts as. There is no password:
// the console is an operator tool with direct database access.
type LoginModel struct {
	CommonModel
	users UserFinder

	input   textinput.Model
	loading bool
	status  string
}

func NewLoginModel(users UserFinder) LoginModel {
	ti := textinput.New()
	ti.Placeholder = "username"
	ti.Width = 30
	ti.Focus()

	return LoginModel{users: users, input: ti}
}

func (m LoginModel) Title() string     { return "Sign In" }
func (m LoginModel) ShortHelp() string { return "Enter: sign in | Ctrl+C: quit" }

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && !m.loading {
			username := strings.TrimSpace(m.input.Value())
			if username == "" {
				m.status = "Enter a username"
				return m, nil
			}

			m.loading = true
			m.status = ""

			return m, m.findCmd(username)
		}

	case loginFailedMsg:
		m.loading = false
		m.status = fmt.Sprintf("Error: %v", msg.err)

		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m LoginModel) View() string {
	body := fmt.Sprintf("RevStay Console\n\nSign in as:\n%s\n\n%s", m.input.View(), m.ShortHelp())
	if m.loading {
		body += "\n\nLooking up account..."
	}

	if m.status != "" {
		body += "\n\n" + m.status
	}

	return lipgloss.NewStyle().Padding(2).Render(body)
}

type loginFailedMsg struct {
	err error
}

func (m LoginModel) findCmd(username string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		u, err := m.users.FindByUsername(ctx, username)
		if err != nil {
			return loginFailedMsg{err: err}
		}

		if !u.Active {
			return loginFailedMsg{err: fmt.Errorf("account %s is disabled", u.Username)}
		}

		return LoggedInMsg{User: u}
	}
}
