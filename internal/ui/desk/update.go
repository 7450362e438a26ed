// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/choihjin/news-front-project/internal/router"
	"github.com/choihjin/news-front-project/internal/session"
	"github.com/choihjin/news-front-project/internal/ui/components"
)

// Update handles every message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.header.SetWidth(msg.Width)
		m.status.Width = msg.Width
		return m, nil

	case session.ChangedMsg:
		m.onSessionChanged(msg.State)
		return m, nil

	case loginDoneMsg:
		m.busy = ""
		m.status.Busy = ""
		if msg.err != nil {
			m.status.SetNotice(components.NoticeError, loginErrorText(msg.err))
			return m, m.focusLoginField(fieldToken)
		}
		m.status.SetNotice(components.NoticeSuccess, "Signed in")
		// Navigation waits for session.ChangedMsg; apply the snapshot too so
		// the screen is right even without a subscribed program.
		m.onSessionChanged(m.session.Snapshot())
		return m, nil

	case logoutDoneMsg:
		m.busy = ""
		m.status.Busy = ""
		m.applyLogoutResult(msg.result)
		m.onSessionChanged(m.session.Snapshot())
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.status.Busy = m.spinner.View() + " " + m.busy
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// updateFocused forwards non-key messages (cursor blink) to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case focusLogin:
		m.loginInputs[m.loginField], cmd = m.loginInputs[m.loginField].Update(msg)
	}
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusLogin:
		return m.handleLoginKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.News):
		m.navigateTo(router.NameNews, nil)
	case key.Matches(msg, m.keys.Dashboard):
		m.navigateTo(router.NameDashboard, nil)
	case key.Matches(msg, m.keys.Register):
		m.navigateTo(router.NameRegister, nil)
	case key.Matches(msg, m.keys.Login):
		m.navigateTo(router.NameLogin, nil)
		if m.focus == focusLogin {
			return m, m.loginInputs[m.loginField].Focus()
		}
	case key.Matches(msg, m.keys.Logout):
		return m.startLogout()
	case key.Matches(msg, m.keys.Search):
		return m, m.focusSearch()
	case key.Matches(msg, m.keys.Back):
		m.status.ClearNotice()
		if m.res.Route.Name != router.NameNews {
			m.navigateTo(router.NameNews, nil)
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visibleArticles())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		m.openSelected()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.blurAll()
		if m.res.Route.Name != router.NameNews {
			m.navigateTo(router.NameNews, nil)
		}
		return m, nil
	case tea.KeyEsc:
		m.blurAll()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.search.UpdateSearchText(m.searchInput.Value())
	m.header.Search = m.search.Text()
	m.cursor = 0
	return m, cmd
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		m.blurAll()
		m.navigateTo(router.NameNews, nil)
		return m, nil
	case msg.Type == tea.KeyEnter:
		return m.submitLogin()
	case key.Matches(msg, m.keys.NextField):
		return m, m.focusLoginField(m.loginField + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.focusLoginField(m.loginField - 1)
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginField], cmd = m.loginInputs[m.loginField].Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.busy != "" || m.session.InFlight() {
		return m, nil
	}

	token := strings.TrimSpace(m.loginInputs[fieldToken].Value())
	if token == "" {
		m.status.SetNotice(components.NoticeError, "Enter an access token")
		return m, m.focusLoginField(fieldToken)
	}

	var user session.UserProfile
	if name := strings.TrimSpace(m.loginInputs[fieldUsername].Value()); name != "" {
		user = session.UserProfile{"username": name}
	}
	var opts []session.LoginOption
	if refresh := strings.TrimSpace(m.loginInputs[fieldRefresh].Value()); refresh != "" {
		opts = append(opts, session.WithRefreshToken(refresh))
	}

	m.blurAll()
	m.busy = "Signing in…"
	m.status.Busy = m.spinner.View() + " " + m.busy
	return m, tea.Batch(m.spinner.Tick, loginCmd(m.session, token, user, opts...))
}

func (m Model) startLogout() (tea.Model, tea.Cmd) {
	if m.busy != "" || m.session.InFlight() {
		return m, nil
	}
	if !m.state.Authenticated {
		m.status.SetNotice(components.NoticeInfo, "Not signed in")
		return m, nil
	}

	m.busy = "Signing out…"
	m.status.Busy = m.spinner.View() + " " + m.busy
	return m, tea.Batch(m.spinner.Tick, logoutCmd(m.ctx, m.session))
}

func (m *Model) applyLogoutResult(res session.LogoutResult) {
	switch {
	case res.CleanupErr != nil:
		m.status.SetNotice(components.NoticeError, "Signed out, but stored credentials could not be removed")
	case res.RemoteErr != nil:
		m.status.SetNotice(components.NoticeWarning, "Signed out locally; the server did not confirm")
	default:
		m.status.SetNotice(components.NoticeSuccess, "Signed out")
	}
}

func (m *Model) openSelected() {
	if m.res.Route.Name != router.NameNews {
		return
	}
	visible := m.visibleArticles()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return
	}
	m.navigateTo(router.NameNewsDetail, map[string]string{"id": strconv.Itoa(visible[m.cursor].ID)})
}

func (m Model) visibleArticles() []Article {
	return FilterArticles(m.articles, m.search.Text())
}

func loginErrorText(err error) string {
	var werr *session.PersistenceWriteError
	switch {
	case errors.Is(err, session.ErrEmptyToken):
		return "Enter an access token"
	case errors.As(err, &werr):
		return "Could not save the session: " + werr.Err.Error()
	default:
		return "Sign-in failed: " + err.Error()
	}
}
