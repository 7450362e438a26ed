// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/choihjin/news-front-project/internal/logging"
	"github.com/choihjin/news-front-project/internal/router"
)

// View renders header, the current screen and the status bar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.header.View()
	footer := m.status.View(m.hints())

	body := m.screen()
	if m.focus == focusSearch {
		body = m.theme.InputFocus.Render(m.searchInput.View()) + "\n\n" + body
	}

	// Pad the body so the status bar sits at the bottom.
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if h := lipgloss.Height(body); bodyHeight > h {
		body += strings.Repeat("\n", bodyHeight-h)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// screen renders the body for the resolved route.
func (m Model) screen() string {
	switch m.res.Route.Name {
	case router.NameNews:
		return m.newsView()
	case router.NameNewsDetail:
		return m.detailView()
	case router.NameDashboard:
		return m.dashboardView()
	case router.NameLogin:
		return m.loginView()
	case router.NameRegister:
		return m.registerView()
	default:
		return m.notFoundView()
	}
}

// =============================================================================
// SCREENS
// =============================================================================

func (m Model) newsView() string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.Title.Render("Latest news"))
	b.WriteString("\n")

	visible := m.visibleArticles()
	if len(visible) == 0 {
		b.WriteString(t.Muted.Render(fmt.Sprintf("No headlines match %q.", m.search.Text())))
		return b.String()
	}

	for i, a := range visible {
		line := fmt.Sprintf("%-10s %s", sectionTitle(a.Section), a.Title)
		if i == m.cursor {
			b.WriteString(t.Selected.Render("> " + line))
		} else {
			b.WriteString(t.Body.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) detailView() string {
	t := m.theme
	id := m.res.Param("id")
	a, ok := FindArticle(m.articles, id)
	if !ok {
		return t.Title.Render("Article "+id) + "\n" +
			t.Muted.Render("This article is not available offline yet.")
	}
	return t.Title.Render(a.Title) + "\n" +
		t.Muted.Render(sectionTitle(a.Section)+" · article "+id) + "\n\n" +
		t.Body.Render("The full story loads from the news service.") + "\n\n" +
		t.Muted.Render("esc back to headlines")
}

func (m Model) dashboardView() string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.Title.Render("Dashboard"))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(t.Label.Render(label) + t.Body.Render(value) + "\n")
	}
	row("Signed in as", m.state.User.DisplayName())
	row("Token", logging.Fingerprint(m.state.AccessToken))
	if m.state.RefreshToken != "" {
		row("Refresh token", "stored")
	} else {
		row("Refresh token", "none")
	}

	if len(m.state.User) > 0 {
		b.WriteString("\n" + t.Muted.Render("Profile") + "\n")
		keys := make([]string, 0, len(m.state.User))
		for k := range m.state.User {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			row(k, fmt.Sprint(m.state.User[k]))
		}
	}
	return b.String()
}

func (m Model) loginView() string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.Title.Render("Sign in"))
	b.WriteString("\n")

	if m.state.Authenticated {
		b.WriteString(t.Body.Render("Already signed in as " + m.state.User.DisplayName() + "."))
		b.WriteString("\n" + t.Muted.Render("Press o to sign out or 2 for the dashboard."))
		return b.String()
	}

	labels := [fieldCount]string{"Access token", "Username", "Refresh token"}
	for i, in := range m.loginInputs {
		style := t.InputBlur
		if m.focus == focusLogin && i == m.loginField {
			style = t.InputFocus
		}
		b.WriteString(t.Label.Render(labels[i]) + "\n")
		b.WriteString(style.Render(in.View()) + "\n")
	}
	b.WriteString(t.Muted.Render("tab next field · enter sign in · esc cancel"))
	return b.String()
}

func (m Model) registerView() string {
	t := m.theme
	return t.Title.Render("Create an account") + "\n" +
		t.Body.Render("Accounts are created on the news service website.") + "\n" +
		t.Muted.Render("Once you have a token, press l to sign in.")
}

func (m Model) notFoundView() string {
	t := m.theme
	return t.Title.Render("Page not found") + "\n" +
		t.Body.Render("Nothing lives at "+m.res.Path+".") + "\n" +
		t.Muted.Render("Press 1 for the headlines.")
}

// hints lists the bindings useful on the current screen.
func (m Model) hints() []key.Binding {
	k := m.keys
	switch m.focus {
	case focusSearch, focusLogin:
		return []key.Binding{k.Open, k.Back}
	}

	hints := []key.Binding{k.News, k.Dashboard, k.Search}
	if m.res.Route.Name == router.NameNews {
		hints = append(hints, k.Up, k.Down, k.Open)
	}
	if m.state.Authenticated {
		hints = append(hints, k.Logout)
	} else {
		hints = append(hints, k.Login, k.Register)
	}
	return append(hints, k.Quit)
}
