// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/choihjin/news-front-project/internal/session"
)

// loginDoneMsg reports the outcome of a Login started from the login screen.
type loginDoneMsg struct {
	err error
}

// logoutDoneMsg carries the result of a Logout.
type logoutDoneMsg struct {
	result session.LogoutResult
}

// Session mutations run as commands, off the Update goroutine. The store
// notifies observers synchronously and Program.Send blocks until Update
// reads the message, so calling them from Update would deadlock.

func loginCmd(s *session.Store, token string, user session.UserProfile, opts ...session.LoginOption) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: s.Login(token, user, opts...)}
	}
}

func logoutCmd(ctx context.Context, s *session.Store) tea.Cmd {
	return func() tea.Msg {
		return logoutDoneMsg{result: s.Logout(ctx)}
	}
}
