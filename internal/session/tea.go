// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// ChangedMsg carries a new session state into a Bubble Tea program.
type ChangedMsg struct {
	State State
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// SubscribeProgram forwards every state change to p as a ChangedMsg.
//
// Program.Send blocks until the event loop reads the message, so session
// mutations must run in a tea.Cmd, never directly inside Update.
func (s *Store) SubscribeProgram(p Sender) (unsubscribe func()) {
	return s.Subscribe(func(st State) {
		p.Send(ChangedMsg{State: st})
	})
}
