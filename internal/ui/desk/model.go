// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package desk

import (
	"context"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/choihjin/news-front-project/internal/app"
	"github.com/choihjin/news-front-project/internal/router"
	"github.com/choihjin/news-front-project/internal/search"
	"github.com/choihjin/news-front-project/internal/session"
	"github.com/choihjin/news-front-project/internal/ui/components"
	"github.com/choihjin/news-front-project/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// focus is the input that currently receives keystrokes.
type focus int

const (
	focusNone focus = iota
	focusSearch
	focusLogin
)

// searchCharLimit caps what the search box accepts from the keyboard.
const searchCharLimit = 256

// Login form fields, in tab order.
const (
	fieldToken = iota
	fieldUsername
	fieldRefresh
	fieldCount
)

// Deps are the collaborators the UI drives.
type Deps struct {
	Context context.Context
	Session *session.Store
	Routes  *router.Table
	Search  *search.Store
	Logger  *slog.Logger
	Offline bool
	Start   string // initial path, default "/"
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	session *session.Store
	routes  *router.Table
	search  *search.Store
	logger  *slog.Logger

	keys   KeyMap
	theme  *styles.Theme
	header *components.Header
	status *components.StatusBar

	res        router.Resolution
	state      session.State
	afterLogin string

	focus       focus
	searchInput textinput.Model
	loginInputs []textinput.Model
	loginField  int

	articles []Article
	cursor   int

	spinner  spinner.Model
	busy     string
	width    int
	height   int
	quitting bool
}

// New builds the model and resolves the start path.
func New(d Deps) Model {
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Search == nil {
		d.Search = search.New()
	}
	if d.Start == "" {
		d.Start = "/"
	}

	theme := styles.NewTheme()

	si := textinput.New()
	si.Prompt = "/ "
	si.Placeholder = "search headlines"
	si.CharLimit = searchCharLimit
	si.SetValue(d.Search.Text())

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = theme.Spinner

	m := Model{
		ctx:         d.Context,
		session:     d.Session,
		routes:      d.Routes,
		search:      d.Search,
		logger:      d.Logger,
		keys:        DefaultKeyMap(),
		theme:       theme,
		header:      components.NewHeader(theme),
		status:      components.NewStatusBar(theme),
		searchInput: si,
		loginInputs: newLoginInputs(),
		articles:    PlaceholderArticles(),
		spinner:     sp,
		width:       80,
		height:      24,
	}
	m.header.Offline = d.Offline
	m.header.Search = d.Search.Text()
	m.state = d.Session.Snapshot()
	m.syncHeader()
	m.navigate(d.Start)
	return m
}

func newLoginInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)

	token := textinput.New()
	token.Placeholder = "access token"
	// SECURITY: tokens are never echoed.
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'
	inputs[fieldToken] = token

	user := textinput.New()
	user.Placeholder = "username (optional)"
	user.CharLimit = 128
	inputs[fieldUsername] = user

	refresh := textinput.New()
	refresh.Placeholder = "refresh token (optional)"
	refresh.EchoMode = textinput.EchoPassword
	refresh.EchoCharacter = '•'
	inputs[fieldRefresh] = refresh

	return inputs
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Route returns the current resolution.
func (m Model) Route() router.Resolution {
	return m.res
}

// =============================================================================
// NAVIGATION
// =============================================================================

// navigate resolves p against the route table with the live session. Denied
// navigation lands on the login screen and remembers the target.
func (m *Model) navigate(p string) {
	m.show(p, true)
}

// show is navigate with control over the "sign in" notice; re-resolving after
// a session change keeps the notice the change produced.
func (m *Model) show(p string, announce bool) {
	res := m.routes.Resolve(p, m.session)
	if !res.Allowed {
		m.afterLogin = res.Path
		if announce {
			m.status.SetNotice(components.NoticeWarning, "Sign in to open "+res.Path)
		}
		m.logger.Debug("ui.navigate.denied", "path", res.Path)
		res = m.routes.Resolve(res.RedirectTo, m.session)
	}

	changed := res.Route.Name != m.res.Route.Name
	m.res = res
	m.header.Route = res.Path

	if changed {
		m.cursor = 0
		m.blurAll()
		if res.Route.Name == router.NameLogin && !m.state.Authenticated {
			m.focusLoginField(fieldToken)
		}
	}
}

// navigateTo resolves a named route.
func (m *Model) navigateTo(name string, params map[string]string) {
	p, err := m.routes.PathFor(name, params)
	if err != nil {
		m.logger.Warn("ui.navigate.failed", "route", name, "error", err)
		return
	}
	m.navigate(p)
}

// onSessionChanged applies a new session state and re-resolves the current
// path, so losing the session on a protected screen moves to login.
func (m *Model) onSessionChanged(st session.State) {
	wasAuthenticated := m.state.Authenticated
	m.state = st
	m.syncHeader()

	if !wasAuthenticated && st.Authenticated && m.res.Route.Name == router.NameLogin {
		target := m.afterLogin
		m.afterLogin = ""
		m.resetLoginForm()
		if target == "" {
			p, _ := m.routes.PathFor(router.NameDashboard, nil)
			target = p
		}
		m.show(target, false)
		return
	}
	m.show(m.res.Path, false)
}

func (m *Model) syncHeader() {
	name := ""
	if m.state.Authenticated {
		name = m.state.User.DisplayName()
	}
	m.header.SetSession(m.state.Authenticated, name)
}

// =============================================================================
// FOCUS
// =============================================================================

func (m *Model) blurAll() {
	m.focus = focusNone
	m.searchInput.Blur()
	for i := range m.loginInputs {
		m.loginInputs[i].Blur()
	}
}

func (m *Model) focusLoginField(i int) tea.Cmd {
	m.blurAll()
	m.focus = focusLogin
	m.loginField = (i + fieldCount) % fieldCount
	return m.loginInputs[m.loginField].Focus()
}

func (m *Model) focusSearch() tea.Cmd {
	m.blurAll()
	m.focus = focusSearch
	m.searchInput.CursorEnd()
	return m.searchInput.Focus()
}

func (m *Model) resetLoginForm() {
	for i := range m.loginInputs {
		m.loginInputs[i].Reset()
	}
	m.loginField = fieldToken
}

// =============================================================================
// RUN
// =============================================================================

// Run starts the UI over a and blocks until the user quits or ctx ends.
func Run(ctx context.Context, a *app.App) error {
	m := New(Deps{
		Context: ctx,
		Session: a.Session,
		Routes:  a.Routes,
		Search:  a.Search,
		Logger:  a.Logger.With("component", "ui"),
		Offline: a.API == nil,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := a.Session.SubscribeProgram(p)
	defer unsubscribe()

	a.StartWatch(ctx)

	_, err := p.Run()
	return err
}
