// session_cmd.go - login, logout and status commands.
//
// Command: login [--token T | --token-stdin] [--refresh R] [--user JSON | --username NAME]
// Command: logout
// Command: status (alias: whoami)
//
// Examples:
//
//	newsdesk login --token "$ACCESS" --refresh "$REFRESH" --username alice
//	echo "$ACCESS" | newsdesk login --token-stdin
//	newsdesk status --json
//	newsdesk logout
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/choihjin/news-front-project/internal/app"
	"github.com/choihjin/news-front-project/internal/kv"
	"github.com/choihjin/news-front-project/internal/logging"
	"github.com/choihjin/news-front-project/internal/session"
)

// Environment variables consulted by login.
const (
	EnvToken        = "NEWSDESK_TOKEN"
	EnvRefreshToken = "NEWSDESK_REFRESH_TOKEN"
)

// ErrNoToken is returned when login finds no access token anywhere.
var ErrNoToken = errors.New("no access token: use --token, --token-stdin or " + EnvToken)

// emit prints a JSON envelope for data or err and returns err.
func emit(env *Env, command string, data any, err error) error {
	var resp *JSONResponse
	if err != nil {
		resp = NewJSONErrorResponse(command, err, data)
	} else {
		resp = NewJSONResponse(command, data)
	}
	if perr := resp.Print(env.Stdout); perr != nil && err == nil {
		return perr
	}
	return err
}

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin stores a session. Nothing is persisted when any input is
// invalid.
func HandleLogin(env *Env, a *app.App, args Args) error {
	data, err := login(env, a, args.Parser)
	if args.JSON {
		return emit(env, "login", data, err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "%s Logged in as %s\n",
		SuccessStyle.Render("✓"), ValueStyle.Render(data.DisplayName))
	if data.Token != nil && data.Token.Expired(env.now()) {
		fmt.Fprintln(env.Stdout, WarningStyle.Render("Warning: the access token has already expired"))
	}
	return nil
}

func login(env *Env, a *app.App, p *ArgParser) (*SessionData, error) {
	token, err := resolveToken(env, p)
	if err != nil {
		return nil, err
	}
	user, err := parseUser(p)
	if err != nil {
		return nil, err
	}

	var opts []session.LoginOption
	refresh := p.Flag("refresh")
	if refresh == "" {
		refresh = env.getenv(EnvRefreshToken)
	}
	if refresh != "" {
		opts = append(opts, session.WithRefreshToken(refresh))
	}

	if err := a.Session.Login(token, user, opts...); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return sessionData(a, false), nil
}

// resolveToken checks, in order: --token, --token-stdin, NEWSDESK_TOKEN and
// an interactive prompt.
func resolveToken(env *Env, p *ArgParser) (string, error) {
	if t := strings.TrimSpace(p.Flag("token")); t != "" {
		return t, nil
	}
	if p.BoolFlag("token-stdin") {
		return readLine(env.Stdin)
	}
	if t := strings.TrimSpace(env.getenv(EnvToken)); t != "" {
		return t, nil
	}
	if env.ReadSecret == nil {
		return "", ErrNoToken
	}

	t, err := env.ReadSecret("Access token: ")
	var ttyErr *TTYRequiredError
	if errors.As(err, &ttyErr) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if t == "" {
		return "", session.ErrEmptyToken
	}
	return t, nil
}

func readLine(r io.Reader) (string, error) {
	if r == nil {
		return "", ErrNoToken
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token from stdin: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", session.ErrEmptyToken
	}
	return line, nil
}

// parseUser builds the profile from --user or --username. No flag means no
// profile.
func parseUser(p *ArgParser) (session.UserProfile, error) {
	raw, name := p.Flag("user"), p.Flag("username")
	if raw != "" && name != "" {
		return nil, errors.New("use either --user or --username, not both")
	}
	if name != "" {
		return session.UserProfile{"username": name}, nil
	}
	if raw == "" {
		return nil, nil
	}

	var user session.UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: --user must be a JSON object: %v", session.ErrInvalidProfile, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: --user must not be null", session.ErrInvalidProfile)
	}
	return user, nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// HandleLogout clears the session. A server failure is a warning; only a
// storage cleanup failure makes the command fail.
func HandleLogout(ctx context.Context, env *Env, a *app.App, args Args) error {
	wasAuthenticated := a.Session.IsAuthenticated()
	res := a.Session.Logout(ctx)

	data := LogoutData{
		RemoteSkipped:     res.RemoteSkipped,
		RemoteInvalidated: !res.RemoteSkipped && res.RemoteErr == nil,
	}
	if res.RemoteErr != nil {
		data.RemoteError = res.RemoteErr.Error()
	}

	var err error
	if res.CleanupErr != nil {
		data.CleanupError = res.CleanupErr.Error()
		err = fmt.Errorf("logged out in memory but stored credentials remain: %w", res.CleanupErr)
	}

	if args.JSON {
		return emit(env, "logout", data, err)
	}

	if res.RemoteErr != nil {
		fmt.Fprintln(env.Stderr, WarningStyle.Render("Warning: the server did not confirm logout: "+res.RemoteErr.Error()))
	}
	if err != nil {
		return err
	}
	if !wasAuthenticated {
		fmt.Fprintln(env.Stdout, DimStyle.Render("No active session."))
		return nil
	}
	fmt.Fprintf(env.Stdout, "%s Logged out\n", SuccessStyle.Render("✓"))
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// HandleStatus prints the session, storage and server details.
func HandleStatus(env *Env, a *app.App, args Args) error {
	data := sessionData(a, true)
	if args.JSON {
		return emit(env, "status", data, nil)
	}

	w := env.Stdout
	fmt.Fprintln(w, TitleStyle.Render("newsdesk session"))
	printSection(w, "Session")
	if !data.Authenticated {
		printField(w, "Status", "not logged in")
		fmt.Fprintln(w, DimStyle.Render("  Run 'newsdesk login' or press l in the UI."))
	} else {
		printField(w, "Status", "logged in")
		printField(w, "User", data.DisplayName)
		printField(w, "Token", data.TokenFingerprint)
		if data.Token != nil {
			printToken(w, *data.Token, env.now())
		} else {
			printField(w, "Token type", "opaque")
		}
		printField(w, "Refresh token", yesNo(data.HasRefreshToken))
	}

	printSection(w, "Storage")
	printField(w, "Backend", data.Storage.Backend)
	if data.Storage.Path != "" {
		printField(w, "Path", data.Storage.Path)
	}
	printField(w, "Encrypted", yesNo(data.Storage.Encrypted))

	printSection(w, "Server")
	if data.API.Offline {
		printField(w, "Mode", "offline")
	} else {
		printField(w, "Logout URL", data.API.LogoutURL)
	}
	return nil
}

func printToken(w io.Writer, info session.TokenInfo, now time.Time) {
	printField(w, "Token type", "JWT")
	if info.Subject != "" {
		printField(w, "Subject", info.Subject)
	}
	if info.Issuer != "" {
		printField(w, "Issuer", info.Issuer)
	}
	if !info.ExpiresAt.IsZero() {
		exp := info.ExpiresAt.Local().Format(time.RFC3339)
		if info.Expired(now) {
			exp = WarningStyle.Render(exp + " (expired)")
		}
		printField(w, "Expires", exp)
	}
}

// sessionData snapshots the session. SECURITY: tokens appear only as
// fingerprints.
func sessionData(a *app.App, withEnvironment bool) *SessionData {
	st := a.Session.Snapshot()
	data := &SessionData{
		Authenticated:    st.Authenticated,
		User:             st.User,
		TokenFingerprint: logging.Fingerprint(st.AccessToken),
		HasRefreshToken:  st.RefreshToken != "",
	}
	if st.Authenticated {
		data.DisplayName = st.User.DisplayName()
		if data.DisplayName == "" {
			data.DisplayName = "(no profile)"
		}
		if info := session.DescribeToken(st.AccessToken); info.IsJWT {
			data.Token = &info
		}
	}
	if !withEnvironment {
		return data
	}

	path := kv.WatchPath(a.KV)
	backend := a.Config.Storage.Backend
	if path == "" {
		backend = kv.BackendMemory
	}
	_, encrypted := a.KV.(*kv.EncryptedStore)
	data.Storage = &StorageData{Backend: backend, Path: path, Encrypted: encrypted}

	data.API = &APIData{Offline: a.API == nil}
	if a.API != nil {
		data.API.LogoutURL = a.API.LogoutURL()
	}
	return data
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
