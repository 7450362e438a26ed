// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/choihjin/news-front-project/internal/app"
	"github.com/choihjin/news-front-project/internal/config"
)

// Version information (set at build time via -ldflags).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies what main should run.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdStatus
	CmdRoute
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[string]Command{
	"tui":     CmdTUI,
	"login":   CmdLogin,
	"logout":  CmdLogout,
	"status":  CmdStatus,
	"whoami":  CmdStatus,
	"route":   CmdRoute,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// String returns the canonical command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdLogin:
		return "login"
	case CmdLogout:
		return "logout"
	case CmdStatus:
		return "status"
	case CmdRoute:
		return "route"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds global flags and the command's own arguments.
type Args struct {
	// Global flags
	JSON       bool
	Verbose    bool
	Offline    bool
	Ephemeral  bool
	ConfigPath string

	// Unknown is set when the first positional did not name a command.
	Unknown string

	// Parser holds everything after the command name.
	Parser *ArgParser
}

// commandBoolFlags lists per-command flags that never take a value.
var commandBoolFlags = []string{"force", "token-stdin", "list"}

// Parse splits argv (without the program name) into a command and its args.
// Global flags may appear anywhere.
func Parse(argv []string) (Command, Args) {
	var (
		args    Args
		rest    []string
		name    string
		help    bool
		version bool
	)

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--json":
			args.JSON = true
		case arg == "--verbose" || arg == "-v":
			args.Verbose = true
		case arg == "--offline":
			args.Offline = true
		case arg == "--ephemeral":
			args.Ephemeral = true
		case arg == "--config" && i+1 < len(argv):
			args.ConfigPath = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--help" || arg == "-h":
			help = true
		case arg == "--version" || arg == "-V":
			version = true
		case arg == "--":
			rest = append(rest, argv[i:]...)
			i = len(argv)
		case name == "" && !strings.HasPrefix(arg, "-"):
			name = arg
		default:
			rest = append(rest, arg)
		}
	}

	args.Parser = NewArgParser(rest, commandBoolFlags...)

	switch {
	case version:
		return CmdVersion, args
	case help:
		return CmdHelp, args
	case name == "":
		return CmdTUI, args
	}

	cmd, ok := commandNames[strings.ToLower(name)]
	if !ok {
		args.Unknown = name
		return CmdHelp, args
	}
	return cmd, args
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env carries the streams a command reads and writes.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ReadSecret prompts for input without echo. Nil means no terminal.
	ReadSecret func(prompt string) (string, error)

	// Getenv looks up environment variables; defaults to os.Getenv.
	Getenv func(string) string

	Now func() time.Time
}

// DefaultEnv wires the process streams.
func DefaultEnv() *Env {
	return &Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		ReadSecret: func(prompt string) (string, error) {
			return ReadSecretFromTerminal(os.Stderr, prompt)
		},
		Getenv: os.Getenv,
		Now:    time.Now,
	}
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Env) getenv(key string) string {
	if e.Getenv == nil {
		return os.Getenv(key)
	}
	return e.Getenv(key)
}

// LoadConfig loads configuration honoring --config and --offline.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if args.Offline {
		cfg.API.Offline = true
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// OpenApp builds the component graph, prompting for the storage passphrase
// when encryption is on and none was supplied.
func OpenApp(env *Env, args Args, cfg *config.Config, opts app.Options) (*app.App, error) {
	opts.Ephemeral = opts.Ephemeral || args.Ephemeral

	if cfg.Storage.NeedsPassphrase() && !opts.Ephemeral {
		if env.ReadSecret == nil {
			return nil, app.ErrPassphraseRequired
		}
		pass, err := env.ReadSecret("Storage passphrase: ")
		if err != nil {
			return nil, err
		}
		if pass == "" {
			return nil, app.ErrPassphraseRequired
		}
		cfg.Storage.Passphrase = pass
	}
	return app.New(cfg, opts)
}

// =============================================================================
// HELP / VERSION
// =============================================================================

const usageText = `newsdesk - terminal client for the news service

Usage:
  newsdesk [global flags] [command] [args]

Commands:
  (none), tui             Start the interactive terminal UI
  login                   Store a session from an access token
  logout                  Invalidate the refresh token and clear the session
  status, whoami          Show the current session
  route <path>            Resolve a path against the route table
  route --list            List the route table
  config [show]           Print the effective configuration
  config path             Print the config file location
  config init [--force]   Write a default config file
  config get <key>        Print one setting (e.g. api.base_url)
  config keys             List readable settings
  version                 Print version information
  help                    Show this help

Login flags:
  --token <t>             Access token (or NEWSDESK_TOKEN, or prompt)
  --token-stdin           Read the access token from stdin
  --refresh <t>           Refresh token sent on logout
  --user <json>           User profile as a JSON object
  --username <name>       Shorthand for --user '{"username":"<name>"}'

Global flags:
  --json                  Machine-readable output
  --config <path>         Use a specific config file
  --offline               Never contact the server
  --ephemeral             Keep the session in memory only
  -v, --verbose           Debug logging
  -h, --help              Show this help
  -V, --version           Print version information

Environment:
  NEWSDESK_HOME                 Data directory (default ~/.newsdesk)
  NEWSDESK_API_URL              Backend base URL
  NEWSDESK_STORAGE_PASSPHRASE   Passphrase for encrypted storage
`

// ShowHelp prints the usage text.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// HandleHelp prints usage. An unknown command is reported as an error after
// the usage text.
func HandleHelp(env *Env, args Args) error {
	ShowHelp(env.Stdout)
	if args.Unknown != "" {
		return fmt.Errorf("unknown command %q", args.Unknown)
	}
	return nil
}

// HandleVersion prints build information.
func HandleVersion(env *Env, args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if args.JSON {
		return NewJSONResponse("version", data).Print(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "newsdesk %s (%s, built %s, %s)\n",
		data.Version, data.GitCommit, data.BuildDate, data.GoVersion)
	return nil
}
