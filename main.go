// newsdesk - terminal client for the news service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/choihjin/news-front-project/internal/app"
	"github.com/choihjin/news-front-project/internal/cli"
	"github.com/choihjin/news-front-project/internal/ui/desk"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run dispatches one command and returns the exit code.
func run(ctx context.Context, argv []string) int {
	cmd, args := cli.Parse(argv)
	env := cli.DefaultEnv()

	// Commands that need no session storage.
	switch cmd {
	case cli.CmdHelp:
		return exitCode(cli.HandleHelp(env, args), 2)
	case cli.CmdVersion:
		return exitCode(cli.HandleVersion(env, args), 1)
	case cli.CmdConfig:
		return exitCode(cli.HandleConfig(env, args), 1)
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return exitCode(err, 1)
	}

	// The UI owns stdout, so it logs to a file; commands log to stderr.
	opts := app.Options{LogWriter: os.Stderr}
	if cmd == cli.CmdTUI {
		opts = app.Options{LogToFile: true}
	}
	a, err := cli.OpenApp(env, args, cfg, opts)
	if err != nil {
		return exitCode(err, 1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()

	switch cmd {
	case cli.CmdTUI:
		if err := cli.RequiresTTY("start the terminal UI"); err != nil {
			return exitCode(err, 1)
		}
		return exitCode(desk.Run(ctx, a), 1)
	case cli.CmdLogin:
		return exitCode(cli.HandleLogin(env, a, args), 1)
	case cli.CmdLogout:
		return exitCode(cli.HandleLogout(ctx, env, a, args), 1)
	case cli.CmdStatus:
		return exitCode(cli.HandleStatus(env, a, args), 1)
	case cli.CmdRoute:
		return exitCode(cli.HandleRoute(env, a, args), 1)
	}
	return 0
}

func exitCode(err error, code int) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return code
}
