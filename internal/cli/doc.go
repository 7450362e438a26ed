// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the newsdesk command line.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Global flags plus the command's own ArgParser
//   - Env: Streams and prompts a command uses, swappable in tests
//   - JSONResponse: Envelope printed by every command in --json mode
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	env := cli.DefaultEnv()
//	switch cmd {
//	case cli.CmdConfig:
//	    err = cli.HandleConfig(env, args)
//	case cli.CmdStatus:
//	    err = cli.HandleStatus(env, a, args)
//	}
//
// All commands accept --json.
package cli
