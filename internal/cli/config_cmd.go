// config_cmd.go - Inspect and initialize configuration.
//
// Command: config [show|path|init|get|keys]
//
// Examples:
//
//	newsdesk config
//	newsdesk config get api.base_url
//	newsdesk config init --force
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/choihjin/news-front-project/internal/config"
)

// HandleConfig dispatches the config subcommands. It does not need storage,
// so it runs without an App.
func HandleConfig(env *Env, args Args) error {
	p := args.Parser
	switch sub := p.Subcommand(); sub {
	case "", "show":
		return configShow(env, args)
	case "path":
		return configPath(env, args)
	case "init":
		return configInit(env, args)
	case "get":
		return configGet(env, args)
	case "keys":
		return configKeys(env, args)
	default:
		err := fmt.Errorf("unknown config subcommand %q (want show, path, init, get or keys)", sub)
		if args.JSON {
			return emit(env, "config", nil, err)
		}
		return err
	}
}

func configFilePath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.Path()
}

func configShow(env *Env, args Args) error {
	cfg, err := LoadConfig(args)
	if args.JSON {
		return emit(env, "config show", cfg, err)
	}
	if err != nil {
		return err
	}
	return toml.NewEncoder(env.Stdout).Encode(cfg)
}

func configPath(env *Env, args Args) error {
	path, err := configFilePath(args)
	if args.JSON {
		return emit(env, "config path", map[string]string{"path": path}, err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, path)
	return nil
}

func configInit(env *Env, args Args) error {
	path, err := configFilePath(args)
	if err == nil {
		err = writeDefaultConfig(path, args.Parser.BoolFlag("force"))
	}
	if args.JSON {
		return emit(env, "config init", map[string]string{"path": path}, err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "%s Wrote %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}
	return config.Save(config.Default(), path)
}

func configGet(env *Env, args Args) error {
	key := args.Parser.Positional(1)
	if key == "" {
		err := errors.New("usage: newsdesk config get <key>")
		if args.JSON {
			return emit(env, "config get", nil, err)
		}
		return err
	}

	var value any
	cfg, err := LoadConfig(args)
	if err == nil {
		value, err = cfg.Get(key)
	}
	if args.JSON {
		return emit(env, "config get", map[string]any{"key": key, "value": value}, err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, value)
	return nil
}

func configKeys(env *Env, args Args) error {
	keys := config.Keys()
	if args.JSON {
		return emit(env, "config keys", keys, nil)
	}
	for _, k := range keys {
		fmt.Fprintln(env.Stdout, k)
	}
	return nil
}
