// route_cmd.go - Resolve paths against the route table.
//
// Command: route <path> | route --list
//
// Examples:
//
//	newsdesk route /news/42
//	newsdesk route /dashboard --json
//	newsdesk route --list
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/choihjin/news-front-project/internal/app"
)

// HandleRoute resolves one path with the current session, or lists the table.
func HandleRoute(env *Env, a *app.App, args Args) error {
	p := args.Parser
	if p.BoolFlag("list") || p.Subcommand() == "list" {
		return listRoutes(env, a, args)
	}

	input := p.Subcommand()
	if input == "" {
		err := errors.New("usage: newsdesk route <path>")
		if args.JSON {
			return emit(env, "route", nil, err)
		}
		return err
	}

	res := a.Routes.Resolve(input, a.Session)
	data := RouteData{
		Input:      input,
		Path:       res.Path,
		Route:      res.Route.Name,
		Params:     res.Params,
		Allowed:    res.Allowed,
		RedirectTo: res.RedirectTo,
	}
	if args.JSON {
		return emit(env, "route", data, nil)
	}

	w := env.Stdout
	printField(w, "Path", data.Path)
	printField(w, "Route", data.Route)
	if len(data.Params) > 0 {
		keys := make([]string, 0, len(data.Params))
		for k := range data.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + data.Params[k]
		}
		printField(w, "Params", strings.Join(pairs, " "))
	}
	if data.Allowed {
		printField(w, "Access", SuccessStyle.Render("allowed"))
	} else {
		printField(w, "Access", ErrorStyle.Render("login required")+DimStyle.Render(" -> "+data.RedirectTo))
	}
	return nil
}

func listRoutes(env *Env, a *app.App, args Args) error {
	routes := a.Routes.Routes()
	entries := make([]RouteEntry, len(routes))
	for i, r := range routes {
		entries[i] = RouteEntry{Name: r.Name, Path: r.Path, Redirect: r.Redirect, RequiresAuth: r.RequiresAuth}
	}
	if args.JSON {
		return emit(env, "route", entries, nil)
	}

	for _, e := range entries {
		target := e.Name
		if e.Redirect != "" {
			target = "-> " + e.Redirect
		}
		line := fmt.Sprintf("  %s%s", LabelStyle.Render(e.Path), ValueStyle.Render(target))
		if e.RequiresAuth {
			line += DimStyle.Render(" (login required)")
		}
		fmt.Fprintln(env.Stdout, line)
	}
	return nil
}
