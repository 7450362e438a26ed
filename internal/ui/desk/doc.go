// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package desk is the newsdesk terminal UI.

# Screens

One screen per route: headlines (/news), article detail (/news/:id), the
protected dashboard (/dashboard), sign in (/login), register (/register) and
a not-found page for everything else. Navigation always goes through
router.Table.Resolve with the live session, so a denied route lands on the
sign-in screen and the original target opens after sign-in.

# Session updates

Run subscribes the program to the session store. Every change, whether from
this UI, a CLI command in another process (via the storage watcher) or a
logout, arrives as session.ChangedMsg and re-resolves the current route.
Login and Logout run inside tea.Cmd functions, never in Update.

# Usage

	a, _ := app.New(cfg, app.Options{LogToFile: true})
	defer a.Close()
	err := desk.Run(ctx, a)
*/
package desk
