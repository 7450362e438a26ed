// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgParser_Forms(t *testing.T) {
	p := NewArgParser([]string{"get", "--token", "abc", "--user={\"id\":1}", "-f", "x", "extra"})

	assert.Equal(t, "get", p.Subcommand())
	assert.Equal(t, "abc", p.Flag("token"))
	assert.Equal(t, `{"id":1}`, p.Flag("--user"))
	assert.Equal(t, "x", p.Flag("f"))
	assert.Equal(t, []string{"get", "extra"}, p.PositionalFrom(0))
	assert.Equal(t, 2, p.PositionalCount())
}

func TestArgParser_KnownBoolDoesNotConsume(t *testing.T) {
	p := NewArgParser([]string{"--force", "init"}, "force")
	assert.True(t, p.BoolFlag("force"))
	assert.Equal(t, "init", p.Subcommand())

	// Without the hint the value is consumed.
	p = NewArgParser([]string{"--force", "init"})
	assert.False(t, p.BoolFlag("force"))
	assert.Equal(t, "init", p.Flag("force"))
}

func TestArgParser_BoolWithValue(t *testing.T) {
	p := NewArgParser([]string{"--force=no", "--list=yes"}, "force", "list")
	assert.False(t, p.BoolFlag("force"))
	assert.True(t, p.BoolFlag("list"))
	assert.True(t, p.HasFlag("force"))
}

func TestArgParser_DoubleDash(t *testing.T) {
	p := NewArgParser([]string{"--", "--not-a-flag", "-x"})
	assert.Equal(t, "--not-a-flag", p.Subcommand())
	assert.Equal(t, "-x", p.Positional(1))
	assert.False(t, p.HasFlag("not-a-flag"))
}

func TestArgParser_Defaults(t *testing.T) {
	p := NewArgParser(nil)
	assert.Equal(t, "", p.Subcommand())
	assert.Equal(t, "", p.Positional(3))
	assert.Empty(t, p.PositionalFrom(1))
	assert.Equal(t, "fallback", p.FlagOrDefault("missing", "fallback"))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"true", "YES", " y ", "1", "on"} {
		v, err := ParseBoolString(s)
		assert.NoError(t, err, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"false", "No", "n", "0", "off"} {
		v, err := ParseBoolString(s)
		assert.NoError(t, err, s)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}
