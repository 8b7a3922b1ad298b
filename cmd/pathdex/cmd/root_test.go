package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"init", "daemon", "search", "status", "stop", "token", "version"}
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "pathdex version")
}

func TestSearchCmd_RequiresPattern(t *testing.T) {
	_, err := execute(t, "search")
	assert.Error(t, err)
}

func TestTokenPathCmd_RequiresUser(t *testing.T) {
	_, err := execute(t, "token", "path")
	assert.Error(t, err)
}
