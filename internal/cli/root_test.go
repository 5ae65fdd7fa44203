package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/testutil"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "userstats", cmd.Use)
	assert.Contains(t, cmd.Long, "UserStats")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"derive", "create", "rename", "fetch", "test", "validate"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"backend", "db", "program"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue, "%s defaults to the environment", name)
	}
}

func TestWriteCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"create", "rename"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, sub.Flags().Lookup("address"), name)
	}

	fetch, _, err := cmd.Find([]string{"fetch"})
	require.NoError(t, err)
	assert.NotNil(t, fetch.Flags().Lookup("owner"))
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "derive", "x"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("json"))
	assert.True(t, isValidFormat("text"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}

func TestVersionFlag(t *testing.T) {
	r := execute(t, "--version")
	require.NoError(t, r.err)
	assert.Equal(t, "userstats version "+ir.EngineVersion+"\n", r.stdout)
}

func TestCommandsLeaveDefaultLoggerAlone(t *testing.T) {
	isolateEnv(t)
	before := slog.Default()

	r := execute(t, "-v", "--backend", "memory", "create", testutil.Identity("brian").String(), "brian")
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "level=DEBUG")
	assert.Same(t, before, slog.Default())
}
