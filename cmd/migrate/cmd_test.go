package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	content := fmt.Sprintf(`
databaseResources:
  main:
    driver: sqlite
    sqlite:
      dsn: "file:%s"
migration:
  dbLabel: main
  table: schema_history
  baseline: 0
  verbose: true
`, filepath.Join(dir, "versi.db"))

	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runAction(t *testing.T, action Action, args ...string) (int, string) {
	t.Helper()

	factory := NewCmd(action)
	command, err := factory()
	require.NoError(t, err)

	cmd, ok := command.(*Cmd)
	require.True(t, ok)

	out := &bytes.Buffer{}
	cmd.out = out
	return cmd.Run(args), out.String()
}

func TestNewCmd(t *testing.T) {
	t.Run("unknown action", func(t *testing.T) {
		command, err := NewCmd("down")()
		assert.Error(t, err)
		assert.Nil(t, command)
	})

	t.Run("help", func(t *testing.T) {
		command, err := NewCmd(ActionBootstrap)()
		require.NoError(t, err)
		assert.Contains(t, command.Help(), "-baseline")
		assert.Equal(t, synopsis[ActionBootstrap], command.Synopsis())
	})
}

func TestCmd_Run(t *testing.T) {
	configFile := writeConfig(t)

	code, _ := runAction(t, ActionStatus, "-config", configFile)
	assert.Equal(t, ExitErr, code, "status before bootstrap")

	code, _ = runAction(t, ActionBootstrap, "-c", configFile)
	require.Equal(t, ExitSuccess, code)

	code, _ = runAction(t, ActionBootstrap, "-c", configFile)
	assert.Equal(t, ExitErr, code, "second bootstrap")

	code, out := runAction(t, ActionStatus, "-c", configFile)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "current version: 0")
	assert.Contains(t, out, "pending")

	code, out = runAction(t, ActionUp, "-c", configFile)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "applied 1\napplied 2\napplied 3\napplied 4\n", out)

	code, out = runAction(t, ActionUp, "-c", configFile)
	require.Equal(t, ExitSuccess, code)
	assert.Empty(t, out)

	code, out = runAction(t, ActionCurrent, "-c", configFile)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "4\n", out)

	code, out = runAction(t, ActionVerify, "-c", configFile)
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, out)
}

func TestCmd_Run_Errors(t *testing.T) {
	t.Run("bad flag", func(t *testing.T) {
		code, _ := runAction(t, ActionUp, "-unknown")
		assert.Equal(t, ExitErr, code)
	})

	t.Run("missing config", func(t *testing.T) {
		code, _ := runAction(t, ActionUp, "-c", filepath.Join(t.TempDir(), "nope.yml"))
		assert.Equal(t, ExitErr, code)
	})

	t.Run("baseline override", func(t *testing.T) {
		configFile := writeConfig(t)

		code, _ := runAction(t, ActionBootstrap, "-c", configFile, "-baseline", "4")
		require.Equal(t, ExitSuccess, code)

		code, out := runAction(t, ActionCurrent, "-c", configFile)
		require.Equal(t, ExitSuccess, code)
		assert.Equal(t, "4\n", out)

		// versions up to the baseline are never applied
		code, out = runAction(t, ActionUp, "-c", configFile)
		require.Equal(t, ExitSuccess, code)
		assert.Empty(t, out)
	})

	t.Run("failing migration", func(t *testing.T) {
		configFile := writeConfig(t)

		code, _ := runAction(t, ActionBootstrap, "-c", configFile, "-baseline", "3")
		require.Equal(t, ExitSuccess, code)

		// the seed of version 4 needs the apps table of version 1
		code, out := runAction(t, ActionUp, "-c", configFile)
		assert.Equal(t, ExitErr, code)
		assert.Empty(t, out)

		code, out = runAction(t, ActionCurrent, "-c", configFile)
		require.Equal(t, ExitSuccess, code)
		assert.Equal(t, "3\n", out)
	})
}
