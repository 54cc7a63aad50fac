package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "notifier", cmd.Use)
	assert.Contains(t, cmd.Long, "exactly once")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{{"run"}, {"cycle"}, {"stats"}, {"sweep"}, {"migrate"}, {"templates", "sync"}}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	migrateFlag := runCmd.Flags().Lookup("migrate")
	require.NotNil(t, migrateFlag)
	assert.Equal(t, "false", migrateFlag.DefValue)
}

func TestTemplatesSyncFlags(t *testing.T) {
	cmd := NewRootCommand()
	syncCmd, _, err := cmd.Find([]string{"templates", "sync"})
	require.NoError(t, err)

	fileFlag := syncCmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag)
	assert.Equal(t, "f", fileFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"cycle", "--format", "xml"})

	err := cmd.Execute()

	assert.ErrorContains(t, err, `invalid format "xml"`)
}
