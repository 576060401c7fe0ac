package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dixieflatline76/Canvaz/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilitiesFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("XDG_CURRENT_DESKTOP", "GNOME")
	t.Setenv("DISPLAY", ":0")
	t.Cleanup(func() { displayFlag, desktopFlag = "", "" })

	caps := capabilities()
	assert.Equal(t, "GNOME", caps.DesktopID)
	assert.Equal(t, ":0", caps.Display)

	displayFlag, desktopFlag = ":5", "XFCE"
	caps = capabilities()
	assert.Equal(t, "XFCE", caps.DesktopID)
	assert.Equal(t, ":5", caps.Display)
	assert.False(t, caps.UsesScript())
}

func TestApplyLock(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	lock, err := acquireLock()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(os.TempDir(), config.LockName))
	assert.NoError(t, err)

	lock.release()
	lock.release()

	again, err := acquireLock()
	require.NoError(t, err)
	again.release()
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"scan", "apply", "restore", "download", "dirs", "monitors"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	for _, name := range []string{"list", "add", "remove"} {
		cmd, _, err := rootCmd.Find([]string{"dirs", name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
