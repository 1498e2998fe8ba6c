package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	text := fmt.Sprintf(`[storage]
type = "file"
dir = %q
slot_key = "test-map"

[log]
folder = %q
level = "debug"
`, filepath.Join(dir, "data"), filepath.Join(dir, "logs"))
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestBootstrapRestoresSavedMap(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)

	a, err := bootstrap(path, true)
	require.NoError(t, err)
	assert.False(t, a.client.Available())
	assert.Equal(t, filepath.Join(dir, "data", ".aetherflow_history"), a.historyFile())

	sessionID, err := a.sessionManager.SessionAdd()
	require.NoError(t, err)
	s, ok := a.sessionManager.SessionGet(sessionID)
	require.True(t, ok)
	m, root, err := s.Orchestrator.NewMap("Plan a garden")
	require.NoError(t, err)
	a.close()

	a, err = bootstrap(path, true)
	require.NoError(t, err)
	defer a.close()

	sessionID, err = a.sessionManager.SessionAdd()
	require.NoError(t, err)
	s, ok = a.sessionManager.SessionGet(sessionID)
	require.True(t, ok)
	restored := s.Store.CurrentMap()
	require.NotNil(t, restored)
	assert.Equal(t, m.ID, restored.ID)
	node, ok := s.Store.Node(root.ID)
	require.True(t, ok)
	assert.Equal(t, "Plan a garden", node.Title)
}

func TestBootstrapRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\ntype = \"tape\"\n"), 0644))

	_, err := bootstrap(path, true)
	assert.ErrorContains(t, err, "unsupported storage type")
}

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"canvas", "serve", "logs"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("offline"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
