package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/storage"
)

func writeLocalConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, name := range []string{"WORDDAY_STORAGE_BACKEND", "SUPABASE_URL", "VITE_SUPABASE_URL", "SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}

	localFile := filepath.Join(dir, "local.yml")
	configPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(`storage:
  backend: none
  local_file: `+localFile+`
  session_file: `+filepath.Join(dir, "session.yml")+`
`), 0o644))
	return configPath, localFile
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestCommands_LocalProgress(t *testing.T) {
	configPath, localFile := writeLocalConfig(t)

	require.NoError(t, execute(t, "--config", configPath, "attempt"))
	require.NoError(t, execute(t, "--config", configPath, "complete"))
	require.NoError(t, execute(t, "--config", configPath, "name", "Mika"))
	require.NoError(t, execute(t, "--config", configPath, "status"))

	store := storage.NewStore(nil, storage.NewYAMLLocalStore(localFile), nil)
	got, err := store.LoadProgress(context.Background(), storage.LocalUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Day)
	assert.Equal(t, 1, got.Attempts)
	assert.NotNil(t, got.Datetime)
	assert.Equal(t, progress.StateActive, progress.StateOf(got, *got.Datetime))

	name, err := store.LoadUsername(context.Background(), storage.LocalUserID)
	require.NoError(t, err)
	assert.Equal(t, "Mika", name)
}

func TestCommands_Report(t *testing.T) {
	configPath, _ := writeLocalConfig(t)
	output := filepath.Join(t.TempDir(), "report.md")

	require.NoError(t, execute(t, "--config", configPath, "report", "--output", output))
	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Learner")
}

func TestCommands_WithoutBackend(t *testing.T) {
	configPath, _ := writeLocalConfig(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "sign in",
			args:    []string{"signin", "--email", "mika@example.com", "--password", "secret"},
			wantErr: "Authentication is not configured",
		},
		{
			name:    "sync push",
			args:    []string{"sync", "push"},
			wantErr: "no storage backend is configured",
		},
		{
			name:    "migrate",
			args:    []string{"migrate"},
			wantErr: "storage.backend is not database",
		},
		{
			name:    "verify",
			args:    []string{"verify"},
			wantErr: "not signed in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, append([]string{"--config", configPath}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
