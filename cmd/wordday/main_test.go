package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		wantDebug bool
	}{
		{
			name:      "debug mode enabled",
			debugMode: true,
			wantDebug: true,
		},
		{
			name:      "debug mode disabled",
			debugMode: false,
			wantDebug: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupLogger(tt.debugMode)
			logger := slog.Default()
			assert.NotNil(t, logger)
			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestNewRootCommand(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "wordday", root.Use)

	for _, path := range [][]string{
		{"status"},
		{"words"},
		{"challenge"},
		{"complete"},
		{"attempt"},
		{"history"},
		{"name"},
		{"signup"},
		{"signin"},
		{"signout"},
		{"reset-password"},
		{"verify"},
		{"report"},
		{"vocab", "import"},
		{"migrate"},
		{"sync", "push"},
		{"sync", "pull"},
	} {
		command, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.NotNil(t, command.RunE, path)
	}
}

func TestNewSignInCommand_RequiresCredentials(t *testing.T) {
	command := newSignInCommand()
	for _, name := range []string{"email", "password"} {
		flag := command.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"], name)
	}
}

func TestNewVocabImportCommand_Defaults(t *testing.T) {
	command := newVocabImportCommand()
	assert.Equal(t, "Sheet1", command.Flag("sheet").DefValue)
	assert.Equal(t, "A", command.Flag("word-column").DefValue)
	assert.Equal(t, "B", command.Flag("definition-column").DefValue)
	assert.Equal(t, "2", command.Flag("words-per-day").DefValue)
}

func TestColumn_Set(t *testing.T) {
	tests := []struct {
		value   string
		want    column
		wantErr bool
	}{
		{value: "a", want: "A"},
		{value: "AB", want: "AB"},
		{value: "", want: ""},
		{value: "1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var c column
			err := c.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}
