package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

var (
	testTable = vocabulary.Table{
		{Word: "apple", Index: 0, Definition: "a round fruit"},
		{Word: "brave", Index: 1},
		{Word: "cloud", Index: 2},
	}
	testPlan = vocabulary.Plan{1: {0}, 2: {1, 2}}
)

func TestNewData(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	datetime := now.Add(-2 * time.Hour)

	tests := []struct {
		name      string
		progress  progress.Progress
		wantWords []string
		wantErr   bool
	}{
		{
			name:      "active day",
			progress:  progress.Progress{Day: 2, Datetime: &datetime, Attempts: 3, History: map[string]int{}},
			wantWords: []string{"brave", "cloud"},
		},
		{
			name:     "day past the end of the plan",
			progress: progress.Progress{Day: 5, Datetime: &datetime, History: map[string]int{}},
		},
		{
			name:     "plan refers to a missing word",
			progress: progress.Progress{Day: 3, History: map[string]int{}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := vocabulary.Plan{1: {0}, 2: {1, 2}, 3: {9}}
			got, err := NewData("Mia", testTable, plan, tt.progress, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var words []string
			for _, entry := range got.Words {
				words = append(words, entry.Word)
			}
			assert.Equal(t, tt.wantWords, words)
			assert.Equal(t, progress.StateActive, got.State)
		})
	}
}

func TestMarkdown(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	datetime := now.Add(-2 * time.Hour)
	p := progress.Progress{
		Day:      2,
		Datetime: &datetime,
		Attempts: 2,
		History:  map[string]int{"Mar 09 2025": 4, "Feb 28 2025": 2},
	}
	data, err := NewData("Mia", testTable, testPlan, p, now)
	require.NoError(t, err)
	tmpl, err := ParseTemplate("")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, tmpl, data))
	got := buf.String()

	assert.Contains(t, got, "# Mia's progress")
	assert.Contains(t, got, "- Challenge: active (22h0m0s left)")
	assert.Contains(t, got, "| 1 | 2 (0% to next) | 1 | 50.0% |")
	assert.Contains(t, got, "- **brave**\n- **cloud**\n")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Feb 28 2025")), bytes.Index(buf.Bytes(), []byte("Mar 09 2025")))
}

func TestParseTemplate_CustomFile(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.md.go.tmpl")
	require.NoError(t, os.WriteFile(custom, []byte("{{ .Name }} is on day {{ .Progress.Day }}\n"), 0o644))
	broken := filepath.Join(dir, "broken.md.go.tmpl")
	require.NoError(t, os.WriteFile(broken, []byte("{{ .Name "), 0o644))

	tests := []struct {
		name         string
		templatePath string
		want         string
	}{
		{name: "custom template", templatePath: custom, want: "Mia is on day 1\n"},
		{name: "broken template falls back", templatePath: broken, want: "# Mia's progress"},
		{name: "missing template falls back", templatePath: filepath.Join(dir, "missing.tmpl"), want: "# Mia's progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.templatePath)
			require.NoError(t, err)

			var buf bytes.Buffer
			data := Data{Name: "Mia", Progress: progress.Default()}
			require.NoError(t, Markdown(&buf, tmpl, data))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestWritePDF(t *testing.T) {
	tests := []struct {
		name         string
		markdownPath func(t *testing.T) string
		wantErrMsg   string
	}{
		{
			name:         "invalid extension",
			markdownPath: func(t *testing.T) string { return "report.txt" },
			wantErrMsg:   "input file must have .md extension",
		},
		{
			name:         "file not found",
			markdownPath: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.md") },
			wantErrMsg:   "os.ReadFile",
		},
		{
			name: "successful conversion",
			markdownPath: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "reports", "report.md")
				tmpl, err := ParseTemplate("")
				require.NoError(t, err)
				require.NoError(t, WriteMarkdown(path, tmpl, Data{Name: "Mia", Progress: progress.Default()}))
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfPath, err := WritePDF(tt.markdownPath(t))
			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			_, err = os.Stat(pdfPath)
			assert.NoError(t, err)
			assert.Equal(t, ".pdf", filepath.Ext(pdfPath))
		})
	}
}
