// Package report renders a learner's progress as Markdown and PDF.
package report

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/mandolyte/mdtopdf"

	"github.com/at-ishikawa/wordday/internal/progress"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

const templateName = "report.md.go.tmpl"

//go:embed templates/report.md.go.tmpl
var fallbackTemplate string

// Data is what the report template renders.
type Data struct {
	Name        string
	GeneratedAt time.Time
	Progress    progress.Progress
	State       progress.State
	Remaining   time.Duration
	Stats       progress.Stats
	Words       []vocabulary.Entry
	Failures    []progress.Failure
}

// NewData collects the report of p at now. A day missing from the plan has no
// words.
func NewData(name string, table vocabulary.Table, plan vocabulary.Plan, p progress.Progress, now time.Time) (Data, error) {
	words, err := plan.Words(table, p.Day)
	if err != nil && !errors.Is(err, vocabulary.ErrDayNotPlanned) {
		return Data{}, fmt.Errorf("words for day %d: %w", p.Day, err)
	}
	return Data{
		Name:        name,
		GeneratedAt: now,
		Progress:    p,
		State:       progress.StateOf(p, now),
		Remaining:   progress.Remaining(p, now),
		Stats:       progress.StatsOf(plan, p),
		Words:       words,
		Failures:    progress.Failures(p.History),
	}, nil
}

var funcMap = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("Jan 02 2006 15:04 MST")
	},
	"duration": func(d time.Duration) string {
		return d.Truncate(time.Minute).String()
	},
	"percent": func(ratio float64) string {
		return fmt.Sprintf("%.1f%%", ratio*100)
	},
}

// ParseTemplate parses the template at templatePath, or the built-in one when
// the path is empty or cannot be parsed.
func ParseTemplate(templatePath string) (*template.Template, error) {
	if templatePath != "" {
		tmpl, err := template.New(filepath.Base(templatePath)).
			Funcs(funcMap).
			ParseFiles(templatePath)
		if err == nil {
			return tmpl, nil
		}
		slog.Default().Warn("failed to parse the report template, using the built-in one",
			slog.String("templatePath", templatePath),
			slog.Any("error", err),
		)
	}

	tmpl, err := template.New(templateName).Funcs(funcMap).Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// Markdown renders data with tmpl.
func Markdown(w io.Writer, tmpl *template.Template, data Data) error {
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

// WriteMarkdown renders data into the file at path.
func WriteMarkdown(path string, tmpl *template.Template, data Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	if err := Markdown(f, tmpl, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WritePDF converts a Markdown file to a PDF next to it and returns the PDF path.
func WritePDF(markdownPath string) (string, error) {
	if !strings.HasSuffix(markdownPath, ".md") {
		return "", fmt.Errorf("input file must have .md extension: %s", markdownPath)
	}

	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	pdfPath := strings.TrimSuffix(markdownPath, ".md") + ".pdf"
	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(content); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}
	return absPath, nil
}
