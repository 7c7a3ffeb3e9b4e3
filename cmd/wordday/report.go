package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/wordday/internal/report"
	"github.com/at-ishikawa/wordday/internal/session"
)

func newReportCommand() *cobra.Command {
	var outputPath, templatePath string
	var pdf bool
	command := &cobra.Command{
		Use:   "report",
		Short: "Write a Markdown report of the progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime, sess *session.Session) error {
				p := snapshot(ctx, rt, sess)
				data, err := report.NewData(rt.displayName(ctx, sess), rt.app.Table, rt.app.Plan, p, time.Now())
				if err != nil {
					return fmt.Errorf("report.NewData() > %w", err)
				}
				tmpl, err := report.ParseTemplate(templatePath)
				if err != nil {
					return err
				}
				if err := report.WriteMarkdown(outputPath, tmpl, data); err != nil {
					return err
				}
				rt.printer.Success("Wrote %s", outputPath)

				if !pdf {
					return nil
				}
				pdfPath, err := report.WritePDF(outputPath)
				if err != nil {
					return err
				}
				rt.printer.Success("Wrote %s", pdfPath)
				return nil
			})
		},
	}
	command.Flags().StringVarP(&outputPath, "output", "o", "wordday-report.md", "Markdown file to write")
	command.Flags().StringVar(&templatePath, "template", "", "custom report template")
	command.Flags().BoolVar(&pdf, "pdf", false, "also convert the report to PDF")
	return command
}
