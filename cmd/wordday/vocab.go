package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/at-ishikawa/wordday/internal/cli"
	"github.com/at-ishikawa/wordday/internal/vocabulary"
)

// column is a spreadsheet column name such as "A" or "AB".
type column string

func (c *column) Set(value string) error {
	if value == "" {
		*c = ""
		return nil
	}
	value = strings.ToUpper(value)
	if _, err := excelize.ColumnNameToNumber(value); err != nil {
		return err
	}
	*c = column(value)
	return nil
}

func (c column) String() string {
	return string(c)
}

func (c *column) Type() string {
	return "column"
}

var _ pflag.Value = (*column)(nil)

func newVocabCommand() *cobra.Command {
	vocabCommand := &cobra.Command{
		Use:   "vocab",
		Short: "Vocabulary commands",
	}
	vocabCommand.AddCommand(newVocabImportCommand())
	return vocabCommand
}

func newVocabImportCommand() *cobra.Command {
	importConfig := vocabulary.DefaultImportConfig()
	var outputDir string
	var wordsPerDay int
	var header bool
	wordColumn := column(importConfig.WordColumn)
	definitionColumn := column(importConfig.DefinitionColumn)

	command := &cobra.Command{
		Use:   "import FILE",
		Short: "Build a vocabulary table and a day plan from an xlsx sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importConfig.SkipHeader = header
			importConfig.WordColumn = wordColumn.String()
			importConfig.DefinitionColumn = definitionColumn.String()
			table, err := vocabulary.ImportSpreadsheet(args[0], importConfig)
			if err != nil {
				return fmt.Errorf("vocabulary.ImportSpreadsheet(%s) > %w", args[0], err)
			}
			plan, err := vocabulary.BuildPlan(table, wordsPerDay)
			if err != nil {
				return err
			}

			tablePath := filepath.Join(outputDir, "vocabulary.yml")
			if err := vocabulary.WriteTable(tablePath, table); err != nil {
				return err
			}
			planPath := filepath.Join(outputDir, "plan.yml")
			if err := vocabulary.WritePlan(planPath, plan); err != nil {
				return err
			}

			printer := cli.NewPrinter(os.Stdout)
			printer.Success("Imported %d words over %d days", len(table), plan.Days())
			printer.Success("Set content.vocabulary_file to %s and content.plan_file to %s", tablePath, planPath)
			return nil
		},
	}
	command.Flags().StringVar(&importConfig.SheetName, "sheet", importConfig.SheetName, "sheet name")
	command.Flags().Var(&wordColumn, "word-column", "column of the words")
	command.Flags().Var(&definitionColumn, "definition-column", "column of the definitions, empty for none")
	command.Flags().BoolVar(&header, "header", importConfig.SkipHeader, "the first row is a header")
	command.Flags().IntVar(&wordsPerDay, "words-per-day", 2, "words planned for each day")
	command.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory to write vocabulary.yml and plan.yml")
	return command
}
