package cmd

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var tablesFormat string

var tablesCmd = &cobra.Command{
	Use:   "tables <database>",
	Short: "List the tables of a database",
	Long: `Tables lists every table in the order sheets would be written,
with its column count and the tables it references through foreign keys.

Example:
  db2xlsx tables shop.db`,
	Args: cobra.ExactArgs(1),
	RunE: runTables,
}

func init() {
	tablesCmd.Flags().StringVar(&tablesFormat, "format", formatText,
		"Output format (text, yaml, json)")

	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	if err := checkFormat(tablesFormat); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, conv, err := newConverter(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signalContext(cmd, log)
	defer stop()

	infos, err := conv.Tables(ctx, args[0])
	if err != nil {
		return err
	}

	switch tablesFormat {
	case formatYAML:
		return writeYAML(outputWriter, infos)
	case formatJSON:
		return writeJSON(outputWriter, infos)
	}

	t := newTable()
	t.AppendHeader(table.Row{"Table", "Columns", "References"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.Name, info.Columns, strings.Join(info.References, ", ")})
	}
	t.Render()
	return nil
}
