package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gookit/color"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/db2xlsx/internal/converter"
	"github.com/dbsmedya/db2xlsx/internal/graph"
)

// Output formats of the inspection commands.
const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

var (
	planPrimaries []string
	planFormat    string
)

var planCmd = &cobra.Command{
	Use:   "plan <database>",
	Short: "Show the join plan of primary tables",
	Long: `Plan resolves the foreign keys reachable from each primary table and
shows the join that would be exported, without writing a workbook.

The plan shows:
  - Relation tree (referenced tables below the table referencing them)
  - Sheet name and joined tables
  - Projected columns and join conditions
  - The generated SQL

Example:
  db2xlsx plan shop.db -p orders
  db2xlsx plan shop.db -p orders --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringArrayVarP(&planPrimaries, "primary", "p", nil,
		"Primary table to plan (repeatable, required)")
	planCmd.MarkFlagRequired("primary")
	planCmd.Flags().StringVar(&planFormat, "format", formatText,
		"Output format (text, yaml, json)")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := checkFormat(planFormat); err != nil {
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

	plans, err := conv.Plan(ctx, args[0], planPrimaries)
	if err != nil {
		return err
	}

	switch planFormat {
	case formatYAML:
		return writeYAML(outputWriter, plans)
	case formatJSON:
		return writeJSON(outputWriter, plans)
	}

	for i, p := range plans {
		if i > 0 {
			fmt.Fprintln(outputWriter)
		}
		printPlan(p)
	}
	return nil
}

func printPlan(p *converter.PlanResult) {
	printHeader("Join Plan: %s", p.Plan.Root)

	fmt.Fprintln(outputWriter)
	printSection("Relation Tree")
	fmt.Fprintln(outputWriter, renderRelationTree(p.Plan))

	fmt.Fprintln(outputWriter)
	printSection("Overview")
	fmt.Fprintf(outputWriter, "  Sheet:   %s\n", color.Cyan.Sprint(p.Sheet))
	fmt.Fprintf(outputWriter, "  Tables:  %s\n", strings.Join(p.Plan.Tables, ", "))
	fmt.Fprintf(outputWriter, "  Columns: %d\n", len(p.Plan.Projection))
	if len(p.Cycle) > 0 {
		fmt.Fprintf(outputWriter, "  Cycle:   %s\n", color.Yellow.Sprint(strings.Join(p.Cycle, " -> ")))
	}

	fmt.Fprintln(outputWriter)
	printSection("Projection")
	t := newTable()
	t.AppendHeader(table.Row{"#", "Header", "Table", "Column"})
	for i, c := range p.Plan.Projection {
		t.AppendRow(table.Row{i + 1, c.String(), c.Table, c.Column})
	}
	t.Render()

	if p.Plan.HasJoin() {
		fmt.Fprintln(outputWriter)
		printSection("Join Conditions")
		t := newTable()
		t.AppendHeader(table.Row{"Foreign Key", "References"})
		for _, c := range p.Plan.Conditions {
			t.AppendRow(table.Row{c.Child.String(), c.Parent.String()})
		}
		t.Render()
	}

	fmt.Fprintln(outputWriter)
	printSection("SQL")
	fmt.Fprintf(outputWriter, "  %s\n", p.SQL)
}

// renderRelationTree lists each table below the table referencing it.
// A table reached a second time is shown once more but not expanded.
func renderRelationTree(p *graph.JoinPlan) string {
	parents := make(map[string][]string)
	for _, c := range p.Conditions {
		child, parent := c.Child.Table, c.Parent.Table
		if !slices.Contains(parents[child], parent) {
			parents[child] = append(parents[child], parent)
		}
	}

	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedLight)

	expanded := make(map[string]bool)
	var walk func(name string)
	walk = func(name string) {
		if expanded[name] {
			l.AppendItem(name + " (see above)")
			return
		}
		expanded[name] = true
		l.AppendItem(name)
		if len(parents[name]) == 0 {
			return
		}
		l.Indent()
		for _, parent := range parents[name] {
			walk(parent)
		}
		l.UnIndent()
	}
	walk(p.Root)

	return l.Render()
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(outputWriter)
	t.SetStyle(table.StyleLight)
	return t
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatYAML, formatJSON:
		return nil
	}
	return fmt.Errorf("unsupported format %q (want text, yaml or json)", format)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
