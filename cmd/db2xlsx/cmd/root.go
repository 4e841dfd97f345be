package cmd

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/db2xlsx/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile        string
	logLevel       string
	logFormat      string
	driver         string
	queryTimeout   int
	sheetSeparator string
	workers        int
	skipVerify     bool
	noColor        bool
)

// Convert flags
var (
	primaries  []string
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:   "db2xlsx [flags] <database>...",
	Short: "Relational database to spreadsheet converter",
	Long: `db2xlsx writes every table of a database into an .xlsx workbook,
one sheet per table.

Primary tables (-p) are joined with every table they reach through
foreign keys and written as a single sheet named after all joined tables
(e.g. "orders&customers"). Tables absorbed by a join get no sheet of
their own; all remaining tables are dumped as they are.

Examples:
  db2xlsx shop.db                       # writes shop.xlsx
  db2xlsx shop.db -p orders             # orders joined with customers
  db2xlsx a.db b.db c.db -j 3           # three files in parallel
  db2xlsx --driver postgres -c db2xlsx.yaml shop`,
	Version:           Version,
	SilenceUsage:      true,
	RunE:              runConvert,
	PersistentPreRunE: applyColorFlag,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "db2xlsx.yaml",
		"Path to configuration file (optional unless given explicitly)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Source and export overrides
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "",
		"Override source driver (sqlite, mysql, postgres)")
	rootCmd.PersistentFlags().IntVar(&queryTimeout, "query-timeout", 0,
		"Override per-query timeout in seconds")
	rootCmd.PersistentFlags().StringVar(&sheetSeparator, "separator", "",
		"Override the separator joining table names in sheet names")
	rootCmd.PersistentFlags().BoolVar(&skipVerify, "skip-verify", false,
		"Skip checking written workbooks against the source")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")

	// Convert flags
	rootCmd.Flags().StringArrayVarP(&primaries, "primary", "p", nil,
		"Primary table to join with its referenced tables (repeatable, single input only)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Output file (single input only; default: input with .xlsx extension)")
	rootCmd.Flags().IntVarP(&workers, "workers", "j", 0,
		"Number of inputs converted in parallel")
}

func applyColorFlag(cmd *cobra.Command, args []string) error {
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.Disable()
	}
	return nil
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		Driver:              driver,
		LogLevel:            logLevel,
		LogFormat:           logFormat,
		Workers:             workers,
		QueryTimeoutSeconds: queryTimeout,
		SheetSeparator:      sheetSeparator,
		SkipVerify:          skipVerify,
	}
}

// loadConfig reads .env files and the config file, then applies CLI
// overrides and validates the result. The default config path may be
// missing; a path given with --config must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	configFile := GetConfigFile()
	load := config.LoadOptional
	if f := cmd.Flags().Lookup("config"); f != nil && f.Changed {
		load = config.Load
	}

	cfg, err := load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyOverrides(GetCLIOverrides())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
