package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/db2xlsx/internal/config"
)

func TestGetConfigFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{name: "default config file", cfgValue: "db2xlsx.yaml", want: "db2xlsx.yaml"},
		{name: "custom config file", cfgValue: "/path/to/custom.yaml", want: "/path/to/custom.yaml"},
		{name: "config file with spaces", cfgValue: "/path/to/my config.yaml", want: "/path/to/my config.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestGetCLIOverrides(t *testing.T) {
	withCLIState(t)

	assert.Equal(t, config.Overrides{}, GetCLIOverrides())

	driver = "mysql"
	logLevel = "debug"
	logFormat = "json"
	workers = 4
	queryTimeout = 10
	sheetSeparator = "+"
	skipVerify = true

	assert.Equal(t, config.Overrides{
		Driver:              "mysql",
		LogLevel:            "debug",
		LogFormat:           "json",
		Workers:             4,
		QueryTimeoutSeconds: 10,
		SheetSeparator:      "+",
		SkipVerify:          true,
	}, GetCLIOverrides())
}

func TestRootCommandFlags(t *testing.T) {
	persistent := rootCmd.PersistentFlags()

	cfg := persistent.Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
	assert.Equal(t, "db2xlsx.yaml", cfg.DefValue)

	for _, name := range []string{"log-level", "log-format", "driver", "query-timeout", "separator", "skip-verify", "no-color"} {
		assert.NotNil(t, persistent.Lookup(name), "missing persistent flag %s", name)
	}

	local := rootCmd.Flags()
	for name, short := range map[string]string{"primary": "p", "output": "o", "workers": "j"} {
		f := local.Lookup(name)
		require.NotNil(t, f, "missing flag %s", name)
		assert.Equal(t, short, f.Shorthand)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing default file uses defaults", func(t *testing.T) {
		withCLIState(t)
		cfgFile = filepath.Join(t.TempDir(), "db2xlsx.yaml")

		cfg, err := loadConfig(&cobra.Command{})
		require.NoError(t, err)
		assert.Equal(t, config.DriverSQLite, cfg.Source.Driver)
		assert.Equal(t, "&", cfg.Export.SheetSeparator)
	})

	t.Run("overrides win over the file", func(t *testing.T) {
		withCLIState(t)
		cfgFile = filepath.Join(t.TempDir(), "db2xlsx.yaml")
		require.NoError(t, os.WriteFile(cfgFile, []byte("export:\n  sheet_separator: \"|\"\n  workers: 2\n"), 0o644))
		workers = 3

		cfg, err := loadConfig(&cobra.Command{})
		require.NoError(t, err)
		assert.Equal(t, "|", cfg.Export.SheetSeparator)
		assert.Equal(t, 3, cfg.Export.Workers)
	})

	t.Run("explicit missing file fails", func(t *testing.T) {
		withCLIState(t)
		cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

		c := &cobra.Command{}
		c.Flags().StringVar(new(string), "config", "", "")
		require.NoError(t, c.Flags().Set("config", cfgFile))

		_, err := loadConfig(c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("invalid override fails validation", func(t *testing.T) {
		withCLIState(t)
		cfgFile = filepath.Join(t.TempDir(), "db2xlsx.yaml")
		driver = "oracle"

		_, err := loadConfig(&cobra.Command{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}
