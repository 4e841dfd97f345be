package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/db2xlsx/internal/config"
	"github.com/dbsmedya/db2xlsx/internal/converter"
	"github.com/dbsmedya/db2xlsx/internal/database"
	"github.com/dbsmedya/db2xlsx/internal/logger"
)

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	opts := converter.BatchOptions{
		Primaries: primaries,
		Output:    outputPath,
	}
	// Reject flag combinations before loading anything.
	if err := converter.ValidateBatch(args, opts); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts.Workers = cfg.Export.Workers

	log, conv, err := newConverter(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signalContext(cmd, log)
	defer stop()

	var mu sync.Mutex
	opts.OnDone = func(res *converter.Result, cerr *converter.ConversionError) {
		mu.Lock()
		defer mu.Unlock()
		if cerr != nil {
			fmt.Fprintln(errWriter, color.Red.Sprintf("FAILED %s", cerr.Error()))
			return
		}
		fmt.Fprintf(outputWriter, "%s -> %s (%d sheets)\n",
			res.Input, color.Green.Sprint(res.Output), len(res.Sheets))
	}

	batch, err := conv.Batch(ctx, args, opts)
	if err != nil {
		return err
	}
	if batch.Failed() {
		return fmt.Errorf("%d of %d inputs failed", len(batch.Errors), len(args))
	}
	return nil
}

// newConverter builds the logger and the converter for cfg.
func newConverter(cfg *config.Config) (*logger.Logger, *converter.Converter, error) {
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	conv, err := converter.New(cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	return log, conv, nil
}

// signalContext derives a context from the command that is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, log *logger.Logger) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return database.SignalContext(parent, func(sig os.Signal) {
		log.Warnw("Received signal, aborting", "signal", sig.String())
	})
}
