package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// BatchOptions select what a batch converts.
type BatchOptions struct {
	Primaries []string
	// Output overrides the derived output path; only valid for one input.
	Output string
	// Workers bounds how many inputs are converted at once (minimum 1).
	Workers int
	// OnDone, when set, is called once per input as soon as it finishes,
	// with exactly one of res and err non-nil. Calls may come from
	// several goroutines at once when Workers > 1.
	OnDone func(res *Result, err *ConversionError)
}

// BatchResult holds per-input outcomes in input order.
type BatchResult struct {
	Results []*Result
	Errors  []*ConversionError
}

// Failed reports whether any input failed.
func (b *BatchResult) Failed() bool {
	return len(b.Errors) > 0
}

// ValidateBatch rejects option combinations that need exactly one input.
func ValidateBatch(inputs []string, opts BatchOptions) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no input given", ErrConfigConflict)
	}
	if len(opts.Primaries) > 0 && len(inputs) > 1 {
		return fmt.Errorf("%w: primary tables require exactly one input, got %d", ErrConfigConflict, len(inputs))
	}
	if opts.Output != "" && len(inputs) > 1 {
		return fmt.Errorf("%w: an output path requires exactly one input, got %d", ErrConfigConflict, len(inputs))
	}
	return nil
}

// Batch converts every input. Inputs are independent: a failure is
// recorded and the batch moves on. The returned error is only set when the
// options are rejected before any input is touched.
func (c *Converter) Batch(ctx context.Context, inputs []string, opts BatchOptions) (*BatchResult, error) {
	if err := ValidateBatch(inputs, opts); err != nil {
		return nil, err
	}
	if err := c.checkOutputs(inputs, opts); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]*Result, len(inputs))
	failures := make([]*ConversionError, len(inputs))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, input := range inputs {
		g.Go(func() error {
			res, err := c.convertOne(ctx, input, opts)
			if err != nil {
				failures[i] = asConversionError(input, err)
				c.logger.WithInput(input).Errorw("Conversion failed", "error", err)
			} else {
				results[i] = res
			}
			if opts.OnDone != nil {
				opts.OnDone(results[i], failures[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchResult{}
	for i := range inputs {
		if results[i] != nil {
			batch.Results = append(batch.Results, results[i])
		}
		if failures[i] != nil {
			batch.Errors = append(batch.Errors, failures[i])
		}
	}
	return batch, nil
}

// checkOutputs rejects batches where two inputs would write the same file,
// e.g. shop.db and shop.sqlite.
func (c *Converter) checkOutputs(inputs []string, opts BatchOptions) error {
	if opts.Output != "" {
		return nil
	}
	seen := make(map[string]string, len(inputs))
	for _, input := range inputs {
		out := filepath.Clean(OutputPath(input, c.config.Export.Extension))
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", ErrConfigConflict, prev, input, out)
		}
		seen[out] = input
	}
	return nil
}

func (c *Converter) convertOne(ctx context.Context, input string, opts BatchOptions) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Output != "" {
		return c.ConvertTo(ctx, input, opts.Output, opts.Primaries)
	}
	return c.Convert(ctx, input, opts.Primaries)
}

func asConversionError(input string, err error) *ConversionError {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	return &ConversionError{Input: input, Err: err}
}
