package video

import (
	"context"
	"errors"
	"log/slog"
)

// Coordinator is the sole entry point for video generation. It
// validates the request, selects a provider and strategy, runs the
// chain or single call, and materializes the unified result.
type Coordinator struct {
	selector     *Selector
	chain        *ChainDriver
	materializer *Materializer
	logger       *slog.Logger
}

// NewCoordinator wires the coordination components together.
func NewCoordinator(selector *Selector, chain *ChainDriver, materializer *Materializer, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		selector:     selector,
		chain:        chain,
		materializer: materializer,
		logger:       logger,
	}
}

// Generate runs one generation request end to end.
//
// Errors from validation, selection and single-shot execution propagate
// to the caller unwrapped. The one exception is a chain that produced
// clips before failing: that becomes a Result carrying the partial
// clips with Error set, so callers can still persist the partial asset.
// A truncated duration is therefore always visible, never silent.
func (c *Coordinator) Generate(ctx context.Context, req Request) (Result, error) {
	resolved := req.withDefaults()
	if err := resolved.Validate(); err != nil {
		return Result{}, err
	}

	adapter, strategy, err := c.selector.Select(resolved)
	if err != nil {
		return Result{}, err
	}

	if strategy == StrategyChained {
		return c.generateChained(ctx, adapter, resolved)
	}
	return c.generateSingleShot(ctx, adapter, resolved)
}

func (c *Coordinator) generateChained(ctx context.Context, adapter Adapter, req Request) (Result, error) {
	clips, err := c.chain.Run(ctx, adapter, req)
	if err != nil {
		var chainErr *ChainError
		if errors.As(err, &chainErr) && len(clips) > 0 {
			res, merr := c.materializer.FromClips(ctx, adapter, clips, req)
			if merr != nil {
				return Result{}, merr
			}
			res.Error = chainErr.Error()
			c.logger.Warn("returning partial chain result",
				slog.Int("clips", len(clips)),
				slog.Float64("duration_seconds", res.DurationSeconds),
			)
			return res, nil
		}
		// Base-clip failure: nothing partial to preserve.
		return Result{}, err
	}

	res, err := c.materializer.FromClips(ctx, adapter, clips, req)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("chain completed",
		slog.Int("clips", len(clips)),
		slog.Float64("duration_seconds", res.DurationSeconds),
	)
	return res, nil
}

func (c *Coordinator) generateSingleShot(ctx context.Context, adapter Adapter, req Request) (Result, error) {
	op, err := adapter.Submit(ctx, req.Prompt, req)
	if err != nil {
		return Result{}, err
	}

	payload, err := adapter.Await(ctx, op)
	if err != nil {
		return Result{}, err
	}

	res, err := c.materializer.FromPayload(ctx, adapter, payload, req)
	if err != nil {
		return Result{}, err
	}

	c.logger.Info("generation completed",
		slog.String("provider", string(adapter.Provider())),
		slog.Float64("duration_seconds", res.DurationSeconds),
	)
	return res, nil
}
