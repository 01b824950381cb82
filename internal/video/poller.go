package video

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Default polling parameters: 10s between status checks, 60 attempts,
// a ten-minute ceiling.
const (
	DefaultPollInterval    = 10 * time.Second
	DefaultPollMaxAttempts = 60
)

// Poller drives polled operations to a terminal state with a bounded,
// fixed-interval loop. Reaching the attempt ceiling is a local timeout
// only: the remote job is left running, nothing is cancelled.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// NewPoller creates a poller. Non-positive parameters fall back to the
// defaults.
func NewPoller(interval time.Duration, maxAttempts int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Await polls the operation until it is terminal. It returns the final
// payload on success, a GenerationError when the provider reports a
// terminal failure, and a TimeoutError when the attempt ceiling is
// reached without a terminal state. Await never blocks beyond
// maxAttempts times the interval plus the status-check time.
func (p *Poller) Await(ctx context.Context, op *Operation, check CheckFunc) (FinalPayload, error) {
	// Subscribed operations arrive already resolved.
	if op.Payload != nil {
		return *op.Payload, nil
	}

	for op.Attempts < p.maxAttempts {
		op.Attempts++

		snapshot, err := check(ctx, op.Token)
		if err != nil {
			return FinalPayload{}, fmt.Errorf("status check for %s: %w", op.Provider, err)
		}

		if snapshot.Done {
			if snapshot.Failed {
				return FinalPayload{}, &GenerationError{Provider: op.Provider, Message: snapshot.Error}
			}
			p.logger.Info("operation completed",
				slog.String("provider", string(op.Provider)),
				slog.Int("attempts", op.Attempts),
				slog.Duration("elapsed", time.Since(op.StartedAt)),
			)
			return snapshot.Payload, nil
		}

		p.logger.Debug("operation pending",
			slog.String("provider", string(op.Provider)),
			slog.Int("attempt", op.Attempts),
			slog.Int("max_attempts", p.maxAttempts),
		)

		if op.Attempts == p.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return FinalPayload{}, fmt.Errorf("await cancelled: %w", ctx.Err())
		case <-time.After(p.interval):
		}
	}

	p.logger.Warn("operation timed out locally",
		slog.String("provider", string(op.Provider)),
		slog.Int("attempts", op.Attempts),
	)
	return FinalPayload{}, &TimeoutError{
		Provider: op.Provider,
		Attempts: op.Attempts,
		Elapsed:  time.Since(op.StartedAt),
	}
}
