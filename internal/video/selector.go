package video

import (
	"fmt"
	"log/slog"
)

// Selector maps a request to the adapter and execution strategy that
// serve it. Selection is a one-time decision per request; there is no
// fallback ladder between providers.
type Selector struct {
	adapters map[Provider]Adapter
	logger   *slog.Logger
}

// NewSelector creates a selector over the configured adapters. Only
// providers with credentials get an adapter; requests needing anything
// else fail fast at selection time.
func NewSelector(logger *slog.Logger, adapters ...Adapter) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[Provider]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Selector{adapters: m, logger: logger}
}

// adapter returns the adapter for a provider, or ErrProviderUnavailable
// when none is configured.
func (s *Selector) adapter(p Provider) (Adapter, error) {
	a, ok := s.adapters[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, p)
	}
	return a, nil
}

// Select applies the routing rules in order; the first match wins.
//
//  1. Avatar mode always uses the avatar adapter, single-shot: avatar
//     providers take a full script per call.
//  2. An explicit provider override is honored regardless of duration,
//     single-shot unless it names the short-clip adapter with a duration
//     past one base clip, which chains. An override cannot push a chain
//     past the extension cap; that is rejected, not stretched.
//  3. Durations past the chain cap go to the long-form adapter, which
//     natively supports up to 900 seconds.
//  4. Durations past one base clip go to the short-clip adapter, chained.
//  5. Everything else is one short-clip base clip.
func (s *Selector) Select(req Request) (Adapter, Strategy, error) {
	adapter, strategy, err := s.route(req)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("provider selected",
		slog.String("provider", string(adapter.Provider())),
		slog.String("strategy", string(strategy)),
		slog.Int("duration_seconds", req.DurationSeconds),
		slog.String("mode", string(req.Mode)),
	)
	return adapter, strategy, nil
}

func (s *Selector) route(req Request) (Adapter, Strategy, error) {
	// Rule 1: avatar mode.
	if req.Mode == ModeAvatar {
		a, err := s.adapter(ProviderAvatar)
		if err != nil {
			return nil, "", err
		}
		return a, StrategySingleShot, nil
	}

	// Rule 2: explicit override beats heuristics.
	if req.ExplicitProvider != "" {
		a, err := s.adapter(req.ExplicitProvider)
		if err != nil {
			return nil, "", err
		}
		if req.ExplicitProvider == ProviderShortClip && req.DurationSeconds > BaseClipSeconds {
			if req.DurationSeconds > MaxChainSeconds {
				return nil, "", fmt.Errorf("%w: %ds requested, %ds maximum", ErrChainCapExceeded, req.DurationSeconds, MaxChainSeconds)
			}
			return a, StrategyChained, nil
		}
		return a, StrategySingleShot, nil
	}

	// Rule 3: beyond the chain cap, long-form single-shot.
	if req.DurationSeconds > MaxChainSeconds {
		a, err := s.adapter(ProviderLongForm)
		if err != nil {
			return nil, "", err
		}
		return a, StrategySingleShot, nil
	}

	// Rule 4: beyond one base clip, short-clip chained.
	if req.DurationSeconds > BaseClipSeconds {
		a, err := s.adapter(ProviderShortClip)
		if err != nil {
			return nil, "", err
		}
		return a, StrategyChained, nil
	}

	// Rule 5: exactly one base clip.
	a, err := s.adapter(ProviderShortClip)
	if err != nil {
		return nil, "", err
	}
	return a, StrategySingleShot, nil
}
