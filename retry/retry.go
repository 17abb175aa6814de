// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retry provides a bounded retry policy for idempotent operations.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when a policy allows no attempts.
var ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

// Policy bounds how often and how far apart an operation is retried.
//
// The delay before attempt n+1 is Delay * Multiplier^(n-1). A Multiplier of
// 1 (or anything below it) gives a fixed delay.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Multiplier  float64
}

// Default returns three attempts with a fixed five second delay.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
		Multiplier:  1,
	}
}

// Fixed returns a policy with a constant delay between attempts.
func Fixed(maxAttempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Delay: delay, Multiplier: 1}
}

// Exponential returns a policy whose delay doubles after each failure.
func Exponential(maxAttempts int, baseDelay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Delay: baseDelay, Multiplier: 2}
}

// Validate reports whether the policy can run.
func (p Policy) Validate() error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	return nil
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	delay := p.Delay
	if p.Multiplier <= 1 {
		return delay
	}
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return delay
}

// Do runs op until it succeeds, the attempts are exhausted or ctx is done.
// op receives the 1-based attempt number. Do returns the number of attempts
// made and the error from the last one.
func (p Policy) Do(ctx context.Context, op func(attempt int) error) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var lastErr error
	attempt := 0
	for attempt < p.MaxAttempts {
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		default:
		}

		attempt++
		lastErr = op(attempt)
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return attempt, nil
		}

		slog.Debug("operation failed", "attempt", attempt, "maxAttempts", p.MaxAttempts, "err", lastErr)

		// Don't sleep after the last attempt
		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}

	return attempt, lastErr
}
