package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Provision creates the collection when it does not exist and then waits
// readyWait for the backend to finish initializing it. It reports whether
// the collection was created. An existing collection is passed through
// Create again so backends can check its dimension and fill in anything a
// previous run left unfinished; that path does not wait.
func Provision(ctx context.Context, idx Index, dimension int, readyWait time.Duration) (bool, error) {
	logger := slog.Default().With("component", "provisioner", "index", idx.Name())

	exists, err := idx.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("checking index: %w", err)
	}
	if exists {
		logger.Debug("index already exists")
		if err := idx.Create(ctx, dimension, MetricCosine); err != nil {
			return false, fmt.Errorf("reconciling index: %w", err)
		}
		return false, nil
	}

	logger.Info("creating index", "dimension", dimension, "metric", MetricCosine)
	if err := idx.Create(ctx, dimension, MetricCosine); err != nil {
		return false, fmt.Errorf("creating index: %w", err)
	}

	if readyWait > 0 {
		logger.Debug("waiting for index to become ready", "wait", readyWait)
		timer := time.NewTimer(readyWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return true, ctx.Err()
		case <-timer.C:
		}
	}

	return true, nil
}
