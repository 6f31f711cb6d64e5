package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// runOnce checks every target a single time without notifying anyone and
// returns the process exit code.
func runOnce(ctx context.Context, logger *zap.Logger, checker *probe.BatchChecker, targets []domain.Target) int {
	results := checker.CheckAll(ctx, targets)

	code := 0
	for _, r := range results {
		fields := []zap.Field{
			zap.String("url", string(r.Target)),
			zap.Bool("up", r.Up),
			zap.Int("status", r.HTTPStatus),
			zap.Float64("latency_ms", r.LatencyMS),
			zap.String("reason", r.Reason),
		}
		if r.Up {
			logger.Info("oneshot_result", fields...)
		} else {
			logger.Warn("oneshot_result", fields...)
			code = exitDown
		}
	}
	_ = logger.Sync()
	return code
}
