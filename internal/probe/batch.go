package probe

import (
	"context"
	"sync"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// BatchChecker runs one check per target, all of them at once.
type BatchChecker struct {
	Checker Checker
}

func NewBatchChecker(c Checker) *BatchChecker {
	return &BatchChecker{Checker: c}
}

// CheckAll returns exactly one result per input target, in input order. It
// waits for every check to finish.
func (b *BatchChecker) CheckAll(ctx context.Context, targets []domain.Target) []domain.CheckResult {
	results := make([]domain.CheckResult, len(targets))
	var wg sync.WaitGroup
	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, tgt domain.Target) {
			defer wg.Done()
			out := b.Checker.Check(ctx, string(tgt))
			results[i] = domain.CheckResult{
				Target:     tgt,
				Up:         out.Success,
				HTTPStatus: out.StatusCode,
				LatencyMS:  out.LatencyMS,
				Reason:     out.Message,
			}
		}(i, tgt)
	}
	wg.Wait()
	return results
}
