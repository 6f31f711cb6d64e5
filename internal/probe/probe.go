package probe

import "context"

// CheckResult is the unified result of a single probe.
//
// StatusCode is the HTTP status code when a response arrived, 0 for
// transport and DNS errors.
type CheckResult struct {
	Success    bool
	LatencyMS  float64
	Message    string
	StatusCode int
}

// Checker performs a single check for a given target URL.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}

// Probe reduces a check to its up/down verdict.
func Probe(ctx context.Context, c Checker, target string) bool {
	return c.Check(ctx, target).Success
}
