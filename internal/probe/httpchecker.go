package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxRedirects = 10

var errTooManyRedirects = errors.New("too many redirects")

// HTTPChecker issues one GET per check.
//
// In lenient mode only 2xx counts as up. In strict mode any response with a
// status in 300-599 also counts as up, so only transport failures are down.
type HTTPChecker struct {
	Client *http.Client
	Strict bool
}

func NewHTTPChecker(timeout time.Duration, strict bool) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		Strict: strict,
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return CheckResult{Success: false, Message: err.Error()}
	}
	req.Header.Set("User-Agent", "sitewatch")

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		msg := err.Error()
		if class := classifyDNSError(err); class != "" {
			msg = fmt.Sprintf("%s dns=%s", msg, class)
		}
		return CheckResult{Success: false, Message: msg, LatencyMS: latency}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return CheckResult{
		Success:    h.isUp(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
		LatencyMS:  latency,
	}
}

func (h *HTTPChecker) isUp(code int) bool {
	if code >= 200 && code < 300 {
		return true
	}
	return h.Strict && code >= 300 && code < 600
}
