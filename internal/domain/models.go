package domain

// Target identifies one monitored endpoint. Two targets are the same when
// their strings are equal.
type Target string

type CheckResult struct {
	Target     Target  `json:"target"`
	Up         bool    `json:"up"`
	HTTPStatus int     `json:"http_status,omitempty"`
	LatencyMS  float64 `json:"latency_ms"`
	Reason     string  `json:"reason,omitempty"`
}

// Targets converts configured strings into targets, keeping order and duplicates.
func Targets(ss []string) []Target {
	out := make([]Target, 0, len(ss))
	for _, s := range ss {
		out = append(out, Target(s))
	}
	return out
}
