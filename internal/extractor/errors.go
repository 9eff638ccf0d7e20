package extractor

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEngineNotInstalled indicates the engine binary could not be started
	ErrEngineNotInstalled = errors.New("extraction engine not installed")

	// ErrMalformedOutput indicates the engine succeeded but its output could not be decoded
	ErrMalformedOutput = errors.New("malformed extraction engine output")
)

// Reason is a best-effort classification of an engine failure
type Reason string

const (
	ReasonUnknown        Reason = "unknown"
	ReasonUnsupportedURL Reason = "unsupported_url"
	ReasonUnavailable    Reason = "unavailable"
	ReasonGeoRestricted  Reason = "geo_restricted"
	ReasonRateLimited    Reason = "rate_limited"
	ReasonTimeout        Reason = "timeout"
	ReasonCanceled       Reason = "canceled"
)

// ExtractionError is returned when the engine rejects a URL or fails to process it.
// Message carries the engine's own text.
type ExtractionError struct {
	URL     string
	Reason  Reason
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// reasonPatterns are matched in order against the lower-cased engine message
var reasonPatterns = []struct {
	substr string
	reason Reason
}{
	{"unsupported url", ReasonUnsupportedURL},
	{"is not a valid url", ReasonUnsupportedURL},
	{"not available in your country", ReasonGeoRestricted},
	{"geo restrict", ReasonGeoRestricted},
	{"http error 429", ReasonRateLimited},
	{"too many requests", ReasonRateLimited},
	{"timed out", ReasonTimeout},
	{"video unavailable", ReasonUnavailable},
	{"private video", ReasonUnavailable},
	{"has been removed", ReasonUnavailable},
}

func classifyMessage(msg string) Reason {
	lower := strings.ToLower(msg)
	for _, p := range reasonPatterns {
		if strings.Contains(lower, p.substr) {
			return p.reason
		}
	}
	return ReasonUnknown
}

func contextReason(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	return ReasonCanceled
}

// engineMessage picks the engine's error lines out of stderr
func engineMessage(stderr string, runErr error) string {
	var lines []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	return runErr.Error()
}
