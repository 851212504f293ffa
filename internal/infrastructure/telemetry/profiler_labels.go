package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys. Values must stay low cardinality or Pyroscope's
// memory grows with every distinct value it sees.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelPharmacyID = "pharmacy_id"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelRegion     = "region"
)

// maxLabelValueLength caps label values before they reach Pyroscope.
const maxLabelValueLength = 128

// highCardinalityLabels are dropped outright. pharmacy_id is deliberately
// absent: a deployment serves at most a few hundred pharmacies.
var highCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"hold_code":  true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn with the given Pyroscope labels attached to the
// context. Labels are normalized first; if none survive, fn runs unlabeled.
// pyroscope.TagWrapper is built on Go's native pprof labels, so the labels
// also show up in standard pprof output.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// labelPairs flattens labels into Pyroscope's alternating key-value slice.
// Empty and high-cardinality entries are dropped, overlong values truncated,
// and keys normalized to snake_case. Keys are emitted in sorted order so the
// result is deterministic.
func labelPairs(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > maxLabelValueLength {
			value = value[:maxLabelValueLength]
		}
		if normalized := normalizeLabelKey(key); normalized != "" {
			pairs = append(pairs, normalized, value)
		}
	}
	return pairs
}

// normalizeLabelKey lowercases the key, folds spaces and dashes into
// underscores, and strips everything else outside [a-z0-9_].
func normalizeLabelKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-':
			return '_'
		default:
			return -1
		}
	}, key)
}
