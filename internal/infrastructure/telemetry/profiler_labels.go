package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys. Shared constants keep the Pyroscope UI free of
// near-duplicate label spellings.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelItemKind   = "item_kind"
	ProfilingLabelOperation  = "operation"
	ProfilingLabelRegion     = "region"
)

// MaxLabelValueLength caps label values; Pyroscope keeps a series per
// distinct value, so unbounded values become unbounded memory.
const MaxLabelValueLength = 128

// highCardinalityKeys are label keys that explode series count and are
// silently dropped. item_kind is deliberately absent; it only ever
// takes two values.
var highCardinalityKeys = map[string]struct{}{
	"request_id": {},
	"order_id":   {},
	"item_id":    {},
	"po_number":  {},
	"trace_id":   {},
	"span_id":    {},
}

// WithProfilingLabels runs fn with the given labels attached to its
// profile samples, letting CPU time be sliced per endpoint or operation
// in the Pyroscope UI. Labels are sanitized first: high-cardinality
// keys are dropped, values truncated, keys normalized to snake_case.
// The map is copied, so the caller may reuse it afterwards.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels builds the label set for a named background
// operation such as "reconciliation_sweep" or "outbox_dispatch".
func OperationLabels(operation string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	labels[ProfilingLabelOperation] = operation
	maps.Copy(labels, extra)
	return labels
}

// RegionLabels builds the label set for a code region, typically a
// database round trip or an external API call.
func RegionLabels(region string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	labels[ProfilingLabelRegion] = region
	maps.Copy(labels, extra)
	return labels
}

// sanitizeLabels flattens a label map into the alternating key/value
// slice pyroscope expects, sorted by key so output is deterministic.
func sanitizeLabels(labels map[string]string) []string {
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
		if key == "" || value == "" {
			continue
		}
		if _, ok := highCardinalityKeys[key]; ok {
			// dropped silently; logging here would spam hot paths
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}

		key = sanitizeLabelKey(key)
		if key == "" {
			continue
		}
		pairs = append(pairs, key, value)
	}

	return pairs
}

// sanitizeLabelKey normalizes a key to snake_case, stripping anything
// that is not alphanumeric or underscore.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			out = append(out, c)
		}
	}
	return string(out)
}
