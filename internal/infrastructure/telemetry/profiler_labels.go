package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profile label keys
const (
	LabelController = "controller"
	LabelRoute      = "route"
	LabelMethod     = "method"
	LabelStage      = "stage"
)

// maxLabelValueLength caps label values; longer ones are truncated
const maxLabelValueLength = 128

// unboundedLabels never become profile labels: every value would open a
// new series in Pyroscope
var unboundedLabels = map[string]bool{
	"request_id":  true,
	"trace_id":    true,
	"span_id":     true,
	"batch_id":    true,
	"proposal_id": true,
	"entry_key":   true,
	"client_ref":  true,
}

// WithProfilingLabels runs fn with labels attached to the goroutine's CPU
// and allocation samples. Unbounded keys and empty values are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithStageLabel runs one import pipeline stage under a stage label
func WithStageLabel(ctx context.Context, stage string, fn func(context.Context)) {
	WithProfilingLabels(ctx, map[string]string{LabelStage: stage}, fn)
}

// HTTPRequestLabels builds the labels the profiling middleware attaches to a
// request; empty values are omitted
func HTTPRequestLabels(controller, route, method string) map[string]string {
	labels := make(map[string]string, 3)
	for k, v := range map[string]string{LabelController: controller, LabelRoute: route, LabelMethod: method} {
		if v != "" {
			labels[k] = v
		}
	}
	return labels
}

// labelPairs flattens labels into sorted key/value pairs
func labelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, k := range keys {
		v := labels[k]
		key := labelKey(k)
		if key == "" || v == "" || unboundedLabels[key] {
			continue
		}
		if len(v) > maxLabelValueLength {
			v = v[:maxLabelValueLength]
		}
		pairs = append(pairs, key, v)
	}
	return pairs
}

// labelKey lowercases k and keeps only [a-z0-9_], mapping spaces and
// dashes to underscores
func labelKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		switch {
		case r == ' ' || r == '-':
			b.WriteByte('_')
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}
