// Package metrics writes CloudWatch Embedded Metric Format (EMF) documents
// for the studio: API request latency per endpoint, Gemini calls per
// operation and model, and the start-up model checks. Each document is one
// JSON line on the configured output (stdout by default). On Lambda,
// CloudWatch extracts the metrics from it; elsewhere it is only a log line.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
	"time"
)

// Namespace is the CloudWatch namespace for every AuraDesign metric.
const Namespace = "AuraDesign"

// Dimension keys.
const (
	DimEndpoint  = "Endpoint"
	DimOperation = "Operation"
	DimModel     = "Model"
	DimResult    = "Result"
	dimFunction  = "FunctionName"
)

// Metric names.
const (
	RequestLatencyMs  = "RequestLatencyMs"
	RequestCount      = "RequestCount"
	PipelineLatencyMs = "PipelineLatencyMs"
	PipelineCalls     = "PipelineCalls"
	ModelCheckMs      = "ModelCheckMs"
	ModelChecks       = "ModelChecks"
)

// Result dimension values for Gemini calls.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// CloudWatch units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type directive struct {
	Timestamp         int64       `json:"Timestamp"`
	CloudWatchMetrics []directSet `json:"CloudWatchMetrics"`
}

type directSet struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder collects one EMF document. Use one per operation; it is not safe
// for concurrent use.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	units      map[string]string
	values     map[string]float64
	properties map[string]any
}

var (
	functionOnce sync.Once
	functionName string

	outMu    sync.Mutex
	output   io.Writer = os.Stdout
	disabled bool
)

// SetOutput redirects flushed documents. Passing nil restores stdout.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	output = w
}

// Disable turns Flush into a no-op (CLI runs, tests), or re-enables it.
func Disable(off bool) {
	outMu.Lock()
	defer outMu.Unlock()
	disabled = off
}

// New starts a document in namespace. On Lambda the function name is added
// as a dimension so aura-lambda and aura-web metrics stay apart.
func New(namespace string) *Recorder {
	functionOnce.Do(func() { functionName = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") })
	r := &Recorder{
		namespace:  namespace,
		dimensions: make(map[string]string),
		units:      make(map[string]string),
		values:     make(map[string]float64),
		properties: make(map[string]any),
	}
	if functionName != "" {
		r.dimensions[dimFunction] = functionName
	}
	return r
}

// Dimension adds an indexed attribute. Keep values low-cardinality.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records value under name with a CloudWatch unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.units[name] = unit
	r.values[name] = value
	return r
}

// Count records a count of one.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Since records the milliseconds elapsed from start.
func (r *Recorder) Since(name string, start time.Time) *Recorder {
	return r.Metric(name, float64(time.Since(start).Milliseconds()), UnitMilliseconds)
}

// Property adds a searchable field that does not become a metric.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the document. Recorders without metrics write nothing.
func (r *Recorder) Flush() {
	if len(r.values) == 0 {
		return
	}
	outMu.Lock()
	defer outMu.Unlock()
	if disabled {
		return
	}

	data, err := json.Marshal(r.document(time.Now()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: failed to marshal metrics: %v\n", err)
		return
	}
	fmt.Fprintln(output, string(data))
}

// document lays out the EMF JSON object. Keys are sorted so identical
// recorders produce identical lines.
func (r *Recorder) document(now time.Time) map[string]any {
	names := slices.Sorted(maps.Keys(r.values))
	defs := make([]metricDef, 0, len(names))
	for _, n := range names {
		defs = append(defs, metricDef{Name: n, Unit: r.units[n]})
	}

	doc := make(map[string]any, len(r.properties)+len(r.dimensions)+len(r.values)+1)
	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	doc["_aws"] = directive{
		Timestamp: now.UnixMilli(),
		CloudWatchMetrics: []directSet{{
			Namespace:  r.namespace,
			Dimensions: [][]string{slices.Sorted(maps.Keys(r.dimensions))},
			Metrics:    defs,
		}},
	}
	return doc
}

// Request records one API request against its normalised endpoint.
func Request(endpoint, method string, status int, start time.Time) {
	New(Namespace).
		Dimension(DimEndpoint, endpoint).
		Since(RequestLatencyMs, start).
		Count(RequestCount).
		Property("method", method).
		Property("statusCode", status).
		Flush()
}

// ModelCall records one Gemini call made for operation.
func ModelCall(operation, model string, err error, start time.Time) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	New(Namespace).
		Dimension(DimOperation, operation).
		Dimension(DimModel, model).
		Dimension(DimResult, result).
		Since(PipelineLatencyMs, start).
		Count(PipelineCalls).
		Flush()
}

// ModelCheck records one start-up lookup of a configured model. result is
// the failure class, or "ok".
func ModelCheck(model, result string, start time.Time) {
	New(Namespace).
		Dimension(DimModel, model).
		Dimension(DimResult, result).
		Since(ModelCheckMs, start).
		Count(ModelChecks).
		Flush()
}
