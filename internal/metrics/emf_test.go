package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"
)

// capture redirects Flush output into a buffer for the duration of the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Disable(false)
	t.Cleanup(func() { SetOutput(nil) })
	return &buf
}

func TestNew_AutoDimension(t *testing.T) {
	functionOnce.Do(func() {})
	functionName = "aura-lambda"
	defer func() { functionName = "" }()

	r := New(Namespace)
	if r.namespace != "AuraDesign" {
		t.Errorf("expected namespace AuraDesign, got %s", r.namespace)
	}
	if r.dimensions["FunctionName"] != "aura-lambda" {
		t.Errorf("expected FunctionName dimension aura-lambda, got %s", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := capture(t)
	functionName = ""

	New(Namespace).
		Dimension("Operation", "apply_edit").
		Metric("PipelineLatencyMs", 1234.5, UnitMilliseconds).
		Metric("PipelineCalls", 1, UnitCount).
		Property("sessionId", "abc-123").
		Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsMap, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}
	cwArr, ok := awsMap["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != "AuraDesign" {
		t.Errorf("expected namespace AuraDesign, got %v", cw["Namespace"])
	}

	if doc["Operation"] != "apply_edit" {
		t.Errorf("expected Operation=apply_edit, got %v", doc["Operation"])
	}
	if doc["PipelineLatencyMs"] != 1234.5 {
		t.Errorf("expected PipelineLatencyMs=1234.5, got %v", doc["PipelineLatencyMs"])
	}
	if doc["PipelineCalls"] != float64(1) {
		t.Errorf("expected PipelineCalls=1, got %v", doc["PipelineCalls"])
	}
	if doc["sessionId"] != "abc-123" {
		t.Errorf("expected sessionId=abc-123, got %v", doc["sessionId"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	buf := capture(t)

	New("Test").Flush()

	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorder_Disabled(t *testing.T) {
	buf := capture(t)
	Disable(true)
	defer Disable(false)

	New("Test").Count("Calls").Flush()

	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got: %s", buf.String())
	}
}

func TestRecorder_Count(t *testing.T) {
	functionName = ""
	rec := New("Test")
	rec.Count("Errors")

	if v, ok := rec.values["Errors"]; !ok || v != float64(1) {
		t.Errorf("expected Errors=1, got %v", v)
	}
	if u := rec.units["Errors"]; u != UnitCount {
		t.Errorf("expected unit Count, got %v", u)
	}
}

func TestRecorder_Since(t *testing.T) {
	rec := New("Test").Since("LatencyMs", time.Now().Add(-50*time.Millisecond))

	if v := rec.values["LatencyMs"]; v < 50 {
		t.Errorf("expected LatencyMs >= 50, got %v", v)
	}
	if u := rec.units["LatencyMs"]; u != UnitMilliseconds {
		t.Errorf("expected unit Milliseconds, got %v", u)
	}
}

func TestRecorder_Chaining(t *testing.T) {
	functionName = ""
	rec := New("Test").
		Dimension("Op", "test").
		Metric("Duration", 100, UnitMilliseconds).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Duration"] != float64(100) {
		t.Error("chaining Metric failed")
	}
	if rec.values["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}

func TestRecorder_DocumentIsSorted(t *testing.T) {
	functionName = ""
	rec := New(Namespace).
		Dimension(DimResult, ResultSuccess).
		Dimension(DimModel, "gemini-3-pro-image-preview").
		Dimension(DimOperation, "apply_edit").
		Count(PipelineCalls).
		Metric(PipelineLatencyMs, 12, UnitMilliseconds)

	doc := rec.document(time.UnixMilli(42))
	set := doc["_aws"].(directive).CloudWatchMetrics[0]

	wantDims := []string{DimModel, DimOperation, DimResult}
	if len(set.Dimensions) != 1 || !slices.Equal(set.Dimensions[0], wantDims) {
		t.Errorf("dimensions = %v, want %v", set.Dimensions, wantDims)
	}
	if len(set.Metrics) != 2 || set.Metrics[0].Name != PipelineCalls || set.Metrics[1].Name != PipelineLatencyMs {
		t.Errorf("metrics = %v, want PipelineCalls then PipelineLatencyMs", set.Metrics)
	}
	if doc["_aws"].(directive).Timestamp != 42 {
		t.Errorf("timestamp = %v, want 42", doc["_aws"].(directive).Timestamp)
	}
}

func TestModelCall(t *testing.T) {
	buf := capture(t)
	functionName = ""

	ModelCall("generate_from_style", "img-model", errors.New("boom"), time.Now())

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid EMF line: %v\n%s", err, buf.String())
	}
	if doc[DimOperation] != "generate_from_style" || doc[DimModel] != "img-model" || doc[DimResult] != ResultFailure {
		t.Errorf("unexpected dimensions: %v", doc)
	}
	if doc[PipelineCalls] != float64(1) {
		t.Errorf("PipelineCalls = %v, want 1", doc[PipelineCalls])
	}
}

func TestRequest(t *testing.T) {
	buf := capture(t)
	functionName = ""

	Request("/api/sessions/*/style", "POST", 202, time.Now())

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid EMF line: %v\n%s", err, buf.String())
	}
	if doc[DimEndpoint] != "/api/sessions/*/style" || doc["method"] != "POST" || doc["statusCode"] != float64(202) {
		t.Errorf("unexpected document: %v", doc)
	}
	if _, ok := doc[RequestLatencyMs]; !ok {
		t.Error("missing RequestLatencyMs")
	}
}
