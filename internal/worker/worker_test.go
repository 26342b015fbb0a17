package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rinehimer/jxtl/internal/config"
	"github.com/rinehimer/jxtl/internal/document"
	"github.com/rinehimer/jxtl/internal/render"
	"go.uber.org/zap"
)

func TestParseRenderRequest(t *testing.T) {
	req, err := parseRenderRequest(map[string]interface{}{
		"data": `{"job_id":"j1","template_name":"beers.jxtl","document":"<a/>","document_type":"xml","skip_root":true}`,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := &render.Request{
		JobID:        "j1",
		TemplateName: "beers.jxtl",
		Document:     "<a/>",
		DocumentType: document.XML,
		SkipRoot:     true,
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRenderRequestAssignsJobID(t *testing.T) {
	req, err := parseRenderRequest(map[string]interface{}{"data": `{"template":"x","document":"{}"}`})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(req.JobID); err != nil {
		t.Fatalf("job id %q is not a uuid: %v", req.JobID, err)
	}
}

func TestParseRenderRequestErrors(t *testing.T) {
	for _, values := range []map[string]interface{}{
		{},
		{"data": 42},
		{"data": "{not json"},
	} {
		if _, err := parseRenderRequest(values); err == nil {
			t.Errorf("accepted %v", values)
		}
	}
}

func TestEncodeResult(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := encodeResult("render-1", &render.Result{
		JobID:        "j1",
		Output:       "ALE",
		Bytes:        3,
		Source:       render.SourceInline,
		DocumentType: document.JSON,
		Duration:     1500 * time.Millisecond,
	}, now)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"job_id":        "j1",
		"worker_id":     "render-1",
		"output":        "ALE",
		"bytes":         float64(3),
		"source":        string(render.SourceInline),
		"document_type": "json",
		"duration_ms":   float64(1500),
		"timestamp":     "2024-03-01T12:00:00Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeFailure(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := encodeFailure("render-1", &render.Request{JobID: "j1", TemplateName: "t"}, errors.New("boom"), now)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"job_id":        "j1",
		"worker_id":     "render-1",
		"error":         "boom",
		"template_name": "t",
		"timestamp":     "2024-03-01T12:00:00Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		WorkerID:      "render-1",
		StreamKey:     "render.work",
		ConsumerGroup: "render-workers",
		ResultStream:  "render.done",
		BlockTime:     time.Second,
		BatchSize:     10,
	}
}

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWorkerLifecycleWithoutRedis(t *testing.T) {
	w := NewWorker(testConfig(), unreachableClient(t), nil, zap.NewNop())
	if w.ErrorStream() != "render.done.errors" {
		t.Fatalf("error stream %q", w.ErrorStream())
	}
	if err := w.Start(); err == nil {
		t.Fatal("Start succeeded without redis")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSubmitWithoutRedis(t *testing.T) {
	req := &render.Request{Template: "x", Document: "{}"}
	if _, err := Submit(context.Background(), unreachableClient(t), "render.work", req); err == nil {
		t.Fatal("Submit succeeded without redis")
	}
	if req.JobID == "" {
		t.Fatal("job id not assigned")
	}
}

func get(t *testing.T, h http.Handler, path string) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s: %v", path, err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("%s: content type %q", path, ct)
	}
	return rec.Code, resp
}

func TestHealthEndpoints(t *testing.T) {
	dir := t.TempDir()
	healthy := NewHealthServer(0, zap.NewNop(), TemplateDirCheck(dir)).Handler()

	code, resp := get(t, healthy, "/health")
	if code != http.StatusOK || resp.Status != "healthy" || resp.Checks["templates"] != "healthy" {
		t.Fatalf("/health: %d %+v", code, resp)
	}
	if code, resp := get(t, healthy, "/ready"); code != http.StatusOK || resp.Status != "ready" {
		t.Fatalf("/ready: %d %+v", code, resp)
	}

	broken := NewHealthServer(0, zap.NewNop(),
		TemplateDirCheck(dir),
		TemplateDirCheck(filepath.Join(dir, "missing")),
	).Handler()
	if code, resp := get(t, broken, "/health"); code != http.StatusServiceUnavailable || resp.Status != "unhealthy" {
		t.Fatalf("/health: %d %+v", code, resp)
	}
	if code, resp := get(t, broken, "/ready"); code != http.StatusServiceUnavailable || resp.Status != "not ready" {
		t.Fatalf("/ready: %d %+v", code, resp)
	}
}

func TestRedisCheckWithoutRedis(t *testing.T) {
	check := RedisCheck(unreachableClient(t))
	if check.Name != "redis" {
		t.Fatalf("name %q", check.Name)
	}
	if err := check.Probe(context.Background()); err == nil {
		t.Fatal("ping succeeded without redis")
	}
}
