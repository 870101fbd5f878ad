package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/propeller/internal/domain"
)

// --- Logging Tests ---

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("deploy failed", "environment", "prod")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON line: %v", err)
	}
	if entry["msg"] != "deploy failed" || entry["environment"] != "prod" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "info", "text").Info("build finished", "stages", 3)

	if !strings.Contains(buf.String(), "msg=\"build finished\"") || !strings.Contains(buf.String(), "stages=3") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "text")

	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
}

// --- Metrics Tests ---

func TestMetrics_Observer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	ctx := context.Background()

	run := domain.NewRun(domain.PhaseBuild, false)
	run.MarkRunning()
	m.RunStarted(ctx, run)

	if got := testutil.ToFloat64(m.runsActive.WithLabelValues("build")); got != 1 {
		t.Errorf("expected 1 active run, got %v", got)
	}

	ok := run.StartStage(domain.StageKindCompiler, "copy", "copy: a > b")
	m.StageStarted(ctx, run, &run.Stages[ok])
	m.StageFinished(ctx, run, run.FinishStage(ok, nil))

	bad := run.StartStage(domain.StageKindCompiler, "sass", "sass: a > b")
	m.StageFinished(ctx, run, run.FinishStage(bad, errors.New("boom")))

	run.MarkFailed("boom")
	m.RunFinished(ctx, run)

	if got := testutil.ToFloat64(m.stagesTotal.WithLabelValues("compiler", "copy", "SUCCEEDED")); got != 1 {
		t.Errorf("expected 1 succeeded copy, got %v", got)
	}
	if got := testutil.ToFloat64(m.stagesTotal.WithLabelValues("compiler", "sass", "FAILED")); got != 1 {
		t.Errorf("expected 1 failed sass, got %v", got)
	}
	if got := testutil.ToFloat64(m.runsTotal.WithLabelValues("build", "FAILED")); got != 1 {
		t.Errorf("expected 1 failed build, got %v", got)
	}
	if got := testutil.ToFloat64(m.runsActive.WithLabelValues("build")); got != 0 {
		t.Errorf("expected no active runs, got %v", got)
	}
	if got := testutil.CollectAndCount(m.stageDuration); got != 2 {
		t.Errorf("expected 2 duration series, got %d", got)
	}
}

// --- HTTP Tests ---

func TestNewMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	run := domain.NewRun(domain.PhaseDeploy, true)
	run.MarkRunning()
	run.MarkSucceeded()
	m.RunFinished(context.Background(), run)

	srv := httptest.NewServer(NewMux(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()

	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	if !strings.Contains(body.String(), `propeller_runs_total{phase="deploy",status="SUCCEEDED"} 1`) {
		t.Errorf("metrics output missing runs_total:\n%s", body.String())
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not stop")
	}
}
