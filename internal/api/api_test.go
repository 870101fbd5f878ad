package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/engine"
	"github.com/shaiso/propeller/internal/propeller"
	"github.com/shaiso/propeller/internal/repo"
)

type fakePipeline struct {
	running   bool
	deploying bool
	runErr    error
	deployErr error
	runs      int
	deploys   []string
	ctxErrs   []error
	settings  domain.Config
}

func (f *fakePipeline) Run(ctx context.Context) error {
	f.runs++
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.runErr
}

func (f *fakePipeline) Deploy(ctx context.Context, name string) error {
	f.deploys = append(f.deploys, name)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.deployErr
}

func (f *fakePipeline) IsRunning() bool          { return f.running }
func (f *fakePipeline) IsDeploying() bool        { return f.deploying }
func (f *fakePipeline) Pending() []string        { return f.settings.Tasks }
func (f *fakePipeline) PendingDeploys() []string { return nil }
func (f *fakePipeline) Settings() domain.Config  { return f.settings }

type fakeRuns struct {
	runs   []domain.Run
	filter repo.RunFilter
}

func (f *fakeRuns) List(_ context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	f.filter = filter
	return f.runs, nil
}

func (f *fakeRuns) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

func newTestServer(p Pipeline, runs RunReader) *httptest.Server {
	cfg := Config{
		Pipeline: p,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if runs != nil {
		cfg.Runs = runs
	}
	mux := http.NewServeMux()
	NewHandler(cfg).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func do(t *testing.T, method, url string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func errorCode(body map[string]any) string {
	detail, _ := body["error"].(map[string]any)
	code, _ := detail["code"].(string)
	return code
}

// --- Pipeline Tests ---

func TestGetStatus(t *testing.T) {
	p := &fakePipeline{
		deploying: true,
		settings:  domain.Config{Tasks: []string{"copy: a > b"}, Production: domain.Bool(true)},
	}
	srv := newTestServer(p, nil)
	defer srv.Close()

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/status")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	data := body["data"].(map[string]any)
	if data["deploying"] != true || data["running"] != false || data["production"] != true {
		t.Errorf("unexpected status: %v", data)
	}
	if tasks := data["pending_tasks"].([]any); len(tasks) != 1 || tasks[0] != "copy: a > b" {
		t.Errorf("unexpected pending tasks: %v", tasks)
	}
	if deploys := data["pending_deploys"].([]any); len(deploys) != 0 {
		t.Errorf("expected empty pending deploys, got %v", deploys)
	}
}

func TestGetConfig_HidesConnection(t *testing.T) {
	p := &fakePipeline{settings: domain.Config{
		Environments: map[string]domain.Environment{
			"prod":  {Type: "sftp", Src: domain.StringList{"out/**"}, Dest: "/srv", Connection: domain.Connection{"password": "secret"}},
			"local": {Type: "file", Src: domain.StringList{"out/**"}, Dest: "srv"},
		},
	}}
	srv := newTestServer(p, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/config")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if strings.Contains(string(raw), "secret") {
		t.Fatalf("connection secrets leaked: %s", raw)
	}

	var body struct {
		Data ConfigResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	envs := body.Data.Environments
	if len(envs) != 2 || envs[0].Name != "local" || envs[1].Name != "prod" {
		t.Fatalf("expected sorted environments, got %+v", envs)
	}
	if envs[0].HasConnection || !envs[1].HasConnection {
		t.Errorf("unexpected has_connection flags: %+v", envs)
	}
}

func TestTriggerRun(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"ok", nil, http.StatusOK, ""},
		{"in progress", propeller.ErrRunInProgress, http.StatusConflict, string(ErrCodeConflict)},
		{"config error", engine.NewConfigError(engine.ErrCompilerNotFound, "", "nope"), http.StatusUnprocessableEntity, string(ErrCodeInvalidConfig)},
		{"stage error", &propeller.StageError{Kind: domain.StageKindCompiler, Stage: "copy", Target: "copy: a > b", Err: errors.New("boom")}, http.StatusBadGateway, string(ErrCodeStageFailed)},
		{"internal", errors.New("boom"), http.StatusInternalServerError, string(ErrCodeInternalError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePipeline{runErr: tt.err}
			srv := newTestServer(p, nil)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/v1/run")
			if status != tt.status {
				t.Errorf("expected %d, got %d", tt.status, status)
			}
			if got := errorCode(body); got != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, got)
			}
			if p.runs != 1 {
				t.Errorf("expected 1 run, got %d", p.runs)
			}
		})
	}
}

func TestTriggerDeploy(t *testing.T) {
	p := &fakePipeline{}
	srv := newTestServer(p, nil)
	defer srv.Close()

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/deploy/prod")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	data := body["data"].(map[string]any)
	if data["queued"] != false || data["environment"] != "prod" {
		t.Errorf("unexpected response: %v", data)
	}

	p.running = true
	status, body = do(t, http.MethodPost, srv.URL+"/api/v1/deploy/stage")
	if status != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", status)
	}
	if body["data"].(map[string]any)["queued"] != true {
		t.Errorf("expected queued response: %v", body)
	}

	if len(p.deploys) != 2 || p.deploys[0] != "prod" || p.deploys[1] != "stage" {
		t.Errorf("unexpected deploys: %v", p.deploys)
	}
}

func TestTriggerDeploy_UnknownEnvironment(t *testing.T) {
	p := &fakePipeline{deployErr: engine.NewConfigError(engine.ErrEnvironmentNotFound, "", "nope")}
	srv := newTestServer(p, nil)
	defer srv.Close()

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/deploy/nope")
	if status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", status)
	}
	if errorCode(body) != string(ErrCodeInvalidConfig) {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestTrigger_DetachedFromClient(t *testing.T) {
	p := &fakePipeline{}
	h := NewHandler(Config{Pipeline: p, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", nil).WithContext(ctx)
	h.TriggerRun(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/deploy/prod", nil).WithContext(ctx)
	req.SetPathValue("env", "prod")
	h.TriggerDeploy(httptest.NewRecorder(), req)

	if len(p.ctxErrs) != 2 {
		t.Fatalf("expected run and deploy, got %d calls", len(p.ctxErrs))
	}
	for i, err := range p.ctxErrs {
		if err != nil {
			t.Errorf("call %d: pipeline context should outlive the request, got %v", i, err)
		}
	}
}

// --- Run Tests ---

func TestRuns_JournalDisabled(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, nil)
	defer srv.Close()

	status, _ := do(t, http.MethodGet, srv.URL+"/api/v1/runs")
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	status, _ = do(t, http.MethodGet, srv.URL+"/api/v1/runs/"+uuid.NewString())
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestListRuns(t *testing.T) {
	run := domain.NewRun(domain.PhaseBuild, false)
	run.MarkRunning()
	run.FinishStage(run.StartStage(domain.StageKindCompiler, "copy", "copy: a > b"), nil)
	run.MarkSucceeded()

	runs := &fakeRuns{runs: []domain.Run{*run}}
	srv := newTestServer(&fakePipeline{}, runs)
	defer srv.Close()

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/runs?phase=build&status=succeeded&limit=5&offset=2")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["total"] != float64(1) {
		t.Errorf("expected total 1, got %v", body["total"])
	}

	want := repo.RunFilter{Phase: domain.PhaseBuild, Status: domain.RunStatusSucceeded, Limit: 5, Offset: 2}
	if runs.filter != want {
		t.Errorf("expected filter %+v, got %+v", want, runs.filter)
	}
}

func TestListRuns_InvalidQuery(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, &fakeRuns{})
	defer srv.Close()

	for _, q := range []string{"limit=abc", "limit=0", "offset=-1"} {
		status, body := do(t, http.MethodGet, srv.URL+"/api/v1/runs?"+q)
		if status != http.StatusBadRequest || errorCode(body) != string(ErrCodeBadRequest) {
			t.Errorf("%s: expected 400 BAD_REQUEST, got %d %v", q, status, body)
		}
	}
}

func TestGetRun(t *testing.T) {
	run := domain.NewRun(domain.PhaseDeploy, true)
	runs := &fakeRuns{runs: []domain.Run{*run}}
	srv := newTestServer(&fakePipeline{}, runs)
	defer srv.Close()

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/runs/"+run.ID.String())
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["data"].(map[string]any)["id"] != run.ID.String() {
		t.Errorf("unexpected run: %v", body)
	}

	status, _ = do(t, http.MethodGet, srv.URL+"/api/v1/runs/"+uuid.NewString())
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}

	status, _ = do(t, http.MethodGet, srv.URL+"/api/v1/runs/not-a-uuid")
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

// --- Middleware Tests ---

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(Recovery(logger), Logging(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestLogging_CapturesStatus(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		NotFound(w, "nope")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if !strings.Contains(buf.String(), "status=404") || !strings.Contains(buf.String(), "bytes=") {
		t.Errorf("expected status=404 and bytes in log, got %q", buf.String())
	}
}

func TestRequestID(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/status", Chain(RequestID(logger), Logging(logger))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		Success(w, nil)
	})))

	// Клиентский идентификатор сохраняется
	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set(HeaderRequestID, given)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != given {
		t.Errorf("expected request id %q, got %q", given, got)
	}
	if !strings.Contains(buf.String(), "request_id="+given) || !strings.Contains(buf.String(), "route=\"GET /api/v1/status\"") {
		t.Errorf("unexpected log line: %q", buf.String())
	}

	// Невалидный заменяется новым UUID
	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Errorf("expected generated uuid, got %q", rec.Header().Get(HeaderRequestID))
	}
}
