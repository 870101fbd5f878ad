package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/propeller/internal/domain"
	"github.com/shaiso/propeller/internal/engine"
	"github.com/shaiso/propeller/internal/stages"
)

// execute запускает корневую команду в каталоге dir.
func execute(t *testing.T, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Chdir(dir)

	var out, errOut bytes.Buffer
	app := NewApp()
	app.Out = NewOutputTo(&out, &errOut, containsJSON(args))

	root := NewRootCmd(app, "test")
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func containsJSON(args []string) bool {
	for _, a := range args {
		if a == "--json" {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const siteConfig = `{
	"tasks": ["copy: src/a.txt > out"],
	"environments": {
		"local": {"type": "file", "src": "out/**", "dest": "srv"}
	}
}`

// --- Command Tests ---

func TestRunCmd_BuildAndDeploy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "propeller.json"), siteConfig)
	writeFile(t, filepath.Join(dir, "src", "a.txt"), "hello")

	_, stderr, err := execute(t, dir, "run", "--deploy", "local")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "srv", "a.txt"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("expected deployed file, got %q (%v)", data, err)
	}
	if !strings.Contains(stderr, "Build completed, deployed local") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRunCmd_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "propeller.json"), siteConfig)
	writeFile(t, filepath.Join(dir, "src", "a.txt"), "hello")

	stdout, _, err := execute(t, dir, "--json", "--production", "run")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var result runResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("expected JSON output: %v\n%s", err, stdout)
	}
	if result.Status != "SUCCEEDED" || !result.Production || len(result.Tasks) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunCmd_ArgsReplaceTasks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "propeller.json"), siteConfig)
	writeFile(t, filepath.Join(dir, "src", "b.txt"), "bee")

	if _, _, err := execute(t, dir, "run", "copy: src/b.txt > other"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "other", "b.txt")); err != nil {
		t.Errorf("expected other/b.txt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Errorf("file tasks should not run, stat out: %v", err)
	}
}

func TestRunCmd_UnknownCompiler(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "propeller.json"), `{"tasks": ["less: a.less > css"]}`)

	_, _, err := execute(t, dir, "run")
	if !errors.Is(err, engine.ErrCompilerNotFound) {
		t.Errorf("expected ErrCompilerNotFound, got %v", err)
	}
}

func TestRunCmd_MissingConfig(t *testing.T) {
	_, _, err := execute(t, t.TempDir(), "run")
	if err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestDeployCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "propeller.json"), siteConfig)
	writeFile(t, filepath.Join(dir, "out", "x.txt"), "x")

	if _, _, err := execute(t, dir, "deploy", "local"); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "srv", "x.txt")); err != nil {
		t.Errorf("expected srv/x.txt: %v", err)
	}

	_, _, err := execute(t, dir, "deploy", "staging")
	if !errors.Is(err, engine.ErrEnvironmentNotFound) {
		t.Errorf("expected ErrEnvironmentNotFound, got %v", err)
	}
}

func TestDeployCmd_RemoteRequiresAMQP(t *testing.T) {
	_, _, err := execute(t, t.TempDir(), "deploy", "--remote", "prod")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "propeller.yaml"), `
tasks:
  - "copy: a > b"
  - "broken task"
  - "less: a.less > css"
environments:
  local:
    type: file
    src: out/**
    dest: srv
  remote:
    type: sftp
    src: out/**
    dest: /var/www
  mirror:
    type: ftp
    src: out/**
    dest: /
    connection:
      port: 21
`)

	stdout, _, err := execute(t, dir, "--json", "check")
	if !errors.Is(err, ErrCheckFailed) {
		t.Fatalf("expected ErrCheckFailed, got %v", err)
	}

	var report struct {
		Tasks  int          `json:"tasks"`
		Issues []checkIssue `json:"issues"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("expected JSON: %v\n%s", err, stdout)
	}
	if report.Tasks != 3 {
		t.Errorf("expected 3 tasks, got %d", report.Tasks)
	}

	subjects := make([]string, len(report.Issues))
	for i, issue := range report.Issues {
		subjects[i] = issue.Subject
	}
	want := []string{"task 2", "task 3", "environment mirror", "environment remote"}
	if strings.Join(subjects, ",") != strings.Join(want, ",") {
		t.Errorf("expected issues for %v, got %v", want, report.Issues)
	}
}

func TestCheckCmd_OK(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "propeller.json"), siteConfig)

	_, stderr, err := execute(t, dir, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(stderr, "1 task(s), 1 environment(s): ok") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestStagesCmd(t *testing.T) {
	stdout, _, err := execute(t, t.TempDir(), "--json", "stages")
	if err != nil {
		t.Fatalf("stages: %v", err)
	}

	var got map[string][]string
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("expected JSON: %v", err)
	}
	if strings.Join(got["compilers"], ",") != "bundle,concat,copy,sass,webpack" {
		t.Errorf("unexpected compilers: %v", got["compilers"])
	}
	if strings.Join(got["deployers"], ",") != "file,ftp,sftp" {
		t.Errorf("unexpected deployers: %v", got["deployers"])
	}
}

func TestStagesCmd_Table(t *testing.T) {
	stdout, _, err := execute(t, t.TempDir(), "stages")
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	if !strings.HasPrefix(stdout, "NAME") || !strings.Contains(stdout, "sftp") {
		t.Errorf("unexpected table:\n%s", stdout)
	}
}

func TestLongRunningCmds_Preconditions(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"agent"}, "--amqp-url"},
		{[]string{"history"}, "--db-url"},
		{[]string{"schedule"}, "--cron"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			_, _, err := execute(t, t.TempDir(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestInvalidLogLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	app := NewApp()
	app.Out = NewOutputTo(&bytes.Buffer{}, &bytes.Buffer{}, false)
	root := NewRootCmd(app, "test")
	root.SetArgs([]string{"--log-level", "loud", "stages"})

	if err := root.Execute(); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestEnvironmentOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "custom.json"), siteConfig)
	writeFile(t, filepath.Join(dir, "src", "a.txt"), "hello")
	t.Setenv("PROPELLER_CONFIG", "custom.json")

	if _, _, err := execute(t, dir, "run"); err != nil {
		t.Fatalf("run with PROPELLER_CONFIG: %v", err)
	}
}

// --- Helpers Tests ---

func TestWatchTargets(t *testing.T) {
	cfg := domain.Config{
		Tasks: []string{
			"sass: styles/**/*.scss > public/css",
			"concat: js/a.js, js/b.js > public/app.js",
			"not a task",
		},
		Environments: map[string]domain.Environment{
			"local": {Type: "file", Dest: "/srv/site"},
			"prod":  {Type: "sftp", Dest: "/var/www"},
		},
	}

	patterns, excludes := watchTargets(cfg)
	if strings.Join(patterns, ",") != "styles/**/*.scss,js/a.js,js/b.js" {
		t.Errorf("unexpected patterns: %v", patterns)
	}
	if strings.Join(excludes, ",") != "public/css,public/app.js,/srv/site" {
		t.Errorf("unexpected excludes: %v", excludes)
	}
}

func TestCheck_ValidConnection(t *testing.T) {
	cfg := domain.Config{
		Environments: map[string]domain.Environment{
			"mirror": {Type: "ftp", Dest: "/", Connection: domain.Connection{"host": "ftp.example.com"}},
		},
	}
	if issues := Check(cfg, stages.DefaultRegistry()); len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}
