package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/propeller/internal/domain"
)

type fakeResolver struct {
	compilers map[string]bool
	deployers map[string]bool
}

func (r fakeResolver) HasCompiler(name string) bool { return r.compilers[name] }
func (r fakeResolver) HasDeployer(name string) bool { return r.deployers[name] }

func TestValidate_OK(t *testing.T) {
	r := fakeResolver{
		compilers: map[string]bool{"copy": true},
		deployers: map[string]bool{"file": true},
	}
	cfg := domain.Config{
		Tasks: []string{"copy: a.txt > out/", "COPY: [b, c] > out/"},
		Environments: map[string]domain.Environment{
			"prod": {Type: "file", Src: domain.StringList{"out/**"}, Dest: "/srv"},
		},
	}

	if err := Validate(cfg, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	r := fakeResolver{
		compilers: map[string]bool{"copy": true},
		deployers: map[string]bool{"file": true},
	}
	cfg := domain.Config{
		Tasks: []string{
			"copy: a > b",
			"broken task",
			"less: a.less > css",
		},
		Environments: map[string]domain.Environment{
			"staging": {Type: "rsync"},
			"prod":    {Type: "file"},
		},
	}

	err := Validate(cfg, r)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if !errors.Is(err, ErrInvalidTask) {
		t.Error("expected ErrInvalidTask in joined error")
	}
	if !errors.Is(err, ErrCompilerNotFound) {
		t.Error("expected ErrCompilerNotFound in joined error")
	}
	if !errors.Is(err, ErrDeployerNotFound) {
		t.Error("expected ErrDeployerNotFound in joined error")
	}

	var cErr *ConfigError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
}

func TestConfigError_Message(t *testing.T) {
	err := CompilerNotFound("less")
	if err.Error() != "compiler 'less' not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	err = EnvironmentNotFound("prod")
	if err.Error() != "environment 'prod' not found in propeller file" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	bare := NewConfigError(ErrNoEnvironment, "", "")
	if bare.Error() != ErrNoEnvironment.Error() {
		t.Errorf("unexpected message: %q", bare.Error())
	}

	if !IsConfigError(MissingConnection("ftp", "prod")) {
		t.Error("MissingConnection should be a ConfigError")
	}
	if IsConfigError(errors.New("boom")) {
		t.Error("plain error should not be a ConfigError")
	}
}
