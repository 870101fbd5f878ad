package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/propeller/internal/domain"
)

func TestParseTask_Valid(t *testing.T) {
	tests := []struct {
		name string
		line string
		want domain.Operation
	}{
		{
			name: "single source",
			line: "copy: a.txt > out/",
			want: domain.Operation{Stage: "copy", Sources: []string{"a.txt"}, Dest: "out/"},
		},
		{
			name: "bracketed list",
			line: "concat: [src/a.js, src/b.js] > dist/app.js",
			want: domain.Operation{Stage: "concat", Sources: []string{"src/a.js", "src/b.js"}, Dest: "dist/app.js"},
		},
		{
			name: "whitespace everywhere",
			line: "   Sass  :   [  a.scss ,b.scss  ]   >   dist/css   ",
			want: domain.Operation{Stage: "sass", Sources: []string{"a.scss", "b.scss"}, Dest: "dist/css"},
		},
		{
			name: "comma list without brackets",
			line: "copy: a, b > out",
			want: domain.Operation{Stage: "copy", Sources: []string{"a", "b"}, Dest: "out"},
		},
		{
			name: "single bracketed source",
			line: "copy: [img/**] > dist/img",
			want: domain.Operation{Stage: "copy", Sources: []string{"img/**"}, Dest: "dist/img"},
		},
		{
			name: "empty entries dropped",
			line: "copy: [a, , b] > out",
			want: domain.Operation{Stage: "copy", Sources: []string{"a", "b"}, Dest: "out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := ParseTask(tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(*op, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, *op)
			}
		})
	}
}

func TestParseTask_Invalid(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "empty line", line: ""},
		{name: "no separators", line: "copy a.txt out"},
		{name: "only colon", line: "copy: a.txt"},
		{name: "only arrow", line: "a.txt > out"},
		{name: "two colons", line: "copy: C:/a.txt > out"},
		{name: "two arrows", line: "copy: a > b > c"},
		{name: "empty compiler", line: " : a.txt > out"},
		{name: "empty destination", line: "copy: a.txt >  "},
		{name: "empty sources", line: "copy:  > out"},
		{name: "empty list", line: "copy: [ ] > out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := ParseTask(tt.line)
			if err == nil {
				t.Fatalf("expected error, got %+v", op)
			}
			if op != nil {
				t.Errorf("expected nil operation, got %+v", op)
			}
			if !errors.Is(err, ErrInvalidTask) {
				t.Errorf("expected ErrInvalidTask, got %v", err)
			}

			var cErr *ConfigError
			if !errors.As(err, &cErr) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
			if cErr.Subject != tt.line {
				t.Errorf("expected subject %q, got %q", tt.line, cErr.Subject)
			}
		})
	}
}

func TestFormatTask_RoundTrip(t *testing.T) {
	ops := []domain.Operation{
		{Stage: "copy", Sources: []string{"a.txt"}, Dest: "out/"},
		{Stage: "concat", Sources: []string{"a.js", "b.js", "c.js"}, Dest: "dist/app.js"},
		{Stage: "sass", Sources: []string{"src/**/*.scss", "!src/vendor/**"}, Dest: "dist/css"},
	}

	for _, op := range ops {
		t.Run(op.Stage, func(t *testing.T) {
			line := FormatTask(&op)

			parsed, err := ParseTask(line)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", line, err)
			}
			if !reflect.DeepEqual(*parsed, op) {
				t.Errorf("round trip mismatch: %+v != %+v", *parsed, op)
			}

			// Повторная сериализация идемпотентна
			if again := FormatTask(parsed); again != line {
				t.Errorf("expected %q, got %q", line, again)
			}
		})
	}
}

func TestFormatTask(t *testing.T) {
	single := FormatTask(&domain.Operation{Stage: "copy", Sources: []string{"a"}, Dest: "b"})
	if single != "copy: a > b" {
		t.Errorf("unexpected single format: %q", single)
	}

	multi := FormatTask(&domain.Operation{Stage: "copy", Sources: []string{"a", "b"}, Dest: "c"})
	if multi != "copy: [a, b] > c" {
		t.Errorf("unexpected list format: %q", multi)
	}
}
