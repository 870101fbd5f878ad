package stages

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// writeTree создаёт файлы в текущем каталоге.
func writeTree(t *testing.T, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.FromSlash(name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// inTempDir переходит во временный каталог на время теста.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func rels(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.ToSlash(m.Rel))
	}
	return out
}

// --- GlobBase Tests ---

func TestGlobBase(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"src/**/*.scss", "src"},
		{"*.txt", "."},
		{"src/a.txt", "src"},
		{"a.txt", "."},
		{"./assets/img/*", "assets/img"},
		{"/var/www/**", "/var/www"},
		{"src/[ab].js", "src"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := filepath.ToSlash(GlobBase(tt.pattern)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// --- Expand Tests ---

func TestExpand_Glob(t *testing.T) {
	inTempDir(t)
	writeTree(t, map[string]string{
		"src/main.scss":       "a",
		"src/pages/home.scss": "b",
		"src/readme.md":       "c",
	})

	matches, err := Expand([]string{"src/**/*.scss"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"main.scss", "pages/home.scss"}
	if got := rels(matches); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExpand_SingleStarDoesNotCrossDirectories(t *testing.T) {
	inTempDir(t)
	writeTree(t, map[string]string{
		"src/a.js":     "",
		"src/lib/b.js": "",
	})

	matches, err := Expand([]string{"src/*.js"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rels(matches); !reflect.DeepEqual(got, []string{"a.js"}) {
		t.Errorf("expected [a.js], got %v", got)
	}
}

func TestExpand_StarVersusDoubleStar(t *testing.T) {
	inTempDir(t)
	writeTree(t, map[string]string{
		"src/top":   "",
		"src/sub/x": "",
	})

	tests := []struct {
		pattern string
		want    []string
	}{
		{"src/*", []string{"top"}},
		{"src/**", []string{"sub/x", "top"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			matches, err := Expand([]string{tt.pattern})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := rels(matches); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expand(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestExpand_Negation(t *testing.T) {
	inTempDir(t)
	writeTree(t, map[string]string{
		"src/a.js":        "",
		"src/vendor/x.js": "",
		"src/vendor/y.js": "",
	})

	matches, err := Expand([]string{"src/**", "!src/vendor/**"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rels(matches); !reflect.DeepEqual(got, []string{"a.js"}) {
		t.Errorf("expected [a.js], got %v", got)
	}
}

func TestExpand_LiteralPaths(t *testing.T) {
	inTempDir(t)
	writeTree(t, map[string]string{
		"src/a.txt":       "",
		"assets/x/y.png":  "",
		"assets/logo.svg": "",
	})

	matches, err := Expand([]string{"src/a.txt", "assets", "missing.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a.txt", "logo.svg", "x/y.png"}
	if got := rels(matches); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExpand_Dedup(t *testing.T) {
	inTempDir(t)
	writeTree(t, map[string]string{
		"src/a.txt": "",
		"src/b.txt": "",
	})

	matches, err := Expand([]string{"src/*.txt", "src/a.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %v", rels(matches))
	}
}

func TestExpand_NoMatches(t *testing.T) {
	inTempDir(t)

	matches, err := Expand([]string{"nothing/**/*.scss", "  ", "empty.txt"})
	if err != nil {
		t.Fatalf("no matches should not be an error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", rels(matches))
	}
}

// --- Gitignore Tests ---

func TestIgnorer(t *testing.T) {
	inTempDir(t)

	content := strings.Join([]string{
		"# build output",
		"*.log",
		"/build",
		"tmp/",
		"!keep.log",
		"",
	}, "\n")

	ig, err := ParseGitignore(".", strings.NewReader(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		path    string
		ignored bool
	}{
		{"debug.log", true},
		{"logs/app/debug.log", true},
		{"keep.log", false},
		{"build/app.js", true},
		{"src/build/app.js", false},
		{"tmp/cache", true},
		{"src/tmp/cache", true},
		{".git/config", true},
		{"main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ig.Ignored(tt.path); got != tt.ignored {
				t.Errorf("Ignored(%q) = %v, want %v", tt.path, got, tt.ignored)
			}
		})
	}
}

func TestLoadGitignore_Missing(t *testing.T) {
	dir := inTempDir(t)

	ig, err := LoadGitignore(dir)
	if err != nil {
		t.Fatalf("missing .gitignore should not be an error: %v", err)
	}
	if ig.Ignored("a.log") {
		t.Error("nothing should be ignored")
	}
}
