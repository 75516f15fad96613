package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamlvalidate/internal/output"
)

// runCLI executes a fresh validate command and returns its exit code and output.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	code := -1
	prev := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = prev })

	var stdout, stderr bytes.Buffer
	cmd := newValidateCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func schemaServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gaml.json" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"type":"object","required":["name"]}`)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/gaml.json"
}

func TestValidate_ExitCodes(t *testing.T) {
	ref := schemaServer(t)

	t.Run("all valid", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.gaml"), "schema: "+ref+"\nname: a\n")
		code, stdout, _ := runCLI(t, root, "--no-color", "--expected-schema", "")
		if code != 0 {
			t.Fatalf("exit = %d, want 0; output:\n%s", code, stdout)
		}
		if !strings.Contains(stdout, "All GAML files are valid!") {
			t.Fatalf("unexpected output:\n%s", stdout)
		}
		if _, err := os.Stat(filepath.Join(root, "validator", "results", output.SummaryFileName)); err != nil {
			t.Fatalf("summary not written under the default results dir: %v", err)
		}
	})

	t.Run("invalid file", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.gaml"), "schema: "+ref+"\nname: a\n")
		writeFile(t, filepath.Join(root, "b.gaml"), "schema: "+ref+"\n")
		code, stdout, _ := runCLI(t, root, "--no-color")
		if code != 1 {
			t.Fatalf("exit = %d, want 1", code)
		}
		if !strings.Contains(stdout, "Files with errors:") || !strings.Contains(stdout, "b.gaml") {
			t.Fatalf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		code, _, _ := runCLI(t, t.TempDir(), "--no-console")
		if code != 0 {
			t.Fatalf("exit = %d, want 0", code)
		}
	})

	t.Run("invalid flag value", func(t *testing.T) {
		code, _, stderr := runCLI(t, t.TempDir(), "--console-format", "xml")
		if code != 1 {
			t.Fatalf("exit = %d, want 1", code)
		}
		if !strings.Contains(stderr, "unsupported --console-format") {
			t.Fatalf("expected validation message, got %q", stderr)
		}
	})

	t.Run("missing root", func(t *testing.T) {
		code, _, stderr := runCLI(t, filepath.Join(t.TempDir(), "nope"), "--no-console")
		if code != 1 || !strings.Contains(stderr, "Error:") {
			t.Fatalf("exit = %d stderr=%q", code, stderr)
		}
	})
}

func TestValidate_ConfigFilePrecedence(t *testing.T) {
	ref := schemaServer(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.yml"), "schema: "+ref+"\nname: a\n")
	writeFile(t, filepath.Join(root, "skipme", "b.yml"), "schema: "+ref+"\n")
	writeFile(t, filepath.Join(root, ".gamlvalidate.yaml"), `
extension: yml
skip_dirs: [skipme]
schema:
  expected_reference: ""
output:
  results_dir: out
  console_format: ndjson
`)

	code, stdout, _ := runCLI(t, root)
	if code != 0 {
		t.Fatalf("exit = %d, want 0; output:\n%s", code, stdout)
	}
	if !strings.HasPrefix(stdout, `{"type":"run.started"`) {
		t.Fatalf("config file console_format not applied:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(root, "out", "a-validation.json")); err != nil {
		t.Fatalf("config file results_dir not applied: %v", err)
	}

	// Explicit flags override the file.
	code, stdout, _ = runCLI(t, root, "--console-format", "text", "--skip-dir", ".git", "--no-color")
	if code != 1 {
		t.Fatalf("exit = %d, want 1 once skipme is walked", code)
	}
	if !strings.Contains(stdout, "GAML FILE VALIDATION") || !strings.Contains(stdout, "skipme/b.yml") {
		t.Fatalf("flags did not win over config file:\n%s", stdout)
	}
}

func TestValidate_UnknownConfigKeyIsFatal(t *testing.T) {
	root := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, cfgPath, "extensions: .gaml\n")

	code, _, stderr := runCLI(t, root, "--config", cfgPath)
	if code != 1 || !strings.Contains(stderr, "extensions") {
		t.Fatalf("exit = %d stderr=%q", code, stderr)
	}
}

func TestVersion(t *testing.T) {
	SetBuildInfo("1.2.3", "abc123", "2024-01-01")
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	want := "gamlvalidate 1.2.3\ncommit: abc123\nbuilt:  2024-01-01\n"
	if out.String() != want {
		t.Fatalf("version output = %q, want %q", out.String(), want)
	}
	if v, c, d := BuildInfo(); v != "1.2.3" || c != "abc123" || d != "2024-01-01" {
		t.Fatalf("BuildInfo() = %q %q %q", v, c, d)
	}
}
