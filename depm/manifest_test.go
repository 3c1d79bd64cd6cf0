package depm

import (
	"os"
	"path/filepath"
	"testing"

	"daisyc/report"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.4.2")
	if err != nil {
		t.Fatalf("ParseVersion failed: %s", err)
	}

	if v.Major != 1 || v.Minor != 4 || v.Patch != 2 {
		t.Errorf("expected 1.4.2, got %s", v)
	}

	for _, bad := range []string{"", "1.2", "1.2.3.4", "a.b.c", "1.-2.3"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("expected error parsing `%s`", bad)
		}
	}
}

func TestVersionSpecMatching(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		matches bool
	}{
		{"1.2.0", "1.2.0", true},
		{"1.2.0", "1.2.1", false},
		{"^1.2.0", "1.2.0", true},
		{"^1.2.0", "1.5.3", true},
		{"^1.2.0", "1.1.9", false},
		{"^1.2.0", "2.0.0", false},
	}

	for _, test := range tests {
		spec, err := ParseVersionSpec(test.spec)
		if err != nil {
			t.Fatalf("ParseVersionSpec(%s) failed: %s", test.spec, err)
		}

		v, err := ParseVersion(test.version)
		if err != nil {
			t.Fatalf("ParseVersion(%s) failed: %s", test.version, err)
		}

		if spec.Matches(v) != test.matches {
			t.Errorf("spec %s matching %s: expected %v", test.spec, test.version, test.matches)
		}
	}
}

// -----------------------------------------------------------------------------

func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %s", err)
	}

	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write file: %s", err)
	}
}

func TestLoadManifest(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "daisy.toml"), `
name = "app"
version = "0.4.1"
abi-major = 1

[dependencies]
mathlib = { path = "../mathlib", version = "^1.2.0" }
utils = { version = "0.1.0" }

[workspace]
members = ["libs/*"]
`)

	writeFile(t, filepath.Join(dir, "libs", "alpha", "daisy.toml"), "name = \"alpha\"\nversion = \"0.1.0\"\nabi-major = 1\n")
	writeFile(t, filepath.Join(dir, "libs", "beta", "daisy.toml"), "name = \"beta\"\nversion = \"0.1.0\"\nabi-major = 1\n")
	writeFile(t, filepath.Join(dir, "libs", "junk", "notes.txt"), "not a module\n")

	man, ok := LoadManifest(dir)
	if !ok {
		t.Fatalf("LoadManifest failed with %d errors", report.ErrorCount())
	}

	if man.Name != "app" {
		t.Errorf("expected name `app`, got `%s`", man.Name)
	}

	if man.Version.String() != "0.4.1" {
		t.Errorf("expected version 0.4.1, got %s", man.Version)
	}

	if man.AbiMajor != 1 {
		t.Errorf("expected ABI major 1, got %d", man.AbiMajor)
	}

	mathlib, ok := man.Dependencies["mathlib"]
	if !ok {
		t.Fatalf("missing dependency `mathlib`")
	}

	if mathlib.Path != filepath.Clean(filepath.Join(dir, "../mathlib")) {
		t.Errorf("unexpected dependency path: %s", mathlib.Path)
	}

	if mathlib.Spec == nil || !mathlib.Spec.Caret {
		t.Errorf("expected caret version spec on `mathlib`")
	}

	utils, ok := man.Dependencies["utils"]
	if !ok {
		t.Fatalf("missing dependency `utils`")
	}

	if utils.Path != "" || utils.Spec == nil || utils.Spec.Caret {
		t.Errorf("unexpected `utils` dependency: %+v", utils)
	}

	if len(man.WorkspaceMembers) != 2 {
		t.Fatalf("expected 2 workspace members, got %d", len(man.WorkspaceMembers))
	}
}

func TestLoadManifestMissingFields(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "daisy.toml"), "version = \"1.0.0\"\n")

	if _, ok := LoadManifest(dir); ok {
		t.Errorf("expected manifest without a name to fail")
	}

	if report.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", report.ErrorCount())
	}
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "daisy.toml"), "name = \"app\"\nversion = \"1.0.0\"\n")

	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create directory: %s", err)
	}

	found, ok := FindManifest(nested)
	if !ok {
		t.Fatalf("FindManifest failed from nested directory")
	}

	if found != dir {
		t.Errorf("expected %s, got %s", dir, found)
	}
}
