package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/licensegate/cmd/licensegate/internal/clierr"
	"github.com/bartekus/licensegate/internal/processor"
	"github.com/bartekus/licensegate/internal/testutil/golden"
)

const acme = "Copyright ACME\nAll rights reserved\n"

// execute runs the root command inside dir and returns stdout and the error.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(dir)

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setup(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestCLIContract(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--help")
	require.NoError(t, err)

	for _, flag := range []string{
		"--license-filepath",
		"--comment-style",
		"--detect-license-in-X-top-lines",
		"--fuzzy-match-generates-todo",
		"--fuzzy-ratio-cut-off",
		"--fuzzy-match-todo-comment",
		"--skip-license-insertion-comment",
		"--remove-header",
		"--dry-run",
		"--json",
		"--staged",
		"--all-files",
		"version",
	} {
		assert.Contains(t, out, flag)
	}
}

func TestVersion(t *testing.T) {
	t.Setenv("LICENSEGATE_VERSION", "1.2.3")
	out, err := execute(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "licensegate version 1.2.3\n", out)
}

func TestInsertThenIdempotent(t *testing.T) {
	testdata := golden.TestdataDir(t)
	dir := setup(t, map[string]string{
		"LICENSE.txt": acme,
		"a.py":        "#!/usr/bin/env tool\nprint(1)\n",
	})

	out, err := execute(t, dir, "a.py")
	require.Error(t, err)
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))
	assert.True(t, clierr.Silent(err))
	golden.Equal(t, testdata, "insert_banner", out)
	golden.Equal(t, testdata, "insert_file", readFile(t, dir, "a.py"))

	out, err = execute(t, dir, "a.py")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRemoveHeader(t *testing.T) {
	original := "x = 1\n"
	dir := setup(t, map[string]string{
		"LICENSE.txt": acme,
		"a.py":        original,
	})

	_, err := execute(t, dir, "a.py")
	require.Error(t, err)

	_, err = execute(t, dir, "--remove-header", "a.py")
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))
	assert.Equal(t, original, readFile(t, dir, "a.py"))

	_, err = execute(t, dir, "--remove-header", "a.py")
	assert.NoError(t, err)
}

func TestFuzzyAnnotate(t *testing.T) {
	dir := setup(t, map[string]string{
		"LICENSE.txt": acme,
		"a.py":        "# Copyright ACME Corp\n# All rights reserved\n\nprint(1)\n",
	})

	_, err := execute(t, dir, "--fuzzy-match-generates-todo", "a.py")
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))
	golden.Equal(t, golden.TestdataDir(t), "annotate_file", readFile(t, dir, "a.py"))

	// The TODO line marks the file as handled.
	_, err = execute(t, dir, "--fuzzy-match-generates-todo", "a.py")
	assert.NoError(t, err)
}

func TestSkipMarker(t *testing.T) {
	content := "# SKIP LICENSE INSERTION\nprint(1)\n"
	dir := setup(t, map[string]string{
		"LICENSE.txt": acme,
		"a.py":        content,
	})

	_, err := execute(t, dir, "a.py")
	require.NoError(t, err)
	assert.Equal(t, content, readFile(t, dir, "a.py"))
}

func TestDryRunJSON(t *testing.T) {
	dir := setup(t, map[string]string{
		"LICENSE.txt": acme,
		"a.py":        "print(1)\n",
		"b.py":        "# Copyright ACME\n# All rights reserved\n\nprint(2)\n",
	})

	out, err := execute(t, dir, "--dry-run", "--json", "a.py", "b.py")
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))
	assert.Equal(t, "print(1)\n", readFile(t, dir, "a.py"))

	var got struct {
		Status  string   `json:"status"`
		DryRun  bool     `json:"dry_run"`
		Changed []string `json:"changed"`
		Files   []struct {
			Path   string `json:"path"`
			Action string `json:"action"`
			Match  string `json:"match"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "fail", got.Status)
	assert.True(t, got.DryRun)
	assert.Equal(t, []string{"a.py"}, got.Changed)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "inserted", got.Files[0].Action)
	assert.Equal(t, "unchanged", got.Files[1].Action)
	assert.Equal(t, "exact", got.Files[1].Match)
}

func TestConfigFile(t *testing.T) {
	dir := setup(t, map[string]string{
		"LICENSE.txt":       acme,
		"a.go":              "package a\n",
		"gen/b.go":          "package gen\n",
		".licensegate.yaml": "comment_style: \"//\"\nexclude:\n  - \"gen/**\"\n",
	})

	_, err := execute(t, dir, "a.go", "gen/b.go")
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))
	assert.Equal(t, "// Copyright ACME\n// All rights reserved\n\npackage a\n", readFile(t, dir, "a.go"))
	assert.Equal(t, "package gen\n", readFile(t, dir, "gen/b.go"))

	// Flags win over the file.
	dir = setup(t, map[string]string{
		"LICENSE.txt":       acme,
		"a.go":              "package a\n",
		".licensegate.yaml": "comment_style: \"//\"\n",
	})
	_, err = execute(t, dir, "--comment-style", "/*| *| */", "a.go")
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))
	assert.Equal(t, "/*\n * Copyright ACME\n * All rights reserved\n */\n\npackage a\n", readFile(t, dir, "a.go"))
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		args  []string
	}{
		{"missing license", map[string]string{"a.py": "x\n"}, []string{"a.py"}},
		{"empty license", map[string]string{"LICENSE.txt": "", "a.py": "x\n"}, []string{"a.py"}},
		{"malformed style", map[string]string{"LICENSE.txt": acme}, []string{"--comment-style", "/*|*/", "a.py"}},
		{"cutoff out of range", map[string]string{"LICENSE.txt": acme}, []string{"--fuzzy-ratio-cut-off", "101", "a.py"}},
		{"zero window", map[string]string{"LICENSE.txt": acme}, []string{"--detect-license-in-X-top-lines", "0", "a.py"}},
		{"bad exclude", map[string]string{"LICENSE.txt": acme}, []string{"--exclude", "broken[", "a.py"}},
		{"missing explicit config", map[string]string{"LICENSE.txt": acme}, []string{"--config", "nope.yaml", "a.py"}},
		{"broken config", map[string]string{"LICENSE.txt": acme, ".licensegate.yaml": "jobs: [\n"}, []string{"a.py"}},
		{"staged and all", map[string]string{"LICENSE.txt": acme}, []string{"--staged", "--all-files"}},
		{"args with staged", map[string]string{"LICENSE.txt": acme}, []string{"--staged", "a.py"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setup(t, tt.files)
			_, err := execute(t, dir, tt.args...)
			require.Error(t, err)
			assert.Equal(t, clierr.ExitConfig, clierr.ExitCodeOf(err))
		})
	}
}

func TestMissingFile(t *testing.T) {
	dir := setup(t, map[string]string{"LICENSE.txt": acme})
	_, err := execute(t, dir, "nope.py")
	require.Error(t, err)
	assert.Equal(t, clierr.ExitIO, clierr.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "nope.py")

	var fe *processor.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "nope.py", fe.Path)
}

func TestFileArguments(t *testing.T) {
	dir := setup(t, map[string]string{
		"LICENSE.txt": acme,
		"a.py":        "print(1)\n",
		"b.py":        "print(2)\n",
		"c.py":        "# Copyright ACME\n# All rights reserved\n\nprint(3)\n",
	})

	out, err := execute(t, dir, "a.py", "b.py", "c.py")
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))
	assert.Contains(t, out, "['a.py', 'b.py']")
	for _, name := range []string{"a.py", "b.py"} {
		assert.Contains(t, readFile(t, dir, name), "# Copyright ACME\n")
	}
}

func TestCancelledRunIsIOError(t *testing.T) {
	dir := setup(t, map[string]string{
		"LICENSE.txt": acme,
		"a.py":        "print(1)\n",
	})
	t.Chdir(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"a.py"})
	err := cmd.ExecuteContext(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, clierr.ExitIO, clierr.ExitCodeOf(err))
	assert.Equal(t, "print(1)\n", readFile(t, dir, "a.py"))
}

func TestNoFiles(t *testing.T) {
	dir := setup(t, map[string]string{"LICENSE.txt": acme})
	out, err := execute(t, dir)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAllFiles(t *testing.T) {
	dir := setup(t, map[string]string{
		"LICENSE.txt":   acme,
		"main.py":       "print(1)\n",
		"vendor/lib.py": "print(2)\n",
		"done.py":       "# Copyright ACME\n# All rights reserved\n\nprint(3)\n",
	})
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
		{"add", "main.py", "vendor/lib.py", "done.py"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	_, err := execute(t, dir, "--staged", "--dry-run")
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))

	_, err = execute(t, dir, "--all-files")
	assert.Equal(t, clierr.ExitChanged, clierr.ExitCodeOf(err))
	assert.Equal(t, "# Copyright ACME\n# All rights reserved\n\nprint(1)\n", readFile(t, dir, "main.py"))
	assert.Equal(t, "print(2)\n", readFile(t, dir, "vendor/lib.py"))

	_, err = execute(t, dir, "--all-files")
	assert.NoError(t, err)
}
