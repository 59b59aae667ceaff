package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelf/internal/testsupport"
)

func TestOrganizeCommandMovesFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFile(t, filepath.Join(src, "report.pdf"), "r")
	testsupport.WriteFile(t, filepath.Join(src, "photo.jpg"), "p")

	stdout, _, err := runCLI(t, []string{"organize", src}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if !strings.Contains(stdout, "Moved 2 file(s), 0 failed") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}

	if _, err := os.Stat(filepath.Join(src, "pdf", "report.pdf")); err != nil {
		t.Fatalf("expected moved pdf: %v", err)
	}
	if _, err := os.Stat(filepath.Join(src, "jpg", "photo.jpg")); err != nil {
		t.Fatalf("expected moved jpg: %v", err)
	}
	if _, err := os.Stat(env.cfg.UndoLogPath()); err != nil {
		t.Fatalf("expected undo log at %s: %v", env.cfg.UndoLogPath(), err)
	}
}

func TestOrganizeCommandDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFile(t, filepath.Join(src, "report.pdf"), "r")

	stdout, _, err := runCLI(t, []string{"organize", "--dry-run", src}, env.configPath)
	if err != nil {
		t.Fatalf("organize --dry-run: %v", err)
	}
	if !strings.Contains(stdout, "Dry run: 1 move(s) planned") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}

	if _, err := os.Stat(filepath.Join(src, "report.pdf")); err != nil {
		t.Fatalf("dry run must not move files: %v", err)
	}
	if _, err := os.Stat(env.cfg.UndoLogPath()); !os.IsNotExist(err) {
		t.Fatalf("dry run must not write the undo log, stat err = %v", err)
	}
}

func TestOrganizeCommandDateMode(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFile(t, filepath.Join(src, "notes.txt"), "n")

	if _, _, err := runCLI(t, []string{"organize", "--mode", "date", src}, env.configPath); err != nil {
		t.Fatalf("organize --mode date: %v", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() || len(entries[0].Name()) != 4 {
		t.Fatalf("expected a single YYYY directory, got %v", entries)
	}
}

func TestOrganizeCommandSeparateTarget(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox")
	target := filepath.Join(env.baseDir, "sorted")
	testsupport.WriteFile(t, filepath.Join(src, "a.txt"), "a")

	if _, _, err := runCLI(t, []string{"organize", "--target", target, src}, env.configPath); err != nil {
		t.Fatalf("organize --target: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "txt", "a.txt")); err != nil {
		t.Fatalf("expected file under target: %v", err)
	}
}

func TestOrganizeCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFile(t, filepath.Join(src, "a.txt"), "a")

	stdout, _, err := runCLI(t, []string{"organize", "--json", src}, env.configPath)
	if err != nil {
		t.Fatalf("organize --json: %v", err)
	}

	var payload organizePayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("parse JSON output: %v\n%s", err, stdout)
	}
	if payload.Mode != "ext" || payload.Moved != 1 || payload.Failed != 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestOrganizeCommandJSONFailureExitsNonZero(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Organize.MaxSuffixAttempts = 1
	writeTestConfig(t, env.configPath, env.cfg)

	// Both the plain and the " (1)" destination are occupied, so planning
	// this file exhausts its suffix attempts.
	src := filepath.Join(env.baseDir, "inbox")
	target := filepath.Join(env.baseDir, "sorted")
	testsupport.WriteFile(t, filepath.Join(target, "txt", "a.txt"), "x")
	testsupport.WriteFile(t, filepath.Join(target, "txt", "a (1).txt"), "x")
	testsupport.WriteFile(t, filepath.Join(src, "a.txt"), "blocked")

	stdout, _, err := runCLI(t, []string{"organize", "--target", target, "--json", src}, env.configPath)
	if err == nil {
		t.Fatal("expected organize --json with a failure to return an error")
	}

	// The JSON report is still emitted before the failure surfaces.
	var payload organizePayload
	if jsonErr := json.Unmarshal([]byte(stdout), &payload); jsonErr != nil {
		t.Fatalf("parse JSON output: %v\n%s", jsonErr, stdout)
	}
	if payload.Failed != 1 || len(payload.Unplanned) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestOrganizeCommandUndoLogFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFile(t, filepath.Join(src, "a.txt"), "a")
	logPath := filepath.Join(env.baseDir, "custom.jsonl")

	if _, _, err := runCLI(t, []string{"organize", "--undo-log", logPath, src}, env.configPath); err != nil {
		t.Fatalf("organize --undo-log: %v", err)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("expected undo log at custom path: %v", err)
	}
	if _, err := os.Stat(env.cfg.UndoLogPath()); !os.IsNotExist(err) {
		t.Fatalf("default undo log should be untouched, stat err = %v", err)
	}
}

func TestOrganizeCommandRejectsUnknownMode(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFile(t, filepath.Join(src, "a.txt"), "a")

	if _, _, err := runCLI(t, []string{"organize", "--mode", "size", src}, env.configPath); err == nil {
		t.Fatal("expected unknown mode to fail")
	}
}

func TestOrganizeCommandMissingSourceFails(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "absent")

	if _, _, err := runCLI(t, []string{"organize", missing}, env.configPath); err == nil {
		t.Fatal("expected missing source to fail")
	}
}
