package undolog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelf/internal/testsupport"
	"shelf/internal/undolog"
)

func TestAppendAndEntries(t *testing.T) {
	log := undolog.New(filepath.Join(t.TempDir(), "undo_log.jsonl"))

	first := undolog.Entry{Original: "/src/a.txt", Moved: "/src/txt/a.txt", RecordedAt: time.Now().UTC()}
	second := undolog.Entry{Original: "/src/b.txt", Moved: "/src/txt/b.txt", RecordedAt: time.Now().UTC()}
	if err := log.Append(first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append(second); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := log.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Original != first.Original || entries[1].Original != second.Original {
		t.Fatalf("entries out of recorded order: %+v", entries)
	}
}

func TestEntriesMissingFile(t *testing.T) {
	log := undolog.New(filepath.Join(t.TempDir(), "absent.jsonl"))
	entries, err := log.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if entries != nil {
		t.Fatalf("expected empty log, got %+v", entries)
	}
}

func TestEntriesCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "undo_log.jsonl")
	testsupport.WriteFile(t, path, `{"original":"/a","moved":"/b","recorded_at":"2026-01-01T00:00:00Z"}`+"\nnot json\n")

	if _, err := undolog.New(path).Entries(); !errors.Is(err, undolog.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestEntriesMissingPathsAreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "undo_log.jsonl")
	testsupport.WriteFile(t, path, `{"original":"","moved":"/b","recorded_at":"2026-01-01T00:00:00Z"}`+"\n")

	if _, err := undolog.New(path).Entries(); !errors.Is(err, undolog.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestRewriteRetainsOrder(t *testing.T) {
	log := undolog.New(filepath.Join(t.TempDir(), "undo_log.jsonl"))
	kept := []undolog.Entry{
		{Original: "/src/a", Moved: "/dst/a", RecordedAt: time.Now().UTC()},
		{Original: "/src/b", Moved: "/dst/b", RecordedAt: time.Now().UTC()},
	}
	if err := log.Rewrite(kept); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	entries, err := log.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Original != "/src/a" || entries[1].Original != "/src/b" {
		t.Fatalf("unexpected entries after rewrite: %+v", entries)
	}
}

func TestRewriteEmptyRemovesFile(t *testing.T) {
	log := undolog.New(filepath.Join(t.TempDir(), "undo_log.jsonl"))
	if err := log.Append(undolog.Entry{Original: "/a", Moved: "/b", RecordedAt: time.Now()}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Rewrite(nil); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if _, err := os.Stat(log.Path()); !os.IsNotExist(err) {
		t.Fatalf("log file should be removed, stat err = %v", err)
	}
}

func TestLockRejectsSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "undo_log.jsonl")
	first := undolog.New(path)
	if err := first.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer first.Unlock()

	if err := undolog.New(path).Lock(); err == nil {
		t.Fatal("expected second lock attempt to fail")
	}
}
