package undolog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// ErrCorrupt indicates the undo log could not be parsed. Reversal order cannot
// be trusted past a malformed line, so corruption is fatal for a whole undo
// run rather than skippable per entry.
var ErrCorrupt = errors.New("undo log corrupt")

// Entry records one completed move. Entries are immutable once written; the
// on-disk order is the exact order moves were executed.
type Entry struct {
	Original   string    `json:"original"`
	Moved      string    `json:"moved"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Log is a persisted, append-only sequence of entries encoded as JSON Lines.
// The text encoding keeps the log human-inspectable so a user can audit or
// hand-edit it before replaying an undo.
type Log struct {
	path string
	lock *flock.Flock
}

// New binds a Log to a path. The file is created lazily on first append.
func New(path string) *Log {
	return &Log{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Lock takes the advisory lock guarding this log. It fails immediately when
// another shelf process holds it; waiting would only interleave two passes
// over the same files.
func (l *Log) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create undo log directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire undo log lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("undo log %s is in use by another shelf process", l.path)
	}
	return nil
}

// Unlock releases the advisory lock.
func (l *Log) Unlock() {
	_ = l.lock.Unlock()
}

// Append writes one entry to the end of the log, creating the file if absent.
// The write is flushed to stable storage before returning so the log reflects
// every completed move even if the process dies on the next one.
func (l *Log) Append(entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create undo log directory: %w", err)
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode undo entry: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open undo log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("append undo entry: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync undo log: %w", err)
	}
	return file.Close()
}

// Entries reads the full log in recorded order. A missing file is an empty
// log. Any malformed line makes the whole log unusable and returns ErrCorrupt.
func (l *Log) Entries() ([]Entry, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open undo log: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrCorrupt, l.path, line, err)
		}
		if entry.Original == "" || entry.Moved == "" {
			return nil, fmt.Errorf("%w: %s line %d: missing path fields", ErrCorrupt, l.path, line)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read undo log: %w", err)
	}
	return entries, nil
}

// Rewrite replaces the log contents with the given entries, preserving their
// order. An empty set removes the file entirely. The rewrite goes through a
// temporary file plus rename so a crash never leaves a half-written log.
func (l *Log) Rewrite(entries []Entry) error {
	if len(entries) == 0 {
		if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove undo log: %w", err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp undo log: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmp)
	for _, entry := range entries {
		encoded, err := json.Marshal(entry)
		if err != nil {
			_ = tmp.Close()
			return fmt.Errorf("encode undo entry: %w", err)
		}
		if _, err := writer.Write(append(encoded, '\n')); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write temp undo log: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush temp undo log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp undo log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp undo log: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		return fmt.Errorf("replace undo log: %w", err)
	}
	return nil
}
