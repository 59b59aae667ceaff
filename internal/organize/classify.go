package organize

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Mode selects the classification scheme for an organize run.
type Mode string

const (
	// ModeExtension groups files by lowercased extension.
	ModeExtension Mode = "ext"
	// ModeDate groups files by modification date as YYYY/MM.
	ModeDate Mode = "date"
)

// NoExtensionBucket is the subdirectory for files without an extension.
const NoExtensionBucket = "no_ext"

// ParseMode validates a user-supplied mode selector.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeExtension:
		return ModeExtension, nil
	case ModeDate:
		return ModeDate, nil
	default:
		return "", fmt.Errorf("mode must be %q or %q, got %q", ModeExtension, ModeDate, value)
	}
}

// Classify returns the destination subdirectory for a file, relative to the
// target directory. It is a pure function of the file name and its
// modification time.
func Classify(name string, modTime time.Time, mode Mode) string {
	switch mode {
	case ModeDate:
		return modTime.Local().Format("2006/01")
	default:
		_, ext := splitExt(name)
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext == "" {
			return NoExtensionBucket
		}
		return ext
	}
}

// splitExt separates a file name into stem and extension. A dotfile like
// ".bashrc" counts as having no extension rather than being all extension.
func splitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}
