package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
)

// relativeTo shortens path for display when it sits under base.
func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// printRows renders rows as a bordered table on a terminal and as plain
// tab-separated lines otherwise, so piped output stays script-friendly.
func printRows(w io.Writer, headers []string, rows [][]string) {
	if isTerminal(w) {
		fmt.Fprintln(w, renderTable(headers, rows, nil))
		return
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
