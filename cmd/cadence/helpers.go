package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cadence/internal/store"
)

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// typeLabel renders a content type for display, e.g. "Mini Project".
func typeLabel(contentType store.ContentType) string {
	return cases.Title(language.Und).String(contentType.Label())
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02 15:04 MST")
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printRows writes a rounded table on terminals and tab-separated lines
// otherwise, so piped output stays parseable.
func printRows(out io.Writer, headers []string, rows [][]string, aligns []columnAlignment) {
	if isTerminal(out) {
		fmt.Fprintln(out, renderTable(headers, rows, aligns))
		return
	}
	fmt.Fprintln(out, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}

func parseContentTypeArg(arg string) (store.ContentType, error) {
	contentType, err := store.ParseContentType(arg)
	if err != nil {
		names := make([]string, 0, len(store.AllContentTypes))
		for _, ct := range store.AllContentTypes {
			names = append(names, string(ct))
		}
		return "", fmt.Errorf("%w (valid types: %s)", err, strings.Join(names, ", "))
	}
	return contentType, nil
}
