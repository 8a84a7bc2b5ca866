package navigator

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Func adapts a plain function to the table Navigator interface.
type Func func(path, rawQuery string)

// Replace calls f.
func (f Func) Replace(path, rawQuery string) {
	f(path, rawQuery)
}

// Writer prints every replaced URL on its own line, prefixed with a base URL.
// The CLI uses it to print shareable links.
type Writer struct {
	out    io.Writer
	base   string
	logger zerolog.Logger
}

// NewWriter creates a writer navigator. base is prepended to every path
// (for example "https://admin.example.com").
func NewWriter(out io.Writer, base string, logger zerolog.Logger) *Writer {
	return &Writer{out: out, base: base, logger: logger}
}

// Replace records and prints the URL.
func (w *Writer) Replace(path, rawQuery string) {
	link := w.base + Entry{Path: path, RawQuery: rawQuery}.String()
	if _, err := fmt.Fprintln(w.out, link); err != nil {
		w.logger.Warn().Err(err).Str("url", link).Msg("Failed to write URL")
		return
	}
	w.logger.Debug().Str("url", link).Msg("URL replaced")
}
