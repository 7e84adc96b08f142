package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format names a supported download format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ErrUnsupportedFormat is returned by NewRenderer for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Table is a titled grid of string cells. Summary rows are rendered after the
// body and visually separated in formats that support it.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
	Summary [][]string
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table requires at least one column")
	}
	for i, row := range append(append([][]string{}, t.Rows...), t.Summary...) {
		if len(row) > len(t.Columns) {
			return fmt.Errorf("row %d has %d cells for %d columns", i, len(row), len(t.Columns))
		}
	}
	return nil
}

// Renderer turns a Table into a downloadable document.
type Renderer interface {
	Render(t Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// ParseFormat normalizes a user supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// NewRenderer returns the renderer for format.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return NewCSVRenderer(), nil
	case FormatPDF:
		return NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
