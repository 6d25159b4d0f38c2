// Package output serializes a result set into the supported file formats.
package output

import (
	"fmt"
	"io"
	"strings"

	"caixa_scrooper/models"
)

// Format represents output format types.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// Writer buffers records and serializes them on Flush.
type Writer interface {
	// WriteAll buffers multiple records.
	WriteAll(records models.ResultSet) error

	// Flush writes everything buffered so far.
	Flush() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	indent    string
	delimiter string
}

// WithIndent sets the JSON indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// WithDelimiter sets the CSV column delimiter.
func WithDelimiter(delim string) WriterOption {
	return func(c *writerConfig) {
		c.delimiter = delim
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		indent:    "  ",
		delimiter: ";",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.indent), nil
	case FormatCSV:
		return NewCSVWriter(w, cfg.delimiter), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// ParseFormats parses a comma separated list such as "json,csv".
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		switch f {
		case FormatJSON, FormatCSV, FormatYAML:
		default:
			return nil, fmt.Errorf("unsupported output format: %s", f)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no output format given")
	}
	return formats, nil
}

// ContentType returns the MIME type used when uploading a file of format f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}
