package output

import (
	"bufio"
	"io"
	"strings"

	"caixa_scrooper/models"
)

// CSVWriter writes a delimited table. The header row holds the field names
// unquoted; every data value is quoted with embedded quotes doubled. Lines
// are joined with "\n" and there is no trailing newline. An empty result
// set produces an empty body.
type CSVWriter struct {
	w       *bufio.Writer
	delim   string
	records models.ResultSet
}

func NewCSVWriter(w io.Writer, delimiter string) *CSVWriter {
	return &CSVWriter{
		w:     bufio.NewWriter(w),
		delim: delimiter,
	}
}

func (w *CSVWriter) WriteAll(records models.ResultSet) error {
	w.records = append(w.records, records...)
	return nil
}

func (w *CSVWriter) Flush() error {
	if len(w.records) == 0 {
		return w.w.Flush()
	}

	lines := make([]string, 0, len(w.records)+1)
	lines = append(lines, strings.Join(models.FieldNames(), w.delim))
	for i := range w.records {
		values := w.records[i].Values()
		for j, v := range values {
			values[j] = Quote(v)
		}
		lines = append(lines, strings.Join(values, w.delim))
	}

	if _, err := w.w.WriteString(strings.Join(lines, "\n")); err != nil {
		return err
	}
	return w.w.Flush()
}

// Quote wraps v in double quotes, doubling any quote inside it.
func Quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
