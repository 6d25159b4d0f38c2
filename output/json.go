package output

import (
	"bufio"
	"encoding/json"
	"io"

	"caixa_scrooper/models"
)

// JSONWriter writes the records as one indented JSON array, always an array
// even for zero or one record.
type JSONWriter struct {
	w       *bufio.Writer
	indent  string
	records models.ResultSet
}

func NewJSONWriter(w io.Writer, indent string) *JSONWriter {
	return &JSONWriter{
		w:       bufio.NewWriter(w),
		indent:  indent,
		records: models.ResultSet{},
	}
}

func (w *JSONWriter) WriteAll(records models.ResultSet) error {
	w.records = append(w.records, records...)
	return nil
}

func (w *JSONWriter) Flush() error {
	enc := json.NewEncoder(w.w)
	enc.SetIndent("", w.indent)
	// Listing text regularly contains "&" and "<".
	enc.SetEscapeHTML(false)

	if err := enc.Encode(w.records); err != nil {
		return err
	}
	return w.w.Flush()
}
