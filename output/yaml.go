package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"caixa_scrooper/models"
)

// YAMLWriter writes YAML output.
type YAMLWriter struct {
	w       *bufio.Writer
	records models.ResultSet
}

func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:       bufio.NewWriter(w),
		records: models.ResultSet{},
	}
}

func (w *YAMLWriter) WriteAll(records models.ResultSet) error {
	w.records = append(w.records, records...)
	return nil
}

func (w *YAMLWriter) Flush() error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	if err := encoder.Encode(w.records); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}
