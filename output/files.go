package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"caixa_scrooper/models"
)

const filePrefix = "caixa_imoveis"

// Basename builds the extensionless output name for a run, e.g.
// caixa_imoveis_RN_Sao_Goncalo_2024-01-15T10-30-45-123Z.
func Basename(region, locality string, ts time.Time) string {
	stamp := ts.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("%s_%s_%s_%s", filePrefix, region, strings.ReplaceAll(locality, " ", "_"), stamp)
}

// WriteFiles writes records once per format into dir and returns the paths
// written, in format order. opts apply to every writer.
func WriteFiles(dir, base string, records models.ResultSet, formats []Format, opts ...WriterOption) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	for _, format := range formats {
		path := filepath.Join(dir, base+"."+string(format))
		if err := writeFile(path, format, records, opts); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, format Format, records models.ResultSet, opts []WriterOption) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := NewWriter(f, format, opts...)
	if err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
