package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files LoadFile cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported data format")

// LoadFile loads a dataset from disk, choosing the decoder by extension.
func LoadFile(path string) (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch ext {
	case ".csv", ".tsv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f, name)
	case ".parquet", ".pq":
		return ReadParquet(path)
	default:
		return nil, fmt.Errorf("%w: %q (expected .csv, .tsv or .parquet)", ErrUnsupportedFormat, ext)
	}
}
