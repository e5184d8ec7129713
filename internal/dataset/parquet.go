package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ReadParquet loads every row of a Parquet file. Column order follows the
// file schema; nested columns are rendered as text.
func ReadParquet(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	fields := pqFile.Schema().Fields()
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, field.Name())
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ds := New(name, columns)

	reader := parquet.NewReader(pqFile)
	defer func() { _ = reader.Close() }()

	for {
		raw := make(map[string]interface{})
		if err := reader.Read(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row %d: %w", ds.Len()+1, err)
		}

		row := make(Row, len(raw))
		for key, val := range raw {
			v := FromAny(val)
			if v.IsMissing() {
				continue
			}
			row[key] = v
		}
		if err := ds.Append(row); err != nil {
			return nil, err
		}
	}

	return ds, nil
}
