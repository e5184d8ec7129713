package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// delimitersToGuess are tried in order when sniffing a delimited file.
var delimitersToGuess = []rune{',', '\t', '|', ';'}

// sniffLines is how many leading records are used to guess the delimiter.
const sniffLines = 10

// ReadCSV parses a delimited text table with a header row. The delimiter is
// guessed from the first records; blank lines are skipped and cells are
// typed with ParseCell.
func ReadCSV(r io.Reader, name string) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))

	reader := newCSVReader(raw, GuessDelimiter(raw))
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: no header row", name)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", name, err)
	}

	ds := New(name, header)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if isBlankRecord(record) {
			continue
		}

		row := make(Row, len(ds.Columns))
		for i, cell := range record {
			if i >= len(ds.Columns) {
				break
			}
			v := ParseCell(cell)
			if v.IsMissing() {
				continue
			}
			row[ds.Columns[i]] = v
		}
		if err := ds.Append(row); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// GuessDelimiter picks the delimiter that splits the leading records into a
// consistent number of fields greater than one. Ties go to the earlier
// candidate; the comma is the fallback.
func GuessDelimiter(raw []byte) rune {
	best := ','
	bestFields := 1
	for _, delim := range delimitersToGuess {
		reader := newCSVReader(raw, delim)
		fields := -1
		consistent := true
		for i := 0; i < sniffLines; i++ {
			record, err := reader.Read()
			if err != nil {
				break
			}
			if isBlankRecord(record) {
				continue
			}
			if fields == -1 {
				fields = len(record)
				continue
			}
			if len(record) != fields {
				consistent = false
				break
			}
		}
		if consistent && fields > bestFields {
			best = delim
			bestFields = fields
		}
	}
	return best
}

func newCSVReader(raw []byte, delim rune) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
