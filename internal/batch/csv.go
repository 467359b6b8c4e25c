// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/keyword-query/pkg/types"
)

// Required header columns, in order.
const (
	ColumnKeyword1 = "keyword1"
	ColumnKeyword2 = "keyword2"
)

// ErrNotCSV is returned by LoadCSV for files without a .csv extension.
var ErrNotCSV = errors.New("the file is not a *.csv file")

// LoadCSV reads a batch from a .csv file.
func LoadCSV(path string) (types.QueryBatch, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return types.QueryBatch{}, fmt.Errorf("%s: %w", path, ErrNotCSV)
	}
	f, err := os.Open(path)
	if err != nil {
		return types.QueryBatch{}, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()

	b, err := ReadCSV(f)
	if err != nil {
		return types.QueryBatch{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ReadCSV parses a batch whose first two header columns are keyword1 and
// keyword2. Further columns are ignored. Blank lines are skipped; a row with
// a missing or empty keyword is an error naming its line.
func ReadCSV(r io.Reader) (types.QueryBatch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return types.QueryBatch{}, fmt.Errorf("batch file is empty")
	}
	if err != nil {
		return types.QueryBatch{}, fmt.Errorf("reading header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return types.QueryBatch{}, err
	}

	var batch types.QueryBatch
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.QueryBatch{}, fmt.Errorf("reading rows: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if blank(record) {
			continue
		}
		if len(record) < 2 {
			return types.QueryBatch{}, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(record))
		}
		pair := types.KeywordPair{
			Keyword1: strings.TrimSpace(record[0]),
			Keyword2: strings.TrimSpace(record[1]),
		}
		if pair.IsEmpty() {
			return types.QueryBatch{}, fmt.Errorf("line %d: one or both of the keywords is empty", line)
		}
		batch.Rows = append(batch.Rows, pair)
	}
	return batch, nil
}

func checkHeader(header []string) error {
	col := func(i int) string {
		if i >= len(header) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if col(0) != ColumnKeyword1 || col(1) != ColumnKeyword2 {
		return fmt.Errorf("column names (%s, %s) are not equal to (%s, %s)",
			col(0), col(1), ColumnKeyword1, ColumnKeyword2)
	}
	return nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
