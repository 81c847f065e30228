package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncodeCSV serializes the table to delimited text: a header row naming
// the canonical columns, then one row per record, every value as text.
func EncodeCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Columns); err != nil {
		return nil, err
	}
	row := make([]string, len(Columns))
	for _, rec := range t {
		for i, col := range Columns {
			row[i] = rec.Field(col)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCSV parses delimited text into a table. The first row is the
// header; cells are mapped to canonical columns by header name, so column
// order in the input does not matter. Unknown columns are dropped and
// missing columns come back empty. Input that is not valid UTF-8 is
// re-read as Windows-1252 before parsing.
func DecodeCSV(data []byte) (Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decoding legacy encoding: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // tolerate ragged rows; short rows pad with ""

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parsing csv: missing header row")
	}

	return TableFromRows(rows)
}

// TableFromRows builds a table from a header row plus data rows. Shared
// by the CSV and spreadsheet decoders.
func TableFromRows(rows [][]string) (Table, error) {
	header := rows[0]
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header row")
	}

	table := make(Table, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var rec Record
		for i, col := range header {
			if i >= len(row) {
				break
			}
			rec.SetField(col, row[i])
		}
		table = append(table, rec)
	}
	return table, nil
}
