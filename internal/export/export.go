// Package export writes sample records as CSV or XLSX documents.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fentz26/labtrack/internal/models"
)

// Columns left out of every export.
var excluded = map[string]bool{
	"tatStart": true,
	"tatEnd":   true,
}

// Field is one key/value pair of a record. Value is nil for JSON null.
type Field struct {
	Key   string
	Value interface{}
}

// Record is an ordered list of fields.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (interface{}, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// FromSamples converts samples to records in their JSON field order.
func FromSamples(samples []models.SampleRecord) ([]Record, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(samples)
	if err != nil {
		return nil, fmt.Errorf("encode samples: %w", err)
	}
	return FromJSON(data)
}

// FromJSON parses a JSON array of objects, keeping each object's key order.
func FromJSON(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read array: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errors.New("expected a JSON array of objects")
	}

	var records []Record
	for dec.More() {
		rec, err := readObject(dec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read array end: %w", err)
	}
	return records, nil
}

func readObject(dec *json.Decoder) (Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("expected an object")
	}

	var rec Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		rec = append(rec, Field{Key: key, Value: decodeValue(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rec, nil
}

// decodeValue keeps scalars as Go values and nested structures as their
// compact JSON text.
func decodeValue(raw json.RawMessage) interface{} {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return string(trimmed)
		}
		return buf.String()
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return string(trimmed)
	}
	return v
}

// Header returns the export columns: the first record's keys minus the
// excluded timing fields.
func Header(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	var cols []string
	for _, f := range records[0] {
		if !excluded[f.Key] {
			cols = append(cols, f.Key)
		}
	}
	return cols
}

// WriteCSV writes records as CSV. Rows are joined with "\n" and there is no
// trailing newline. Only values containing a comma are quoted. No records
// produce an empty document.
func WriteCSV(w io.Writer, records []Record) error {
	_, err := io.WriteString(w, CSV(records))
	return err
}

// CSV renders records as a CSV document.
func CSV(records []Record) string {
	cols := Header(records)
	if len(cols) == 0 {
		return ""
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(cols, ","))
	for _, rec := range records {
		cells := make([]string, len(cols))
		for i, col := range cols {
			v, _ := rec.Get(col)
			cells[i] = csvCell(v)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

func csvCell(v interface{}) string {
	s := formatValue(v)
	if strings.Contains(s, ",") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}

// WriteFile writes samples to path, as XLSX when the extension is .xlsx and
// as CSV otherwise.
func WriteFile(path string, samples []models.SampleRecord) error {
	records, err := FromSamples(samples)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = WriteXLSX(f, records)
	} else {
		err = WriteCSV(f, records)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
