package etl

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/siad-agro/siad-api/internal/db"
)

var dateLayouts = []string{
	"2006-01-02", "2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05", "2006/01/02", "02/01/2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q not recognised", s)
}

// NormalizeRainfall rewrites a rainfall CSV with ISO dates and negative readings
// clipped to zero. The result is stored next to the source as <name>_normalized.csv.
func (s *Service) NormalizeRainfall(ctx context.Context, key string) (string, error) {
	data, err := s.read(ctx, key)
	if err != nil {
		return "", err
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return "", fmt.Errorf("csv: %v: %w", err, db.ErrInvalid)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("empty file: %w", db.ErrInvalid)
	}
	dateCol, rainCol := -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(h) {
		case "date":
			dateCol = i
		case "rainfall_mm":
			rainCol = i
		}
	}
	if dateCol < 0 || rainCol < 0 {
		return "", fmt.Errorf("columns date and rainfall_mm required: %w", db.ErrInvalid)
	}
	for n, row := range records[1:] {
		t, err := parseDate(row[dateCol])
		if err != nil {
			return "", fmt.Errorf("row %d: %v: %w", n+2, err, db.ErrInvalid)
		}
		row[dateCol] = t.Format(db.DateLayout)
		mm, err := strconv.ParseFloat(strings.TrimSpace(row[rainCol]), 64)
		if err != nil {
			return "", fmt.Errorf("row %d: rainfall %q: %w", n+2, row[rainCol], db.ErrInvalid)
		}
		row[rainCol] = strconv.FormatFloat(max(mm, 0), 'f', -1, 64)
	}

	var out bytes.Buffer
	w := csv.NewWriter(&out)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	ext := path.Ext(key)
	return s.blobs.Put(ctx, strings.TrimSuffix(key, ext)+"_normalized.csv", &out)
}

type Mapping struct {
	FileKey   string            `json:"file_path"`
	Delimiter string            `json:"delimiter"`
	ColumnMap map[string]string `json:"column_map"`
}

type Preview struct {
	Columns []string         `json:"columns"`
	Sample  []map[string]any `json:"sample"`
}

const previewRows = 5

// Preview reads the first rows of a stored CSV with columns renamed by ColumnMap.
func (s *Service) Preview(ctx context.Context, m Mapping) (Preview, error) {
	delim := ','
	if m.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(m.Delimiter)
		if size != len(m.Delimiter) || r == '"' || r == '\n' {
			return Preview{}, fmt.Errorf("delimiter %q: %w", m.Delimiter, db.ErrInvalid)
		}
		delim = r
	}
	data, err := s.read(ctx, m.FileKey)
	if err != nil {
		return Preview{}, err
	}
	rd := csv.NewReader(bytes.NewReader(data))
	rd.Comma = delim
	rd.FieldsPerRecord = -1
	header, err := rd.Read()
	if err != nil {
		return Preview{}, fmt.Errorf("csv header: %v: %w", err, db.ErrInvalid)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if to, ok := m.ColumnMap[h]; ok {
			h = to
		}
		cols[i] = h
	}
	p := Preview{Columns: cols, Sample: []map[string]any{}}
	for len(p.Sample) < previewRows {
		row, err := rd.Read()
		if err != nil {
			break
		}
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			if i < len(row) {
				rec[c] = cellValue(row[i])
			} else {
				rec[c] = nil
			}
		}
		p.Sample = append(p.Sample, rec)
	}
	return p, nil
}

func cellValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
