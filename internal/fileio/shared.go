package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file")
	ErrEmptyFile       = errors.New("empty file")
)

// Table — прочитанный лист: заголовки, строки как map[header]value и число
// пропущенных битых строк.
type Table struct {
	Headers []string
	Rows    []map[string]string
	Skipped int
}

// ReadAny — выберет парсер по расширению. headerRow — номер строки
// заголовков (1-based).
func ReadAny(r io.Reader, filename string, headerRow int) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		t   *Table
		err error
	)
	switch ext {
	case ".xlsx":
		t, err = readXLSX(r, headerRow)
	case ".xls":
		t, err = readXLS(r, headerRow)
	case ".csv", ".txt":
		t, err = readCSV(r, headerRow)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if t == nil || len(t.Headers) == 0 {
		return nil, fmt.Errorf("read %s: %w", filename, ErrEmptyFile)
	}
	return t, nil
}

// tableFromRows — AoA → Table по строке заголовков.
func tableFromRows(rows [][]string, headerRow int) *Table {
	if len(rows) == 0 {
		return nil
	}
	h := pickHeader(rows, headerRow)
	return &Table{Headers: h, Rows: rowsToMaps(rows, h, headerRow)}
}

// pickHeader — берёт строку заголовков, подставляет "Column N" для пустых и
// добавляет суффикс к повторам.
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, v := range h {
		v = strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		if n := seen[v]; n > 0 {
			seen[v]++
			v = fmt.Sprintf("%s (%d)", v, n+1)
		} else {
			seen[v] = 1
		}
		out[i] = v
	}
	return out
}

// rowsToMaps — пропускает полностью пустые строки.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	start := headerRow // первая строка после заголовков
	if start < 1 {
		start = 1
	}
	var out []map[string]string
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := 0; c < len(headers); c++ {
			var v string
			if c < len(rec) {
				v = rec[c]
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			m[headers[c]] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}
