// Надёжный парсер .xls: фиксируем ширину таблицы сами и читаем все ячейки до неё.
package fileio

import (
	"bytes"
	"errors"
	"io"
	"strings"

	xls "github.com/extrame/xls"
)

var cellSpaces = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "\r", " ", "\n", " ")

// normalizeCell — неразрывные пробелы и переводы строк → пробел, обрезка краёв.
func normalizeCell(s string) string {
	return strings.TrimSpace(cellSpaces.Replace(s))
}

// ширина листа: самая правая непустая ячейка среди первых probeMax колонок.
// Row.LastCol() у выгрузок из касс врёт, поэтому считаем сами.
func sheetWidth(sheet *xls.WorkSheet) int {
	const probeMax = 512
	width := 1
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		for j := probeMax - 1; j >= width; j-- {
			if normalizeCell(row.Col(j)) != "" {
				width = j + 1
				break
			}
		}
	}
	return width
}

func readXLS(r io.Reader, headerRow int) (*Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	wb, err := openWorkbook(b, "utf-8", "windows-1252", "windows-1251")
	if err != nil {
		return nil, err
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}

	width := sheetWidth(sheet)
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		cols := make([]string, width)
		if row := sheet.Row(i); row != nil {
			for j := range cols {
				cols[j] = normalizeCell(row.Col(j))
			}
		}
		rows = append(rows, cols)
	}
	return tableFromRows(rows, headerRow), nil
}

// openWorkbook пробует кодировки по очереди, возвращает первую удачную.
func openWorkbook(b []byte, charsets ...string) (*xls.WorkBook, error) {
	lastErr := errors.New("xls: failed to open workbook")
	for _, ch := range charsets {
		wb, err := xls.OpenReader(bytes.NewReader(b), ch)
		if err == nil && wb != nil {
			return wb, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	return nil, lastErr
}
