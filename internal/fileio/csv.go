package fileio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const peekSize = 4096

// readCSV reads CSV with headerRow (1-based), auto-detecting encoding and
// delimiter. Rows with more fields than the header and rows the csv reader
// rejects are skipped and counted.
func readCSV(r io.Reader, headerRow int) (*Table, error) {
	br := bufio.NewReader(r)

	// UTF-8 BOM
	if b, _ := br.Peek(3); bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	peek, _ := br.Peek(peekSize)
	if len(bytes.TrimSpace(peek)) == 0 {
		return nil, ErrEmptyFile
	}

	var dec io.Reader = br
	if enc := detectCharset(peek); enc != nil {
		dec = transform.NewReader(br, enc.NewDecoder())
	}

	cr := csv.NewReader(dec)
	cr.Comma = sniffDelimiter(peek, headerRow)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	hdr := headerRow - 1
	if hdr < 0 {
		hdr = 0
	}
	var (
		rows    [][]string
		skipped int
		width   = -1
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, err
		}
		if len(rows) == hdr {
			width = len(rec)
		} else if width >= 0 && len(rec) > width && !trailingEmpty(rec[width:]) {
			skipped++
			continue
		}
		rows = append(rows, rec)
	}

	t := tableFromRows(rows, headerRow)
	if t == nil {
		return nil, ErrEmptyFile
	}
	t.Skipped = skipped
	return t, nil
}

// detectCharset — nil значит UTF-8 (или ASCII), декодировать не нужно.
func detectCharset(peek []byte) encoding.Encoding {
	// хвост буфера может оборвать многобайтовый символ
	probe := peek
	if len(probe) == peekSize {
		probe = probe[:len(probe)-utf8.UTFMax]
	}
	if utf8.Valid(probe) {
		return nil
	}
	det, err := chardet.NewTextDetector().DetectBest(peek)
	if err == nil && det != nil {
		switch strings.ToLower(det.Charset) {
		case "windows-1251", "cp1251":
			return charmap.Windows1251
		case "koi8-r":
			return charmap.KOI8R
		}
	}
	// остальное однобайтовое читаем как cp1252 (надмножество latin-1)
	return charmap.Windows1252
}

// sniffDelimiter — самый частый из ; , \t | (вне кавычек) в строке
// заголовка и нескольких строках после неё. Строки-титулы над заголовком
// не учитываются. По умолчанию ','.
func sniffDelimiter(peek []byte, headerRow int) rune {
	const probeLines = 4

	var lines []string
	for _, l := range strings.Split(string(peek), "\n") {
		// csv.Reader пропускает пустые строки, нумерация строк должна совпадать
		if strings.TrimRight(l, "\r") != "" {
			lines = append(lines, l)
		}
	}
	hdr := headerRow - 1
	if hdr < 0 {
		hdr = 0
	}
	if hdr >= len(lines) {
		return ','
	}
	lines = lines[hdr:]
	if len(lines) > probeLines {
		lines = lines[:probeLines]
	}

	counts := map[rune]int{}
	for _, line := range lines {
		inQuotes := false
		for _, r := range line {
			switch r {
			case '"':
				inQuotes = !inQuotes
			case ';', ',', '\t', '|':
				if !inQuotes {
					counts[r]++
				}
			}
		}
	}
	best, bestN := ',', 0
	for _, d := range []rune{';', ',', '\t', '|'} {
		if counts[d] > bestN {
			best, bestN = d, counts[d]
		}
	}
	return best
}

func trailingEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
