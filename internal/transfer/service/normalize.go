package service

import (
	"regexp"
	"sort"
	"strings"

	"transfer-service/internal/transfer/model"
)

// 0,5 → 0.5
var decComma = regexp.MustCompile(`(\d),(\d)`)

// Единицы измерения (используются и для склейки, и для вырезания отдельных токенов)
const unitWord = `ml|mg|kg|gr|g|ltr|lt|l|mm|cm|m|pcs|pc|btl|bks|box|dus|%`

// СКЛЕЙКА: "250 ml" → "250ml", "3.2  %" → "3.2%"
var reAttachNumUnit = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)(\s+)(` + unitWord + `)\b`)

// отдельные токены-единицы (склеенные пары "250ml" не затрагиваются)
var reUnitTokens = regexp.MustCompile(`(?i)(^|\s)(` + unitWord + `)(\s|$)`)

var punct = regexp.MustCompile(`[^\p{L}\p{N}\s.%]+`) // разрешаем . %

// normalizeName — конвейер предобработки имени перед сравнением.
// При выключенных опциях имя сравнивается как есть.
func normalizeName(s string, opt model.Options) string {
	if s == "" || !(opt.Lowercase || opt.Normalization || opt.StripUnits || opt.TokenSort) {
		return s
	}
	out := s

	if opt.Lowercase {
		out = strings.ToLower(out)
	}

	if opt.Normalization {
		// десятичные: 3,2 → 3.2 (ДО чистки пунктуации)
		out = decComma.ReplaceAllString(out, "$1.$2")
		out = collapseSpaces(punct.ReplaceAllString(out, " "))
		out = attachNumberUnits(out)
	}

	if opt.StripUnits {
		out = stripUnitTokens(out)
	}

	// после склейки пары остаются единым токеном
	if opt.TokenSort {
		out = tokenSort(out)
	}

	return strings.TrimSpace(out)
}

// итеративно, пока строка меняется
func attachNumberUnits(s string) string {
	prev := ""
	out := s
	for out != prev {
		prev = out
		out = reAttachNumUnit.ReplaceAllString(out, "$1$3")
	}
	return out
}

func stripUnitTokens(s string) string {
	prev := ""
	out := s
	for out != prev {
		prev = out
		out = reUnitTokens.ReplaceAllString(out, " ")
	}
	return collapseSpaces(out)
}

func tokenSort(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
