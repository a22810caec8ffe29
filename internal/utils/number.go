package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// валюта допускается только в начале или в конце ячейки
	rxCurrency = regexp.MustCompile(`(?i)^(?:rp\.?|idr|usd|eur|rub|руб\.?|р\.?|\$|€|₽)|(?:rp\.?|idr|usd|eur|rub|руб\.?|р\.?|\$|€|₽)$`)
	// одно число: знак, цифры, разделители групп и дробной части
	rxNumber = regexp.MustCompile(`^[-+]?(?:\d[\d.,]*|[.,]\d+)$`)

	spaces = strings.NewReplacer("\u00A0", "", "\u202F", "", "\u2009", "", " ", "", "\t", "")
)

// ParseNumber парсит "1 234,50", "1.234,50", "1,234.50", "(12)", "Rp 15.000"
// (NBSP/NNBSP/thin space) и т.п. ok == false, если ячейка — не одно число:
// "12 pcs 3" или "Aqua 600ml" числами не считаются.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.TrimSpace(rxCurrency.ReplaceAllString(s, ""))
	s = spaces.Replace(s)
	if !rxNumber.MatchString(s) {
		return 0, false
	}

	s = normalizeSeparators(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// normalizeSeparators приводит разделители к виду "1234.5".
// Последний из '.'/',' считается десятичным, если после него не ровно
// три цифры или разделитель встречается один раз вместе с другим.
func normalizeSeparators(s string) string {
	dot := strings.Count(s, ".")
	comma := strings.Count(s, ",")
	switch {
	case dot > 0 && comma > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// 1.234,50
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		// 1,234.50
		return strings.ReplaceAll(s, ",", "")
	case comma == 1:
		return strings.Replace(s, ",", ".", 1)
	case comma > 1:
		return strings.ReplaceAll(s, ",", "")
	case dot > 1:
		// 1.234.567 — разделители тысяч
		return strings.ReplaceAll(s, ".", "")
	case dot == 1 && isThousandsGroup(s[strings.Index(s, ".")+1:]) && !strings.HasPrefix(strings.TrimLeft(s, "-"), "0."):
		// 15.000 — так пишут рупии
		return strings.Replace(s, ".", "", 1)
	}
	return s
}

func isThousandsGroup(tail string) bool {
	if len(tail) != 3 {
		return false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
