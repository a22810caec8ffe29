package handler

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"transfer-service/internal/fileio"
	"transfer-service/internal/transfer/model"
	"transfer-service/internal/utils"
)

// колонки по умолчанию; альтернативы через "|"
const (
	defNameCol    = "Nama Item|Item Name|Nama Barang|Name|Nama|Product"
	defStockCol   = "Stock|Stok|Qty|Quantity|Jumlah"
	defSalesCol   = "Total Sales|Sales|Penjualan|Terjual|Qty Sold"
	defPriceCol   = "Price|Harga|Harga Jual|Unit Price"
	defBarcodeCol = "Barcode|Kode Barcode|SKU|Kode Item"
)

var rxNotWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// нормализуем имя колонки: нижний регистр, всё кроме букв/цифр (и NBSP) → один пробел
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = rxNotWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey ищет реальную колонку по желаемому имени. Альтернативы через
// "|": сначала точное совпадение, потом нормализованное, потом вхождение
// (побеждает самое длинное совпавшее имя). "" — колонки нет.
func resolveKey(headers []string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	for _, a := range alts {
		for _, h := range headers {
			if h == a {
				return h
			}
		}
	}

	nAlts := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			nAlts = append(nAlts, n)
		}
	}
	for _, n := range nAlts {
		for _, h := range headers {
			if normHeaderKey(h) == n {
				return h
			}
		}
	}

	// частичное: want ⊂ header («stok akhir» содержит «stok»)
	bestKey, bestScore := "", 0
	for _, h := range headers {
		nh := normHeaderKey(h)
		if nh == "" {
			continue
		}
		for _, n := range nAlts {
			if containsWord(nh, n) && len(n) > bestScore {
				bestScore, bestKey = len(n), h
			}
		}
	}
	return bestKey
}

// вхождение по границам слов: «stok» ⊂ «stok akhir», но не ⊂ «stoker»
func containsWord(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

type columns struct {
	Name    string `json:"name"`
	Qty     string `json:"qty,omitempty"`
	Barcode string `json:"barcode,omitempty"`
	Price   string `json:"price,omitempty"`
}

type tableKind int

const (
	stockTable tableKind = iota
	salesTable
	priceTable
)

// toItems превращает строки таблицы в позиции. Для остатков строка без
// числа в колонке остатка пропускается; продажи без числа → 0; цена без
// числа → nil.
func toItems(t *fileio.Table, kind tableKind, m model.Mapping) ([]model.Item, columns, int) {
	cols := columns{
		Name:    resolveKey(t.Headers, m.NameKey),
		Barcode: resolveKey(t.Headers, m.BarcodeKey),
		Price:   resolveKey(t.Headers, m.PriceKey),
	}
	switch kind {
	case stockTable:
		cols.Qty = resolveKey(t.Headers, m.StockKey)
	case salesTable:
		cols.Qty = resolveKey(t.Headers, m.SalesKey)
	case priceTable:
		cols.Qty = ""
	}
	if cols.Name == "" {
		return nil, cols, len(t.Rows)
	}
	// необязательные колонки не могут совпадать с колонкой имени
	if cols.Barcode == cols.Name {
		cols.Barcode = ""
	}
	if kind != priceTable && cols.Price == cols.Name {
		cols.Price = ""
	}

	items := make([]model.Item, 0, len(t.Rows))
	skipped := 0
	for _, rec := range t.Rows {
		if looksLikeHeader(rec) {
			skipped++
			continue
		}
		name := strings.TrimSpace(rec[cols.Name])
		if name == "" {
			skipped++
			continue
		}
		it := model.Item{Name: name}
		if cols.Barcode != "" {
			it.Barcode = strings.TrimSpace(rec[cols.Barcode])
		}
		if cols.Price != "" {
			if v, ok := utils.ParseNumber(rec[cols.Price]); ok {
				it.Price = &v
			}
		}

		switch kind {
		case stockTable:
			v, ok := utils.ParseNumber(rec[cols.Qty])
			if !ok {
				skipped++
				continue
			}
			it.Stock = v
		case salesTable:
			if v, ok := utils.ParseNumber(rec[cols.Qty]); ok {
				it.Sales = v
			}
		}
		items = append(items, it)
	}
	return items, cols, skipped
}

// повтор шапки посреди файла (склеенные выгрузки): значения совпадают с заголовками
func looksLikeHeader(rec map[string]string) bool {
	cnt := 0
	for k, v := range rec {
		if v != "" && normHeaderKey(k) == normHeaderKey(v) {
			cnt++
		}
	}
	return cnt >= 2
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func toFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
