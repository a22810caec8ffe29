package store

import (
	"strings"

	"transfer-service/internal/transfer/model"
)

// Merge — left join продаж и цен к остаткам по имени. Набор позиций задают
// строки остатков; при повторе имени в любой таблице побеждает первая строка.
// Без строки продаж Sales = 0, без строки цены Price = nil.
func Merge(stock, sales, prices []model.Item) *Store {
	salesBy := firstByName(sales)
	pricesBy := firstByName(prices)

	st := New()
	for _, it := range stock {
		name := strings.TrimSpace(it.Name)
		if sr, ok := salesBy[name]; ok {
			it.Sales = sr.Sales
			if it.Barcode == "" {
				it.Barcode = sr.Barcode
			}
			if it.Price == nil && sr.Price != nil {
				it.Price = copyPrice(sr.Price)
			}
		}
		if pr, ok := pricesBy[name]; ok {
			if pr.Price != nil {
				it.Price = copyPrice(pr.Price)
			}
			if it.Barcode == "" {
				it.Barcode = pr.Barcode
			}
		}
		st.Add(it)
	}
	return st
}

func firstByName(rows []model.Item) map[string]model.Item {
	m := make(map[string]model.Item, len(rows))
	for _, r := range rows {
		n := strings.TrimSpace(r.Name)
		if n == "" {
			continue
		}
		if _, ok := m[n]; !ok {
			m[n] = r
		}
	}
	return m
}

func copyPrice(p *float64) *float64 {
	v := *p
	return &v
}
