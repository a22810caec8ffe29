package handler

import (
	"transfer-service/internal/fileio"
	"transfer-service/internal/transfer/model"
)

// suggestionsSheet — колонки как в исходной выгрузке; штрихкоды и разница
// цен только в режиме с ценами.
func suggestionsSheet(res model.Result) fileio.Sheet {
	s := fileio.Sheet{Name: "Suggestions"}
	if !res.Opts.PriceAware {
		s.Headers = []string{"From Item", "To Item", "Transfer Amount"}
		for _, sg := range res.Suggestions {
			s.Rows = append(s.Rows, []any{sg.FromName, sg.ToName, sg.Amount})
		}
		return s
	}

	s.Headers = []string{"From Item", "From Barcode", "To Item", "To Barcode", "Transfer Amount", "Price Diff %"}
	for _, sg := range res.Suggestions {
		var pct any
		if sg.PriceDiffPct != nil {
			pct = *sg.PriceDiffPct
		}
		s.Rows = append(s.Rows, []any{sg.FromName, sg.FromBarcode, sg.ToName, sg.ToBarcode, sg.Amount, pct})
	}
	return s
}

func unresolvedSheet(res model.Result) fileio.Sheet {
	s := fileio.Sheet{
		Name:    "Unresolved",
		Headers: []string{"Item", "Barcode", "Stock", "Price"},
	}
	for _, u := range res.Unresolved {
		var price any
		if u.Price != nil {
			price = *u.Price
		}
		s.Rows = append(s.Rows, []any{u.Name, u.Barcode, u.Stock, price})
	}
	return s
}
