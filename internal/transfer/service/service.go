package service

import (
	"github.com/rs/zerolog"

	"transfer-service/internal/transfer/model"
	"transfer-service/internal/transfer/store"
)

// PriceAware выбирает вариант: в режиме auto цены включаются, если цена
// есть хотя бы у одной позиции.
func PriceAware(mode model.Mode, st *store.Store) bool {
	switch mode {
	case model.ModePrice:
		return true
	case model.ModeBasic:
		return false
	default:
		return st.HasPrices()
	}
}

// Run — один проход подбора по рабочей таблице: дефициты и кандидаты
// берутся из st, остатки в st меняются по ходу.
func Run(st *store.Store, opt model.Options, logger zerolog.Logger) model.Result {
	deficits := st.Deficits()
	candidates := st.Candidates(opt.LowSalesThreshold)

	res := NewAllocator(nil, logger).Allocate(deficits, candidates, opt)

	logger.Info().
		Int("items", st.Len()).
		Int("duplicates", st.Duplicates()).
		Int("deficits", res.Summary.Deficits).
		Int("candidates", res.Summary.Candidates).
		Int("suggestions", res.Summary.Suggestions).
		Int("unresolved", res.Summary.Unresolved).
		Float64("total_deficit", res.Summary.TotalDeficit).
		Float64("transferred", res.Summary.TotalTransferred).
		Bool("price_aware", opt.PriceAware).
		Msg("transfer pass done")
	return res
}
