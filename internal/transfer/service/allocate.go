package service

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"transfer-service/internal/transfer/model"
)

// Allocator подбирает дефицитным позициям похожих кандидатов с запасом и
// жадно переносит остаток. Stock переданных позиций меняется на месте.
type Allocator struct {
	score Scorer
	log   zerolog.Logger
}

// NewAllocator: при score == nil используется PartialRatio.
func NewAllocator(score Scorer, logger zerolog.Logger) *Allocator {
	if score == nil {
		score = PartialRatio
	}
	return &Allocator{score: score, log: logger}
}

type match struct {
	cand  *model.Item
	score float64
}

// Allocate — один последовательный проход по дефицитам в порядке загрузки.
// Следующие дефициты видят остатки, уже списанные предыдущими.
func (a *Allocator) Allocate(deficits, candidates []*model.Item, opt model.Options) model.Result {
	res := model.Result{
		Suggestions: make([]model.Suggestion, 0),
		Unresolved:  make([]model.Unresolved, 0),
		Opts:        opt,
	}

	candNorm := make([]string, len(candidates))
	for i, c := range candidates {
		candNorm[i] = normalizeName(c.Name, opt)
	}

	for _, d := range deficits {
		need := -d.Stock
		if need <= 0 {
			continue
		}
		res.Summary.Deficits++
		res.Summary.TotalDeficit += need

		if opt.PriceAware && !d.HasPrice() {
			a.log.Debug().Str("item", d.Name).Msg("deficit without price skipped")
			res.Unresolved = append(res.Unresolved, unresolvedOf(d))
			continue
		}

		matches := a.rank(d, candidates, candNorm, opt)

		moved := false
		for _, m := range matches {
			c := m.cand
			var pct *float64
			if opt.PriceAware {
				r, ok := a.priceFits(d, c, opt.PriceTolerance)
				if !ok {
					continue
				}
				v := priceDiffPct(r)
				pct = &v
			}

			amount := math.Min(c.Stock, need)
			if amount > 0 {
				res.Suggestions = append(res.Suggestions, model.Suggestion{
					FromName:     c.Name,
					FromBarcode:  c.Barcode,
					ToName:       d.Name,
					ToBarcode:    d.Barcode,
					Amount:       amount,
					Score:        m.score,
					PriceDiffPct: pct,
				})
				c.Stock -= amount
				if opt.SymmetricUpdate {
					d.Stock += amount
				}
				res.Summary.TotalTransferred += amount
				moved = true
			}
			need -= amount
			if need <= 0 {
				break
			}
		}

		if !moved {
			res.Unresolved = append(res.Unresolved, unresolvedOf(d))
		}
	}

	res.Summary.Candidates = len(candidates)
	res.Summary.Suggestions = len(res.Suggestions)
	res.Summary.Unresolved = len(res.Unresolved)
	return res
}

// rank сравнивает d со всеми кандидатами и оставляет тех, кто не ниже
// порога и с положительным остатком. С ценами — по убыванию сходства
// (равные в порядке загрузки), без цен — в порядке загрузки.
func (a *Allocator) rank(d *model.Item, candidates []*model.Item, candNorm []string, opt model.Options) []match {
	dn := normalizeName(d.Name, opt)
	out := make([]match, 0)
	for i, c := range candidates {
		if c == d {
			continue
		}
		s := a.score(dn, candNorm[i])
		if s < opt.SimilarityThreshold {
			continue
		}
		if c.Stock <= 0 {
			continue
		}
		out = append(out, match{cand: c, score: s})
	}
	if opt.PriceAware {
		sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	}
	return out
}

func (a *Allocator) priceFits(d, c *model.Item, tolerance float64) (float64, bool) {
	if !c.HasPrice() {
		a.log.Debug().Str("item", d.Name).Str("candidate", c.Name).Msg("candidate without price skipped")
		return 0, false
	}
	r, ok := PriceDiffRatio(*d.Price, *c.Price)
	if !ok {
		a.log.Debug().Str("item", d.Name).Str("candidate", c.Name).Msg("zero average price")
		return 0, false
	}
	return r, r <= tolerance
}

func unresolvedOf(d *model.Item) model.Unresolved {
	u := model.Unresolved{Name: d.Name, Barcode: d.Barcode, Stock: d.Stock}
	if d.Price != nil {
		v := *d.Price
		u.Price = &v
	}
	return u
}
