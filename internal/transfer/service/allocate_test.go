package service

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transfer-service/internal/transfer/model"
	"transfer-service/internal/transfer/store"
)

func price(v float64) *float64 { return &v }

func basicOpts() model.Options {
	return model.DefaultOptions()
}

func priceOpts() model.Options {
	o := model.DefaultOptions()
	o.PriceAware = true
	o.SymmetricUpdate = true
	return o
}

// scores looks names up in a fixed table; unknown pairs score 0.
func scores(table map[string]float64) Scorer {
	return func(a, b string) float64 {
		if s, ok := table[a+"|"+b]; ok {
			return s
		}
		return table[b+"|"+a]
	}
}

func alwaysMatch(string, string) float64 { return 100 }

func newAllocator(s Scorer) *Allocator { return NewAllocator(s, zerolog.Nop()) }

func TestAllocate_SingleMatch(t *testing.T) {
	d := &model.Item{Name: "A", Stock: -7}
	c := &model.Item{Name: "A-variant", Stock: 10, Sales: 1}

	res := newAllocator(nil).Allocate([]*model.Item{d}, []*model.Item{c}, basicOpts())

	require.Len(t, res.Suggestions, 1)
	s := res.Suggestions[0]
	assert.Equal(t, "A-variant", s.FromName)
	assert.Equal(t, "A", s.ToName)
	assert.Equal(t, 7.0, s.Amount)
	assert.Equal(t, 100.0, s.Score)
	assert.Nil(t, s.PriceDiffPct)
	assert.Equal(t, 3.0, c.Stock)
	assert.Equal(t, -7.0, d.Stock, "basic variant does not credit the destination")
	assert.Empty(t, res.Unresolved)
}

func TestAllocate_ToleranceIsInclusive(t *testing.T) {
	d := &model.Item{Name: "Kopi", Stock: -4, Price: price(90)}
	edge := &model.Item{Name: "Kopi Sachet", Stock: 3, Price: price(110)}
	over := &model.Item{Name: "Kopi Bubuk", Stock: 5, Price: price(110.5)}

	opt := priceOpts()
	opt.PriceTolerance = 0.2
	res := newAllocator(alwaysMatch).Allocate([]*model.Item{d}, []*model.Item{over, edge}, opt)

	require.Len(t, res.Suggestions, 1)
	s := res.Suggestions[0]
	assert.Equal(t, "Kopi Sachet", s.FromName)
	assert.Equal(t, 3.0, s.Amount)
	require.NotNil(t, s.PriceDiffPct)
	assert.Equal(t, 20.0, *s.PriceDiffPct)
	assert.Equal(t, 5.0, over.Stock)
}

func TestAllocate_SequentialConsumption(t *testing.T) {
	for _, symmetric := range []bool{false, true} {
		x := &model.Item{Name: "X", Stock: -3}
		y := &model.Item{Name: "Y", Stock: -5}
		z := &model.Item{Name: "Z", Stock: 6}

		opt := basicOpts()
		opt.SymmetricUpdate = symmetric
		res := newAllocator(alwaysMatch).Allocate([]*model.Item{x, y}, []*model.Item{z}, opt)

		require.Len(t, res.Suggestions, 2)
		assert.Equal(t, "X", res.Suggestions[0].ToName)
		assert.Equal(t, 3.0, res.Suggestions[0].Amount)
		assert.Equal(t, "Y", res.Suggestions[1].ToName)
		assert.Equal(t, 3.0, res.Suggestions[1].Amount)
		assert.Equal(t, 0.0, z.Stock)
		assert.Empty(t, res.Unresolved, "partially covered deficit is not unresolved")
		assert.Equal(t, 8.0, res.Summary.TotalDeficit)
		assert.Equal(t, 6.0, res.Summary.TotalTransferred)

		if symmetric {
			assert.Equal(t, 0.0, x.Stock)
			assert.Equal(t, -2.0, y.Stock)
		} else {
			assert.Equal(t, -3.0, x.Stock)
			assert.Equal(t, -5.0, y.Stock)
		}
	}
}

func TestAllocate_PriceToleranceExcludes(t *testing.T) {
	d := &model.Item{Name: "Teh", Stock: -4, Price: price(130)}
	c := &model.Item{Name: "Teh", Stock: 10, Sales: 0, Price: price(100)}

	res := newAllocator(nil).Allocate([]*model.Item{d}, []*model.Item{c}, priceOpts())

	assert.Empty(t, res.Suggestions)
	require.Len(t, res.Unresolved, 1)
	u := res.Unresolved[0]
	assert.Equal(t, "Teh", u.Name)
	assert.Equal(t, -4.0, u.Stock)
	require.NotNil(t, u.Price)
	assert.Equal(t, 130.0, *u.Price)
	assert.Equal(t, 10.0, c.Stock)
}

func TestAllocate_PriceDiffRecorded(t *testing.T) {
	d := &model.Item{Name: "Kopi", Barcode: "111", Stock: -2, Price: price(100)}
	c := &model.Item{Name: "Kopi Bubuk", Barcode: "222", Stock: 5, Price: price(105)}

	res := newAllocator(nil).Allocate([]*model.Item{d}, []*model.Item{c}, priceOpts())

	require.Len(t, res.Suggestions, 1)
	s := res.Suggestions[0]
	assert.Equal(t, "222", s.FromBarcode)
	assert.Equal(t, "111", s.ToBarcode)
	require.NotNil(t, s.PriceDiffPct)
	assert.Equal(t, 4.88, *s.PriceDiffPct)
	assert.Equal(t, 0.0, d.Stock)
	assert.Equal(t, 3.0, c.Stock)
}

func TestAllocate_ZeroStockCandidateExcluded(t *testing.T) {
	for _, opt := range []model.Options{basicOpts(), priceOpts()} {
		d := &model.Item{Name: "Roti", Stock: -1, Price: price(10)}
		c := &model.Item{Name: "Roti", Stock: 0, Price: price(10)}

		res := newAllocator(nil).Allocate([]*model.Item{d}, []*model.Item{c}, opt)

		assert.Empty(t, res.Suggestions)
		assert.Len(t, res.Unresolved, 1)
	}
}

func TestAllocate_PriceGuards(t *testing.T) {
	t.Run("deficit without price", func(t *testing.T) {
		d := &model.Item{Name: "Roti", Stock: -1}
		c := &model.Item{Name: "Roti", Stock: 3, Price: price(10)}

		res := newAllocator(nil).Allocate([]*model.Item{d}, []*model.Item{c}, priceOpts())

		assert.Empty(t, res.Suggestions)
		require.Len(t, res.Unresolved, 1)
		assert.Nil(t, res.Unresolved[0].Price)
		assert.Equal(t, 3.0, c.Stock)
	})

	t.Run("candidate without price", func(t *testing.T) {
		d := &model.Item{Name: "Roti", Stock: -1, Price: price(10)}
		c := &model.Item{Name: "Roti", Stock: 3}

		res := newAllocator(nil).Allocate([]*model.Item{d}, []*model.Item{c}, priceOpts())
		assert.Empty(t, res.Suggestions)
	})

	t.Run("zero average price", func(t *testing.T) {
		d := &model.Item{Name: "Sample", Stock: -1, Price: price(0)}
		c := &model.Item{Name: "Sample", Stock: 3, Price: price(0)}

		res := newAllocator(nil).Allocate([]*model.Item{d}, []*model.Item{c}, priceOpts())
		assert.Empty(t, res.Suggestions)
		assert.Len(t, res.Unresolved, 1)
	})

	t.Run("basic variant ignores prices", func(t *testing.T) {
		d := &model.Item{Name: "Roti", Stock: -1}
		c := &model.Item{Name: "Roti", Stock: 3, Price: price(999)}

		res := newAllocator(nil).Allocate([]*model.Item{d}, []*model.Item{c}, basicOpts())
		assert.Len(t, res.Suggestions, 1)
	})
}

func TestAllocate_CandidateOrder(t *testing.T) {
	table := map[string]float64{
		"d|low":  85,
		"d|high": 95,
	}
	build := func() (*model.Item, []*model.Item) {
		d := &model.Item{Name: "d", Stock: -5, Price: price(100)}
		return d, []*model.Item{
			{Name: "low", Stock: 2, Price: price(100)},
			{Name: "high", Stock: 10, Price: price(100)},
		}
	}

	t.Run("price variant takes the best score first", func(t *testing.T) {
		d, cands := build()
		res := newAllocator(scores(table)).Allocate([]*model.Item{d}, cands, priceOpts())

		require.Len(t, res.Suggestions, 1)
		assert.Equal(t, "high", res.Suggestions[0].FromName)
		assert.Equal(t, 5.0, res.Suggestions[0].Amount)
	})

	t.Run("basic variant keeps input order", func(t *testing.T) {
		d, cands := build()
		res := newAllocator(scores(table)).Allocate([]*model.Item{d}, cands, basicOpts())

		require.Len(t, res.Suggestions, 2)
		assert.Equal(t, "low", res.Suggestions[0].FromName)
		assert.Equal(t, 2.0, res.Suggestions[0].Amount)
		assert.Equal(t, "high", res.Suggestions[1].FromName)
		assert.Equal(t, 3.0, res.Suggestions[1].Amount)
	})

	t.Run("below threshold is dropped", func(t *testing.T) {
		d, cands := build()
		opt := basicOpts()
		opt.SimilarityThreshold = 90
		res := newAllocator(scores(table)).Allocate([]*model.Item{d}, cands, opt)

		require.Len(t, res.Suggestions, 1)
		assert.Equal(t, "high", res.Suggestions[0].FromName)
	})
}

func TestAllocate_Invariants(t *testing.T) {
	build := func() ([]*model.Item, []*model.Item) {
		var deficits, cands []*model.Item
		for i := 0; i < 12; i++ {
			deficits = append(deficits, &model.Item{
				Name:  string(rune('a'+i%4)) + "-def",
				Stock: -float64(1 + i*3%7),
				Price: price(float64(100 + i%3)),
			})
		}
		for i := 0; i < 9; i++ {
			cands = append(cands, &model.Item{
				Name:  string(rune('a'+i%4)) + "-cand",
				Stock: float64(i*5%8) - 1,
				Price: price(float64(98 + i%5)),
			})
		}
		return deficits, cands
	}

	for _, opt := range []model.Options{basicOpts(), priceOpts()} {
		opt.SimilarityThreshold = 50
		deficits, cands := build()
		original := make(map[*model.Item]float64, len(cands))
		supply := make(map[string]float64)
		for _, c := range cands {
			original[c] = c.Stock
			if c.Stock > 0 {
				supply[c.Name] += c.Stock
			}
		}
		need := make(map[string]float64)
		for _, d := range deficits {
			need[d.Name] += -d.Stock
		}

		res := newAllocator(nil).Allocate(deficits, cands, opt)
		require.NotEmpty(t, res.Suggestions)

		out := make(map[string]float64)
		in := make(map[string]float64)
		for _, s := range res.Suggestions {
			assert.Greater(t, s.Amount, 0.0)
			out[s.FromName] += s.Amount
			in[s.ToName] += s.Amount
		}
		for _, c := range cands {
			if original[c] > 0 {
				assert.GreaterOrEqual(t, c.Stock, 0.0)
			}
		}
		for name, got := range in {
			assert.LessOrEqual(t, got, need[name])
		}
		for name, got := range out {
			assert.LessOrEqual(t, got, supply[name])
		}

		// повторный прогон на свежих данных даёт ту же последовательность
		deficits2, cands2 := build()
		res2 := newAllocator(nil).Allocate(deficits2, cands2, opt)
		assert.Equal(t, res.Suggestions, res2.Suggestions)
	}
}

func TestPriceDiffRatio(t *testing.T) {
	r, ok := PriceDiffRatio(100, 130)
	require.True(t, ok)
	assert.InDelta(t, 30.0/115, r, 1e-12)
	assert.Greater(t, r, 0.1)

	r2, _ := PriceDiffRatio(130, 100)
	assert.Equal(t, r, r2)

	_, ok = PriceDiffRatio(0, 0)
	assert.False(t, ok)

	assert.Equal(t, 26.09, priceDiffPct(r))
}

func TestRun(t *testing.T) {
	st := store.Merge(
		[]model.Item{
			{Name: "Indomie Goreng", Stock: -6},
			{Name: "Indomie Goreng Jumbo", Stock: 4},
			{Name: "Indomie Goreng Rendang", Stock: 10},
			{Name: "Sabun Mandi", Stock: -2},
		},
		[]model.Item{
			{Name: "Indomie Goreng", Sales: 40},
			{Name: "Indomie Goreng Jumbo", Sales: 2},
			{Name: "Indomie Goreng Rendang", Sales: 30},
		},
		nil,
	)

	opt := model.DefaultOptions()
	opt.PriceAware = PriceAware(model.ModeAuto, st)
	assert.False(t, opt.PriceAware)

	res := Run(st, opt, zerolog.Nop())

	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "Indomie Goreng Jumbo", res.Suggestions[0].FromName)
	assert.Equal(t, 4.0, res.Suggestions[0].Amount)

	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "Sabun Mandi", res.Unresolved[0].Name)
	assert.Equal(t, 2, res.Summary.Deficits)
	assert.Equal(t, 2, res.Summary.Candidates) // Jumbo + Sabun Mandi

	var jumbo *model.Item
	for _, it := range st.Candidates(opt.LowSalesThreshold) {
		if it.Name == "Indomie Goreng Jumbo" {
			jumbo = it
		}
	}
	require.NotNil(t, jumbo)
	assert.Equal(t, 0.0, jumbo.Stock)
}

func TestPriceAwareMode(t *testing.T) {
	st := store.New()
	st.Add(model.Item{Name: "A"})
	assert.True(t, PriceAware(model.ModePrice, st))
	assert.False(t, PriceAware(model.ModeAuto, st))

	st.Add(model.Item{Name: "B", Price: price(1)})
	assert.True(t, PriceAware(model.ModeAuto, st))
	assert.False(t, PriceAware(model.ModeBasic, st))
}
