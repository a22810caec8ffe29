package model

// Mapping says which columns of an uploaded table carry which field.
// Each key may list alternatives separated by "|".
type Mapping struct {
	NameKey    string // наименование
	StockKey   string // остаток
	SalesKey   string // продажи
	PriceKey   string // цена (опционально)
	BarcodeKey string // штрихкод (опционально)
	HeaderRow  int    // строка заголовков (1-based)
}

type Options struct {
	PriceAware          bool    // фильтр по цене + отчёт о разнице цен
	SymmetricUpdate     bool    // списывать у источника И зачислять получателю
	SimilarityThreshold float64 // минимальный partial ratio (0..100)
	PriceTolerance      float64 // допустимая относительная разница цен
	LowSalesThreshold   float64 // кандидаты: продажи <= порога

	// предобработка имён перед сравнением
	Lowercase     bool
	Normalization bool
	TokenSort     bool
	StripUnits    bool
}

// DefaultOptions is the basic variant with the stock thresholds.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: 80,
		PriceTolerance:      0.10,
		LowSalesThreshold:   5,
		Lowercase:           true,
		Normalization:       true,
	}
}

// Item is one row of the merged working table. Price == nil means the
// price is missing.
type Item struct {
	Name    string   `json:"name"`
	Barcode string   `json:"barcode"`
	Stock   float64  `json:"stock"`
	Sales   float64  `json:"sales"`
	Price   *float64 `json:"price,omitempty"`
}

func (it *Item) HasPrice() bool { return it.Price != nil }

type Suggestion struct {
	FromName     string   `json:"fromItem"`
	FromBarcode  string   `json:"fromBarcode,omitempty"`
	ToName       string   `json:"toItem"`
	ToBarcode    string   `json:"toBarcode,omitempty"`
	Amount       float64  `json:"amount"`
	Score        float64  `json:"score"`
	PriceDiffPct *float64 `json:"priceDiffPct,omitempty"` // только в режиме с ценами
}

// Unresolved is a deficit item that received no transfer at all.
type Unresolved struct {
	Name    string   `json:"name"`
	Barcode string   `json:"barcode"`
	Stock   float64  `json:"stock"`
	Price   *float64 `json:"price,omitempty"`
}

type Summary struct {
	Deficits         int     `json:"deficits"`
	Candidates       int     `json:"candidates"`
	Suggestions      int     `json:"suggestions"`
	Unresolved       int     `json:"unresolved"`
	TotalDeficit     float64 `json:"totalDeficit"`
	TotalTransferred float64 `json:"totalTransferred"`
}

type Result struct {
	Suggestions []Suggestion `json:"suggestions"`
	Unresolved  []Unresolved `json:"unresolved"`
	Summary     Summary      `json:"summary"`
	Opts        Options      `json:"opts"`
}

// Mode selects the allocation variant.
type Mode string

const (
	ModeAuto  Mode = "auto"  // с ценами, если хоть у одной позиции есть цена
	ModeBasic Mode = "basic" // только по имени
	ModePrice Mode = "price" // имя + близость цены
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeAuto, ModeBasic, ModePrice:
		return Mode(s), true
	case "":
		return ModeAuto, true
	}
	return ModeAuto, false
}
