package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"transfer-service/internal/config"
	"transfer-service/internal/fileio"
	"transfer-service/internal/transfer/model"
	"transfer-service/internal/transfer/service"
	"transfer-service/internal/transfer/store"
)

const maxMemory = 32 << 20

// badRequest — ошибка ввода, уходит клиенту как 400 (или 413 при превышении лимита).
type badRequest struct {
	status int
	msg    string
}

func (e *badRequest) Error() string { return e.msg }

func fail(status int, format string, args ...any) error {
	return &badRequest{status: status, msg: fmt.Sprintf(format, args...)}
}

type response struct {
	model.Result
	Columns     map[string]columns `json:"columns"`
	SkippedRows map[string]int     `json:"skippedRows"`
	Duplicates  int                `json:"duplicates"`
}

// Transfers отвечает JSON с предложениями перемещений:
// r.Post("/transfers", handler.Transfers(cfg, logger)).
func Transfers(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := requestLogger(r, logger)

		resp, err := run(r, cfg, log)
		if err != nil {
			writeError(w, log, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			log.Error().Err(err).Msg("write json")
			return
		}

		log.Info().
			Int("suggestions", len(resp.Suggestions)).
			Int("unresolved", len(resp.Unresolved)).
			Dur("elapsed", time.Since(start)).
			Msg("transfers done")
	}
}

// Export отдаёт результат файлом: ?format=csv|xlsx&table=suggestions|unresolved|all.
func Export(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(r, logger)

		format := orDefault(r.URL.Query().Get("format"), "csv")
		table := orDefault(r.URL.Query().Get("table"), "suggestions")
		if format != "csv" && format != "xlsx" {
			http.Error(w, "unknown format: "+format, http.StatusBadRequest)
			return
		}
		if table != "suggestions" && table != "unresolved" && !(table == "all" && format == "xlsx") {
			http.Error(w, "unknown table: "+table, http.StatusBadRequest)
			return
		}

		resp, err := run(r, cfg, log)
		if err != nil {
			writeError(w, log, err)
			return
		}

		var sheets []fileio.Sheet
		switch table {
		case "suggestions":
			sheets = []fileio.Sheet{suggestionsSheet(resp.Result)}
		case "unresolved":
			sheets = []fileio.Sheet{unresolvedSheet(resp.Result)}
		default:
			sheets = []fileio.Sheet{suggestionsSheet(resp.Result), unresolvedSheet(resp.Result)}
		}

		name := "transfer_" + table + "." + format
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Cache-Control", "no-store")
		if format == "csv" {
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			err = fileio.WriteCSV(w, sheets[0], cfg.CSVDelimiter)
		} else {
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			err = fileio.WriteXLSX(w, sheets...)
		}
		if err != nil {
			log.Error().Err(err).Str("format", format).Msg("export")
			return
		}
		log.Info().Str("format", format).Str("table", table).Msg("export done")
	}
}

// run: multipart → таблицы → store → один проход подбора.
func run(r *http.Request, cfg config.Config, log zerolog.Logger) (*response, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			return nil, fail(http.StatusRequestEntityTooLarge, "upload exceeds %d MB", cfg.MaxUploadMB)
		}
		return nil, fail(http.StatusBadRequest, "bad multipart form: %v", err)
	}

	m := model.Mapping{
		NameKey:    orDefault(r.FormValue("name_col"), defNameCol),
		StockKey:   orDefault(r.FormValue("stock_col"), defStockCol),
		SalesKey:   orDefault(r.FormValue("sales_col"), defSalesCol),
		PriceKey:   orDefault(r.FormValue("price_col"), defPriceCol),
		BarcodeKey: orDefault(r.FormValue("barcode_col"), defBarcodeCol),
		HeaderRow:  atoi(r.FormValue("header_row"), 1),
	}

	opt, mode, err := parseOptions(r, cfg)
	if err != nil {
		return nil, err
	}

	resp := &response{
		Columns:     make(map[string]columns, 3),
		SkippedRows: make(map[string]int, 3),
	}

	stock, err := readItems(r, "stock", stockTable, m, resp, true)
	if err != nil {
		return nil, err
	}
	sales, err := readItems(r, "sales", salesTable, m, resp, true)
	if err != nil {
		return nil, err
	}
	prices, err := readItems(r, "prices", priceTable, m, resp, false)
	if err != nil {
		return nil, err
	}

	st := store.Merge(stock, sales, prices)
	resp.Duplicates = st.Duplicates()

	opt.PriceAware = service.PriceAware(mode, st)
	opt.SymmetricUpdate = toBool(r.FormValue("symmetric"), opt.PriceAware)

	log.Debug().
		Int("stock_rows", len(stock)).
		Int("sales_rows", len(sales)).
		Int("price_rows", len(prices)).
		Interface("columns", resp.Columns).
		Interface("skipped", resp.SkippedRows).
		Msg("tables mapped")

	resp.Result = service.Run(st, opt, log)
	return resp, nil
}

func parseOptions(r *http.Request, cfg config.Config) (model.Options, model.Mode, error) {
	opt := cfg.Options()

	mode, ok := model.ParseMode(r.FormValue("mode"))
	if !ok {
		return opt, mode, fail(http.StatusBadRequest, "unknown mode: %s", r.FormValue("mode"))
	}
	if r.FormValue("mode") == "" {
		mode = cfg.Mode
	}

	opt.SimilarityThreshold = toFloat(r.FormValue("similarity"), opt.SimilarityThreshold)
	opt.PriceTolerance = toFloat(r.FormValue("tolerance"), opt.PriceTolerance)
	opt.LowSalesThreshold = toFloat(r.FormValue("low_sales"), opt.LowSalesThreshold)
	opt.Lowercase = toBool(r.FormValue("lowercase"), opt.Lowercase)
	opt.Normalization = toBool(r.FormValue("normalization"), opt.Normalization)
	opt.TokenSort = toBool(r.FormValue("token_sort"), opt.TokenSort)
	opt.StripUnits = toBool(r.FormValue("strip_units"), opt.StripUnits)

	if opt.SimilarityThreshold < 0 || opt.SimilarityThreshold > 100 {
		return opt, mode, fail(http.StatusBadRequest, "similarity must be within 0..100")
	}
	if opt.PriceTolerance < 0 {
		return opt, mode, fail(http.StatusBadRequest, "tolerance must not be negative")
	}
	return opt, mode, nil
}

func readItems(r *http.Request, field string, kind tableKind, m model.Mapping, resp *response, required bool) ([]model.Item, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if !required && errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fail(http.StatusBadRequest, "missing %s: %v", field, err)
	}
	defer f.Close()

	t, err := fileio.ReadAny(f, hdr.Filename, m.HeaderRow)
	if err != nil {
		return nil, fail(http.StatusBadRequest, "failed to read %s: %v", field, err)
	}

	items, cols, skipped := toItems(t, kind, m)
	if cols.Name == "" {
		return nil, fail(http.StatusBadRequest, "%s: item name column not found (%s)", field, m.NameKey)
	}
	if kind != priceTable && cols.Qty == "" {
		want := m.StockKey
		if kind == salesTable {
			want = m.SalesKey
		}
		return nil, fail(http.StatusBadRequest, "%s: quantity column not found (%s)", field, want)
	}
	if kind == priceTable && cols.Price == "" {
		return nil, fail(http.StatusBadRequest, "%s: price column not found (%s)", field, m.PriceKey)
	}
	// одна колонка на имя и число: шапка вида «Nama Item Stock» без разделителя
	if cols.Qty == cols.Name || (kind == priceTable && cols.Price == cols.Name) {
		return nil, fail(http.StatusBadRequest, "%s: column %q matched both name and value", field, cols.Name)
	}

	resp.Columns[field] = cols
	resp.SkippedRows[field] = skipped + t.Skipped
	return items, nil
}

func requestLogger(r *http.Request, fallback zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback
}

func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var br *badRequest
	if errors.As(err, &br) {
		log.Warn().Err(err).Int("status", br.status).Msg("rejected")
		http.Error(w, br.msg, br.status)
		return
	}
	log.Error().Err(err).Msg("transfers")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
