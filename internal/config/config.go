package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"

	"transfer-service/internal/transfer/model"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxUploadMB  int

	// параметры подбора по умолчанию, запрос может переопределить
	Mode                model.Mode
	SimilarityThreshold float64
	PriceTolerance      float64
	LowSalesThreshold   float64
	CSVDelimiter        rune
}

// Load читает окружение; .env в рабочем каталоге необязателен.
func Load() Config {
	_ = godotenv.Load()

	mode, ok := model.ParseMode(getenv("TRANSFER_MODE", string(model.ModeAuto)))
	if !ok {
		mode = model.ModeAuto
	}
	cfg := Config{
		Host:                getenv("HOST", "127.0.0.1"),
		Port:                getint("PORT", 8082),
		AllowOrigins:        splitList(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		LogFile:             getenv("LOG_FILE", "logs/transfer-service.log"),
		MaxUploadMB:         getint("MAX_UPLOAD_MB", 64),
		Mode:                mode,
		SimilarityThreshold: getfloat("SIMILARITY_THRESHOLD", 80),
		PriceTolerance:      getfloat("PRICE_TOLERANCE", 0.10),
		LowSalesThreshold:   getfloat("LOW_SALES_THRESHOLD", 5),
		CSVDelimiter:        getrune("CSV_DELIMITER", ';'),
	}

	// те же границы проверяет handler; вне их каждый запрос получал бы 400
	if !(cfg.SimilarityThreshold >= 0 && cfg.SimilarityThreshold <= 100) {
		cfg.SimilarityThreshold = 80
	}
	if !(cfg.PriceTolerance >= 0) {
		cfg.PriceTolerance = 0.10
	}
	return cfg
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Options — дефолты подбора из конфигурации.
func (c Config) Options() model.Options {
	o := model.DefaultOptions()
	o.SimilarityThreshold = c.SimilarityThreshold
	o.PriceTolerance = c.PriceTolerance
	o.LowSalesThreshold = c.LowSalesThreshold
	return o
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return def
	}
	return n
}

func getfloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(getenv(k, ""), 64)
	if err != nil {
		return def
	}
	return f
}

func getrune(k string, def rune) rune {
	v := getenv(k, "")
	if v == `\t` {
		return '\t'
	}
	if utf8.RuneCountInString(v) != 1 {
		return def
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
