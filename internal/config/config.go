package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const appDirName = "ReceiptKeeper"

type Config struct {
	// Storage
	DataDir      string `env:"DATA_DIR"`
	ClientDBPath string `env:"CLIENT_DB_PATH"`
	AssetsDir    string `env:"ASSETS_DIR"`
	ScratchDir   string `env:"SCRATCH_DIR"`
	KeystoreDir  string `env:"KEYSTORE_DIR"`

	// Market data
	MarketBaseURL  string        `env:"MARKET_BASE_URL"`
	MarketAPIKey   string        `env:"MARKET_API_KEY"`
	MarketCacheTTL time.Duration `env:"MARKET_CACHE_TTL"`
	FallbackRate   float64       `env:"PROJECTION_FALLBACK_RATE"`

	// Local API server / watchers
	BaseURL         string        `env:"BASE_URL"`
	AuthSecret      string        `env:"AUTH_SECRET"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL"`

	LogLevel string `env:"LOG_LEVEL"`
	UserID   string `env:"USER_ID"` // пользователь CLI по умолчанию
	Version  bool   `env:"-"`       // show version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "каталог данных приложения")
	flag.StringVar(&cfg.ClientDBPath, "db", cfg.ClientDBPath, "path to SQLite DB")
	flag.StringVar(&cfg.AssetsDir, "assets-dir", cfg.AssetsDir, "каталог зашифрованных файлов")
	flag.StringVar(&cfg.ScratchDir, "scratch-dir", cfg.ScratchDir, "каталог временных расшифрованных копий")
	flag.StringVar(&cfg.KeystoreDir, "keystore-dir", cfg.KeystoreDir, "каталог защищённого хранилища ключей")
	flag.StringVar(&cfg.MarketBaseURL, "market-url", cfg.MarketBaseURL, "base URL of the market data provider")
	flag.StringVar(&cfg.MarketAPIKey, "market-key", cfg.MarketAPIKey, "market data API key")
	flag.DurationVar(&cfg.MarketCacheTTL, "market-ttl", cfg.MarketCacheTTL, "market cache TTL")
	flag.Float64Var(&cfg.FallbackRate, "fallback-rate", cfg.FallbackRate, "annual rate used when market data is unavailable")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "listen address of the local API server (host:port)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT сессий локального API")
	flag.DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "timed refresh interval for watchers")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	flag.StringVar(&cfg.UserID, "user", cfg.UserID, "user id for CLI commands")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func (cfg *Config) applyDefaults() {
	if cfg.DataDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.DataDir = filepath.Join(dir, appDirName)
		} else {
			home, _ := os.UserHomeDir()
			cfg.DataDir = filepath.Join(home, ".receiptkeeper")
		}
	}
	if cfg.ClientDBPath == "" {
		cfg.ClientDBPath = filepath.Join(cfg.DataDir, "receipts.db")
	}
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = filepath.Join(cfg.DataDir, "assets")
	}
	if cfg.KeystoreDir == "" {
		cfg.KeystoreDir = filepath.Join(cfg.DataDir, "keystore")
	}
	if cfg.ScratchDir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cfg.ScratchDir = filepath.Join(dir, appDirName, "scratch")
		} else {
			cfg.ScratchDir = filepath.Join(os.TempDir(), appDirName, "scratch")
		}
	}

	if cfg.MarketBaseURL == "" {
		cfg.MarketBaseURL = "https://www.alphavantage.co"
	}
	if cfg.MarketCacheTTL <= 0 {
		cfg.MarketCacheTTL = 24 * time.Hour
	}
	if cfg.FallbackRate == 0 {
		cfg.FallbackRate = 0.07
	}

	// BaseURL: только "address:port" (без схемы и пути), иначе значение по умолчанию
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}
	if cfg.AuthSecret == "" {
		// секрет процесса: сессии не переживают перезапуск сервера
		b := make([]byte, 32)
		_, _ = rand.Read(b)
		cfg.AuthSecret = hex.EncodeToString(b)
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 30 * time.Second
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.UserID == "" {
		cfg.UserID = "local"
	}
}
