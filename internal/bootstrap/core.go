// Package bootstrap собирает ядро приложения из конфигурации: хранилище, ключи, сервисы, кеш рынка.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"ReceiptKeeper/internal/changebus"
	"ReceiptKeeper/internal/config"
	"ReceiptKeeper/internal/crypto"
	"ReceiptKeeper/internal/filecodec"
	"ReceiptKeeper/internal/invest"
	"ReceiptKeeper/internal/market"
	"ReceiptKeeper/internal/recordstore"
	"ReceiptKeeper/internal/securestore"
	"ReceiptKeeper/internal/service"
)

// Core - собранные компоненты одного процесса.
type Core struct {
	Config  *config.Config
	Logger  *zap.SugaredLogger
	Store   *recordstore.Store
	Secrets securestore.Store
	Keys    *crypto.KeyManager
	PIN     *securestore.PINVault
	Files   *filecodec.Codec
	Bus     *changebus.Bus
	Data    *service.DataService
	Market  *market.Cache
	Invest  *invest.Projector
}

// NewLogger строит zap-логгер указанного уровня; debug включает development-формат.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// OpenCore открывает БД, выполняет миграции и собирает сервисы.
// Возвращает (core, cleanup, error); cleanup закрывает шину и БД и может вызываться повторно.
func OpenCore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Core, func() error, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	secrets, err := securestore.NewFSStore(cfg.KeystoreDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open keystore: %w", err)
	}
	store, err := recordstore.Open(cfg.ClientDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("migrate db: %w", err)
	}

	keys := crypto.NewKeyManager(secrets, logger)
	bus := changebus.New(logger)
	cache := market.NewCache(store,
		market.NewHTTPSource(&http.Client{Timeout: 30 * time.Second}, cfg.MarketBaseURL, cfg.MarketAPIKey),
		bus, cfg.MarketCacheTTL, logger)

	core := &Core{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Secrets: secrets,
		Keys:    keys,
		PIN:     securestore.NewPINVault(secrets),
		Files:   filecodec.New(keys, cfg.AssetsDir, cfg.ScratchDir, logger),
		Bus:     bus,
		Data:    service.New(store, keys, bus, logger),
		Market:  cache,
		Invest:  invest.NewProjector(cache, cfg.FallbackRate, logger),
	}

	var once sync.Once
	var closeErr error
	cleanup := func() error {
		once.Do(func() {
			bus.Close()
			closeErr = errors.Join(closeErr, store.Close())
		})
		return closeErr
	}
	return core, cleanup, nil
}
