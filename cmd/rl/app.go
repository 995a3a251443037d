package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/zulandar/ribbonlog/internal/config"
	"github.com/zulandar/ribbonlog/internal/db"
	"github.com/zulandar/ribbonlog/internal/kvstore"
	"github.com/zulandar/ribbonlog/internal/lot"
	"github.com/zulandar/ribbonlog/internal/notify"
	"gorm.io/gorm"
)

const defaultConfigPath = "ribbonlog.yaml"

// app is everything a command needs once the config is loaded.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	adapter  *kvstore.GormAdapter
	notifier *notify.Async
	store    *lot.Store
}

// loadConfig reads configPath. A missing default config file falls back to
// the built-in defaults so rl works out of the box.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) && configPath == defaultConfigPath {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openApp loads the config, connects storage, and reads the record log.
func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}
	adapter, err := kvstore.NewGormAdapter(gormDB, cfg.Storage.Key)
	if err != nil {
		return nil, err
	}
	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return nil, err
	}
	store, err := lot.New(lot.Opts{
		Adapter:  adapter,
		Notifier: notifier,
		Location: loc,
	})
	if err != nil {
		return nil, err
	}
	store.Load(ctx)

	return &app{cfg: cfg, db: gormDB, adapter: adapter, notifier: notifier, store: store}, nil
}

// Close flushes pending notifications and releases the database.
func (a *app) Close() {
	a.notifier.Wait()
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
