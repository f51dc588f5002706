package tables

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	domain "refdatasync/internal/domain/entity/refdata"
)

var ErrInstrumentNotLive = errors.New("instrument not found or not live")

// Repository keeps instruments and assets in plain tables managed by gorm.
// It enforces the asset foreign keys itself, so the same rules hold on
// every dialect.
type Repository struct {
	db    *gorm.DB
	codes domain.StateCodes
}

func dialector(dialect, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, domain.ConfigError("unsupported database dialect %q", dialect)
	}
}

// Open connects with the given dialect and migrates the schema.
func Open(ctx context.Context, dialect, dsn string, codes domain.StateCodes) (*Repository, error) {
	d, err := dialector(dialect, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if d.Name() == "sqlite" {
		// in-memory databases exist per connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	repo := NewRepository(db, codes)
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

func NewRepository(db *gorm.DB, codes domain.StateCodes) *Repository {
	return &Repository{db: db, codes: codes}
}

func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&AssetModel{}, &InstrumentModel{}); err != nil {
		return fmt.Errorf("migrate reference tables: %w", err)
	}
	return nil
}

func (r *Repository) Close() {
	if r == nil || r.db == nil {
		return
	}
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// FetchAllSymbols reads live instruments, or every instrument whatever its
// state when liveOnly is false.
func (r *Repository) FetchAllSymbols(ctx context.Context, liveOnly bool) ([]domain.Symbol, error) {
	q := r.db.WithContext(ctx)
	if liveOnly {
		q = q.Where("live = ?", int(r.codes.Live))
	}

	var models []InstrumentModel
	if err := q.Order("instrument_id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	symbols := make([]domain.Symbol, len(models))
	for i := range models {
		symbols[i] = models[i].ToDomain()
	}
	return symbols, nil
}

func (r *Repository) FetchAllAssets(ctx context.Context) ([]domain.Asset, error) {
	var models []AssetModel
	if err := r.db.WithContext(ctx).Order("code").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	assets := make([]domain.Asset, len(models))
	for i := range models {
		assets[i] = models[i].ToDomain()
	}
	return assets, nil
}

func (r *Repository) InsertSymbol(ctx context.Context, sym *domain.Symbol) (string, error) {
	if sym == nil {
		return "", errors.New("symbol is nil")
	}
	model := FromSymbolDomain(sym, r.codes.Live)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		codes := []string{sym.BaseAsset()}
		if sym.QuoteAsset() != sym.BaseAsset() {
			codes = append(codes, sym.QuoteAsset())
		}
		var found int64
		if err := tx.Model(&AssetModel{}).Where("code IN ?", codes).Count(&found).Error; err != nil {
			return err
		}
		if found != int64(len(codes)) {
			return domain.ErrReferentialIntegrity
		}
		return tx.Create(model).Error
	})
	if err != nil {
		return "", &domain.PersistenceError{Op: "insert symbol", Key: sym.ExchangePairCode, Err: err}
	}
	return strconv.FormatUint(model.InstrumentID, 10), nil
}

func (r *Repository) InsertAsset(ctx context.Context, asset *domain.Asset) (string, error) {
	if asset == nil {
		return "", errors.New("asset is nil")
	}
	model := FromAssetDomain(asset)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", &domain.PersistenceError{Op: "insert asset", Key: asset.Code, Err: err}
	}
	return strconv.FormatUint(model.AssetID, 10), nil
}

// UpdateSymbolState moves a live instrument to state. Instruments that are
// no longer live are left untouched.
func (r *Repository) UpdateSymbolState(ctx context.Context, instrumentID string, state domain.LiveState) error {
	id, err := strconv.ParseUint(instrumentID, 10, 64)
	if err != nil {
		return &domain.PersistenceError{Op: "update state", Key: instrumentID, Err: err}
	}
	result := r.db.WithContext(ctx).
		Model(&InstrumentModel{}).
		Where("instrument_id = ? AND live = ?", id, int(r.codes.Live)).
		Update("live", int(state))
	if result.Error != nil {
		return &domain.PersistenceError{Op: "update state", Key: instrumentID, Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &domain.PersistenceError{Op: "update state", Key: instrumentID, Err: ErrInstrumentNotLive}
	}
	return nil
}
