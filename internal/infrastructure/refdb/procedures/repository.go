package procedures

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domain "refdatasync/internal/domain/entity/refdata"
)

var ErrInstrumentNotLive = errors.New("instrument not found or not live")

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type commandTagExecutor interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type dbtx interface {
	queryRower
	commandTagExecutor
	querier
}

// Repository talks to a reference database that exposes vw_instrument and
// vw_asset views plus the sp_instrument_insert and sp_asset_insert functions.
type Repository struct {
	pool  *pgxpool.Pool
	db    dbtx
	codes domain.StateCodes
}

func NewRepository(ctx context.Context, dsn string, codes domain.StateCodes) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping reference database: %w", err)
	}
	return &Repository{pool: pool, db: pool, codes: codes}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// FetchAllSymbols reads live instruments, or every instrument whatever its
// state when liveOnly is false.
func (r *Repository) FetchAllSymbols(ctx context.Context, liveOnly bool) ([]domain.Symbol, error) {
	query := `
		SELECT instrument_id::text,
		       COALESCE(exchange_id::text, ''),
		       COALESCE(exchange, ''),
		       exchange_pair_code,
		       COALESCE(instrument_type, 'unknown'),
		       COALESCE(base_asset, ''),
		       COALESCE(quote_asset, ''),
		       COALESCE(expiry, 'null'),
		       COALESCE(price_precision, 8)::int4,
		       COALESCE(quantity_precision, 8)::int4,
		       COALESCE(tick_size, 0)::text,
		       COALESCE(step_size, 0)::text,
		       COALESCE(contract_size, 1)::text,
		       COALESCE(maint_margin_percent, 0)::text,
		       COALESCE(required_margin_percent, 0)::text,
		       live::int4
		FROM vw_instrument`
	var args []interface{}
	if liveOnly {
		query += `
		WHERE live = $1`
		args = append(args, int32(r.codes.Live))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	var symbols []domain.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		symbols = append(symbols, *sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instruments: %w", err)
	}
	return symbols, nil
}

func scanSymbol(row pgx.Row) (*domain.Symbol, error) {
	var (
		id, exchangeID, exchange, pairCode, instrumentType string
		base, quote, expiry                                string
		pricePrecision, quantityPrecision, live            int32
		tick, step, contract, maint, required              string
	)
	if err := row.Scan(
		&id, &exchangeID, &exchange, &pairCode, &instrumentType,
		&base, &quote, &expiry,
		&pricePrecision, &quantityPrecision,
		&tick, &step, &contract, &maint, &required,
		&live,
	); err != nil {
		return nil, err
	}

	sym := domain.NewSymbol(exchange, pairCode, base, quote)
	sym.InstrumentID = id
	sym.ExchangeID = exchangeID
	sym.Expiry = expiry
	sym.PricePrecision = int(pricePrecision)
	sym.QuantityPrecision = int(quantityPrecision)
	sym.Live = domain.LiveState(live)
	if t, err := domain.NewInstrumentType(instrumentType); err == nil {
		sym.InstrumentType = t
	}

	var err error
	if sym.TickSize, err = decimal.NewFromString(tick); err != nil {
		return nil, fmt.Errorf("tick_size of %s: %w", id, err)
	}
	if sym.StepSize, err = decimal.NewFromString(step); err != nil {
		return nil, fmt.Errorf("step_size of %s: %w", id, err)
	}
	if sym.ContractSize, err = decimal.NewFromString(contract); err != nil {
		return nil, fmt.Errorf("contract_size of %s: %w", id, err)
	}
	if sym.MaintMargin, err = decimal.NewFromString(maint); err != nil {
		return nil, fmt.Errorf("maint_margin_percent of %s: %w", id, err)
	}
	if sym.RequiredMargin, err = decimal.NewFromString(required); err != nil {
		return nil, fmt.Errorf("required_margin_percent of %s: %w", id, err)
	}
	return sym, nil
}

func (r *Repository) FetchAllAssets(ctx context.Context) ([]domain.Asset, error) {
	const query = `
		SELECT asset_id::text, code, COALESCE(name, code), COALESCE(asset_type, 'unknown')
		FROM vw_asset`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var id, code, name, assetType string
		if err := rows.Scan(&id, &code, &name, &assetType); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		at, err := domain.NewAssetType(assetType)
		if err != nil {
			at = domain.UnknownAsset
		}
		asset := domain.NewAsset(code, name, at)
		asset.AssetID = id
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}

func (r *Repository) InsertSymbol(ctx context.Context, sym *domain.Symbol) (string, error) {
	if sym == nil {
		return "", errors.New("symbol is nil")
	}
	return r.insertSymbolWith(ctx, r.db, sym)
}

func (r *Repository) insertSymbolWith(ctx context.Context, runner queryRower, sym *domain.Symbol) (string, error) {
	const query = `SELECT sp_instrument_insert($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)::text`

	var id string
	if err := runner.QueryRow(ctx, query, toAny(domain.InstrumentArgs(sym))...).Scan(&id); err != nil {
		return "", &domain.PersistenceError{Op: "insert symbol", Key: sym.ExchangePairCode, Err: err}
	}
	return id, nil
}

func (r *Repository) InsertAsset(ctx context.Context, asset *domain.Asset) (string, error) {
	if asset == nil {
		return "", errors.New("asset is nil")
	}
	const query = `SELECT sp_asset_insert($1,$2,$3)::text`

	var id string
	if err := r.db.QueryRow(ctx, query, toAny(domain.AssetArgs(asset))...).Scan(&id); err != nil {
		return "", &domain.PersistenceError{Op: "insert asset", Key: asset.Code, Err: err}
	}
	return id, nil
}

// UpdateSymbolState moves a live instrument to state. Instruments that are
// no longer live are left untouched.
func (r *Repository) UpdateSymbolState(ctx context.Context, instrumentID string, state domain.LiveState) error {
	return r.updateSymbolStateWith(ctx, r.db, instrumentID, state)
}

func (r *Repository) updateSymbolStateWith(ctx context.Context, execer commandTagExecutor, instrumentID string, state domain.LiveState) error {
	const query = `UPDATE instrument SET live = $2 WHERE instrument_id = $1::bigint AND live = $3`

	cmdTag, err := execer.Exec(ctx, query, instrumentID, int32(state), int32(r.codes.Live))
	if err != nil {
		return &domain.PersistenceError{Op: "update state", Key: instrumentID, Err: err}
	}
	if cmdTag.RowsAffected() == 0 {
		return &domain.PersistenceError{Op: "update state", Key: instrumentID, Err: ErrInstrumentNotLive}
	}
	return nil
}
