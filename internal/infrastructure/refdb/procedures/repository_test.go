package procedures

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	domain "refdatasync/internal/domain/entity/refdata"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = r.values[i].(string)
		case *int32:
			*ptr = r.values[i].(int32)
		}
	}
	return nil
}

type fakeDB struct {
	lastSQL  string
	lastArgs []interface{}
	row      fakeRow
	tag      pgconn.CommandTag
	execErr  error
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return f.row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.lastSQL, f.lastArgs = sql, args
	return f.tag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	return nil, errors.New("not implemented")
}

func sampleSymbol() *domain.Symbol {
	sym := domain.NewSymbol("Binance Futures", "BTCUSDT", "BTC", "USDT")
	sym.InstrumentType = domain.PerpetualFutureType
	sym.PricePrecision = 2
	sym.QuantityPrecision = 3
	sym.TickSize = decimal.RequireFromString("0.1")
	sym.StepSize = decimal.RequireFromString("0.001")
	sym.MaintMargin = decimal.RequireFromString("2.5")
	sym.RequiredMargin = decimal.NewFromInt(5)
	return sym
}

func TestInsertSymbolReturnsID(t *testing.T) {
	db := &fakeDB{row: fakeRow{values: []any{"42"}}}
	repo := &Repository{db: db, codes: domain.DefaultStateCodes()}

	id, err := repo.InsertSymbol(context.Background(), sampleSymbol())
	if err != nil {
		t.Fatalf("InsertSymbol: %v", err)
	}
	if id != "42" {
		t.Fatalf("id = %s", id)
	}
	if len(db.lastArgs) != 14 {
		t.Fatalf("args = %d, want 14", len(db.lastArgs))
	}
}

func TestInsertAssetWrapsPersistenceError(t *testing.T) {
	cause := errors.New("duplicate key")
	db := &fakeDB{row: fakeRow{err: cause}}
	repo := &Repository{db: db, codes: domain.DefaultStateCodes()}

	_, err := repo.InsertAsset(context.Background(), domain.NewAsset("btc", "Bitcoin", domain.Cryptocurrency))
	if !errors.Is(err, domain.ErrPersistence) || !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateSymbolStateOnlyMovesLiveRows(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	repo := &Repository{db: db, codes: domain.DefaultStateCodes()}

	if err := repo.UpdateSymbolState(context.Background(), "7", 2); err != nil {
		t.Fatalf("UpdateSymbolState: %v", err)
	}
	if db.lastArgs[1] != int32(2) || db.lastArgs[2] != int32(1) {
		t.Fatalf("args = %v", db.lastArgs)
	}

	db.tag = pgconn.NewCommandTag("UPDATE 0")
	if err := repo.UpdateSymbolState(context.Background(), "7", 2); !errors.Is(err, ErrInstrumentNotLive) {
		t.Fatalf("err = %v, want ErrInstrumentNotLive", err)
	}
}

func TestFetchAllSymbolsStateFilter(t *testing.T) {
	db := &fakeDB{}
	repo := &Repository{db: db, codes: domain.StateCodes{Live: 1, Expired: 2, Removed: 3}}

	_, _ = repo.FetchAllSymbols(context.Background(), true)
	if !strings.Contains(db.lastSQL, "WHERE live = $1") || len(db.lastArgs) != 1 || db.lastArgs[0] != int32(1) {
		t.Fatalf("live only: sql = %q args = %v", db.lastSQL, db.lastArgs)
	}

	_, _ = repo.FetchAllSymbols(context.Background(), false)
	if strings.Contains(db.lastSQL, "WHERE") || len(db.lastArgs) != 0 {
		t.Fatalf("any state: sql = %q args = %v", db.lastSQL, db.lastArgs)
	}
}
