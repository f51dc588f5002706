package refdata

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewSymbolDerivesLowercaseName(t *testing.T) {
	sym := NewSymbol("Binance", "BTCUSDT", " BTC", "USDT ")
	if got := sym.Name(); got != "btc-usdt" {
		t.Fatalf("Name() = %q, want btc-usdt", got)
	}
	if sym.BaseAsset() != "btc" || sym.QuoteAsset() != "usdt" {
		t.Fatalf("assets = %q/%q", sym.BaseAsset(), sym.QuoteAsset())
	}
	if !sym.ContractSize.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("contract size default = %s", sym.ContractSize)
	}
	if sym.Expiry != NoExpiry {
		t.Fatalf("expiry default = %q", sym.Expiry)
	}
	if sym.IsPersisted() {
		t.Fatal("new symbol must not be persisted")
	}
}

func TestMissingAssets(t *testing.T) {
	sym := NewSymbol("FTX", "XYZ/USD", "xyz", "usd")
	known := map[string]struct{}{"usd": {}}
	missing := sym.MissingAssets(known)
	if len(missing) != 1 || missing[0] != "xyz" {
		t.Fatalf("MissingAssets() = %v", missing)
	}
}

func TestDecimalPlaces(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0.0001", 4, true},
		{"0.01000000", 2, true},
		{"0.5", 1, true},
		{"0.00025", 4, true},
		{"1", 0, false},
		{"10", 0, false},
		{"0", 0, false},
		{"-0.1", 0, false},
	}
	for _, tt := range tests {
		got, ok := DecimalPlaces(decimal.RequireFromString(tt.in))
		if got != tt.want || ok != tt.ok {
			t.Errorf("DecimalPlaces(%s) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolvePrecision(t *testing.T) {
	three := 3
	if got := ResolvePrecision(&three, decimal.RequireFromString("0.0001")); got != 3 {
		t.Fatalf("explicit precision ignored: %d", got)
	}
	if got := ResolvePrecision(nil, decimal.RequireFromString("0.0001")); got != 4 {
		t.Fatalf("derived precision = %d, want 4", got)
	}
	if got := ResolvePrecision(nil, decimal.NewFromInt(1)); got != DefaultPrecision {
		t.Fatalf("precision for tick 1.0 = %d, want %d", got, DefaultPrecision)
	}
	if got := ResolvePrecision(nil, decimal.Zero); got != DefaultPrecision {
		t.Fatalf("precision without tick = %d, want %d", got, DefaultPrecision)
	}
}

func TestNewAssetTruncatesName(t *testing.T) {
	asset := NewAsset("BTC", strings.Repeat("x", 60), Cryptocurrency)
	if asset.Code != "btc" {
		t.Fatalf("code = %q", asset.Code)
	}
	if len(asset.Name) != 49 {
		t.Fatalf("name length = %d, want 49", len(asset.Name))
	}
	if asset.TypeID() != 3 {
		t.Fatalf("type id = %d, want 3", asset.TypeID())
	}

	unnamed := NewAsset("USD", "", "")
	if unnamed.Name != "usd" || unnamed.Type != UnknownAsset {
		t.Fatalf("unnamed asset = %+v", unnamed)
	}
}

func TestAssetTypeIDs(t *testing.T) {
	want := map[AssetType]int{
		Fiat:           1,
		Commodity:      2,
		Cryptocurrency: 3,
		LeveragedToken: 4,
		Stablecoin:     5,
		UnknownAsset:   0,
	}
	for at, id := range want {
		if at.ID() != id {
			t.Errorf("%s.ID() = %d, want %d", at, at.ID(), id)
		}
	}
	if _, err := NewAssetType("Leveraged Token"); err != nil {
		t.Fatalf("NewAssetType: %v", err)
	}
	if _, err := NewAssetType("equity"); err == nil {
		t.Fatal("expected error for unknown asset type")
	}
}

func TestStateCodes(t *testing.T) {
	codes := DefaultStateCodes()
	if err := codes.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if codes.DeactivationTarget(FutureType) != 2 {
		t.Fatal("future should expire")
	}
	if codes.DeactivationTarget(PerpetualFutureType) != 3 || codes.DeactivationTarget(SpotType) != 3 {
		t.Fatal("non-futures should be removed")
	}
	if err := (StateCodes{Live: 1, Expired: 1, Removed: 3}).Validate(); err == nil {
		t.Fatal("expected duplicate codes to fail validation")
	}
	if codes.Label(2) != "delisted-expired" {
		t.Fatalf("label = %s", codes.Label(2))
	}
}

func TestBatchScopesSymbolsByExchange(t *testing.T) {
	spot := *NewSymbol("Binance", "BTCUSDT", "btc", "usdt")
	spot.InstrumentID = "1"
	perp := *NewSymbol("Binance Futures", "BTCUSDT", "btc", "usdt")
	perp.InstrumentID = "2"

	batch := NewBatch([]Symbol{spot, perp}, []Asset{*NewAsset("BTC", "Bitcoin", Cryptocurrency)})

	if got := batch.ExchangeSymbols("binance")["BTCUSDT"]; got == nil || got.InstrumentID != "1" {
		t.Fatalf("spot lookup = %+v", got)
	}
	if got := batch.ExchangeSymbols("Binance Futures")["BTCUSDT"]; got == nil || got.InstrumentID != "2" {
		t.Fatalf("futures lookup = %+v", got)
	}
	if len(batch.ExchangeSymbols("Kraken")) != 0 {
		t.Fatal("unknown exchange should be empty")
	}
	if _, ok := batch.AssetCodes()["btc"]; !ok {
		t.Fatal("asset codes missing btc")
	}
	if batch.SymbolCount() != 2 {
		t.Fatalf("symbol count = %d", batch.SymbolCount())
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	decodeErr := &DecodeError{Source: "FTX", Entry: "BTC/USD", Err: cause}
	if !errors.Is(decodeErr, ErrSourceDecode) || !errors.Is(decodeErr, cause) {
		t.Fatal("DecodeError should unwrap to sentinel and cause")
	}
	persistErr := &PersistenceError{Op: "insert symbol", Key: "BTCUSDT", Err: cause}
	if !errors.Is(persistErr, ErrPersistence) {
		t.Fatal("PersistenceError should unwrap to ErrPersistence")
	}
	if !errors.Is(ConfigError("unknown exchange %q", "x"), ErrFatalConfig) {
		t.Fatal("ConfigError should wrap ErrFatalConfig")
	}
}

func TestInstrumentArgs(t *testing.T) {
	sym := NewSymbol("Binance Futures", "BTCUSDT", "BTC", "USDT")
	sym.InstrumentType = PerpetualFutureType
	sym.PricePrecision = 2
	sym.QuantityPrecision = 3
	sym.TickSize = decimal.RequireFromString("0.1")
	sym.StepSize = decimal.RequireFromString("0.001")
	sym.MaintMargin = decimal.RequireFromString("2.5")
	sym.RequiredMargin = decimal.NewFromInt(5)

	got := InstrumentArgs(sym)
	want := []string{
		"btc-usdt", "perpetual-future", "Binance Futures", "BTCUSDT", "btc", "usdt", "null",
		"2", "3", "0.10000000", "0.00100000", "1.00000000", "2.50000", "5.00000",
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAssetArgsAndFormat(t *testing.T) {
	args := AssetArgs(NewAsset("USD", "US Dollar", Fiat))
	if got := FormatArgs(args); got != `("usd", "US Dollar", "fiat")` {
		t.Fatalf("FormatArgs = %s", got)
	}
}
