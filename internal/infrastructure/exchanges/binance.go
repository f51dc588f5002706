package exchanges

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "refdatasync/internal/domain/entity/refdata"
)

const (
	breakStatus = "BREAK"

	// perpetualDeliveryDate is what Binance reports as the delivery date of
	// contracts that never settle.
	perpetualDeliveryDate = "2100-12-25"
)

// binanceListing is one exchangeInfo entry after field extraction, shared by
// the spot and the derivatives parsers. Nil pointers mean the field was absent.
type binanceListing struct {
	PairCode          string
	Status            string
	ContractStatus    string
	BaseAsset         string
	QuoteAsset        string
	ContractType      *string
	DeliveryDate      *int64
	ContractSize      *decimal.Decimal
	MaintMargin       *decimal.Decimal
	RequiredMargin    *decimal.Decimal
	PricePrecision    *int
	QuantityPrecision *int
	Filters           []map[string]interface{}
}

func (l binanceListing) active() bool {
	return l.Status != breakStatus && l.ContractStatus != breakStatus
}

func (l binanceListing) validate() error {
	switch {
	case strings.TrimSpace(l.PairCode) == "":
		return errors.New("missing symbol")
	case strings.TrimSpace(l.BaseAsset) == "":
		return errors.New("missing baseAsset")
	case strings.TrimSpace(l.QuoteAsset) == "":
		return errors.New("missing quoteAsset")
	}
	return nil
}

func buildBinanceSymbol(exchangeName, exchangeID string, l binanceListing) *domain.Symbol {
	sym := domain.NewSymbol(exchangeName, l.PairCode, l.BaseAsset, l.QuoteAsset)
	sym.ExchangeID = exchangeID

	if l.DeliveryDate != nil {
		sym.Expiry = time.UnixMilli(*l.DeliveryDate).UTC().Format(time.DateOnly)
	}
	sym.InstrumentType = classifyBinanceContract(l.ContractType, sym.Expiry)
	if sym.InstrumentType == domain.PerpetualFutureType {
		sym.Expiry = domain.NoExpiry
	}

	if l.ContractSize != nil {
		sym.ContractSize = *l.ContractSize
	}
	if l.MaintMargin != nil {
		sym.MaintMargin = *l.MaintMargin
	}
	if l.RequiredMargin != nil {
		sym.RequiredMargin = *l.RequiredMargin
	}

	for _, filter := range l.Filters {
		if tick, ok := decimalValue(filter["tickSize"]); ok {
			sym.TickSize = tick
			continue
		}
		if filter["filterType"] == "LOT_SIZE" {
			if step, ok := decimalValue(filter["stepSize"]); ok {
				sym.StepSize = step
			}
		}
	}
	sym.PricePrecision = domain.ResolvePrecision(l.PricePrecision, sym.TickSize)
	sym.QuantityPrecision = domain.ResolvePrecision(l.QuantityPrecision, sym.StepSize)
	return sym
}

// classifyBinanceContract maps contractType to an instrument type. Listings
// without a contract type are spot; some sources only mark perpetuals by the
// far-future delivery date.
func classifyBinanceContract(contractType *string, expiry string) domain.InstrumentType {
	if contractType == nil {
		return domain.SpotType
	}
	ct := strings.ToUpper(strings.TrimSpace(*contractType))
	switch {
	case ct == "PERPETUAL":
		return domain.PerpetualFutureType
	case strings.Contains(ct, "QUARTER"):
		return domain.FutureType
	case ct == "SPOT":
		return domain.SpotType
	case expiry == perpetualDeliveryDate:
		return domain.PerpetualFutureType
	default:
		return domain.UnknownInstrument
	}
}

// addBinanceAssets registers base and quote as cryptocurrency, once per code.
func addBinanceAssets(assets map[string]*domain.Asset, l binanceListing) {
	for _, code := range []string{l.BaseAsset, l.QuoteAsset} {
		key := domain.NormalizeCode(code)
		if _, ok := assets[key]; ok {
			continue
		}
		assets[key] = domain.NewAsset(key, key, domain.Cryptocurrency)
	}
}

// decimalValue reads a decimal from a decoded JSON value. Binance sends most
// numbers as strings.
func decimalValue(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		return d, err == nil
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	default:
		return decimal.Decimal{}, false
	}
}

func intValue(v interface{}) (int, bool) {
	d, ok := decimalValue(v)
	if !ok || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

func entryLabel(index int, pairCode string) string {
	if pairCode != "" {
		return pairCode
	}
	return fmt.Sprintf("#%d", index)
}
