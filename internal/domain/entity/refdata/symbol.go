package refdata

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type InstrumentType string

const (
	SpotType            InstrumentType = "spot"
	FutureType          InstrumentType = "future"
	PerpetualFutureType InstrumentType = "perpetual-future"
	UnknownInstrument   InstrumentType = "unknown"
)

func (t InstrumentType) String() string {
	return string(t)
}

func (t InstrumentType) IsValid() bool {
	switch t {
	case SpotType, FutureType, PerpetualFutureType, UnknownInstrument:
		return true
	default:
		return false
	}
}

func NewInstrumentType(s string) (InstrumentType, error) {
	t := InstrumentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid instrument type: %s", s)
	}
	return t, nil
}

const (
	// NoExpiry is stored for instruments that never expire.
	NoExpiry = "null"
	// DefaultPrecision is used when a precision can neither be read nor derived.
	DefaultPrecision = 8
)

// Symbol is one tradable instrument on one exchange. The lowercase
// "base-quote" name is always derived from the asset codes.
type Symbol struct {
	InstrumentID      string
	ExchangeID        string
	ExchangeName      string
	ExchangePairCode  string
	InstrumentType    InstrumentType
	PricePrecision    int
	QuantityPrecision int
	TickSize          decimal.Decimal
	StepSize          decimal.Decimal
	ContractSize      decimal.Decimal
	MaintMargin       decimal.Decimal
	RequiredMargin    decimal.Decimal
	Expiry            string
	Live              LiveState

	baseAsset  string
	quoteAsset string
}

// NewSymbol builds an unpersisted symbol with the documented field defaults.
func NewSymbol(exchangeName, pairCode, baseAsset, quoteAsset string) *Symbol {
	return &Symbol{
		ExchangeName:      exchangeName,
		ExchangePairCode:  pairCode,
		InstrumentType:    UnknownInstrument,
		PricePrecision:    DefaultPrecision,
		QuantityPrecision: DefaultPrecision,
		ContractSize:      decimal.NewFromInt(1),
		MaintMargin:       decimal.Zero,
		RequiredMargin:    decimal.Zero,
		Expiry:            NoExpiry,
		baseAsset:         NormalizeCode(baseAsset),
		quoteAsset:        NormalizeCode(quoteAsset),
	}
}

func (s *Symbol) BaseAsset() string  { return s.baseAsset }
func (s *Symbol) QuoteAsset() string { return s.quoteAsset }

// Name returns the derived "base-quote" symbol.
func (s *Symbol) Name() string {
	return s.baseAsset + "-" + s.quoteAsset
}

func (s *Symbol) IsPersisted() bool {
	return s.InstrumentID != ""
}

// MissingAssets lists the symbol's asset codes absent from known.
func (s *Symbol) MissingAssets(known map[string]struct{}) []string {
	var missing []string
	if _, ok := known[s.baseAsset]; !ok {
		missing = append(missing, s.baseAsset)
	}
	if _, ok := known[s.quoteAsset]; !ok && s.quoteAsset != s.baseAsset {
		missing = append(missing, s.quoteAsset)
	}
	return missing
}

// NormalizeCode lowercases and trims an asset code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
