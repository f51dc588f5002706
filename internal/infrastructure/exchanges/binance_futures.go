package exchanges

import (
	"errors"

	"github.com/bitly/go-simplejson"
	"github.com/shopspring/decimal"

	domain "refdatasync/internal/domain/entity/refdata"
)

// ParseBinanceDerivatives maps a USD-M (fapi) or COIN-M (dapi) exchangeInfo
// payload. Both carry contract metadata the spot schema lacks, and most of
// it is optional.
func ParseBinanceDerivatives(exchangeName, exchangeID string, payload []byte) (*Listing, error) {
	js, err := simplejson.NewJson(payload)
	if err != nil {
		return nil, &domain.DecodeError{Source: exchangeName, Err: err}
	}
	symbols, ok := js.CheckGet("symbols")
	if !ok {
		return nil, &domain.DecodeError{Source: exchangeName, Err: errors.New("missing symbols")}
	}
	entries, err := symbols.Array()
	if err != nil {
		return nil, &domain.DecodeError{Source: exchangeName, Err: err}
	}

	listing := newListing()
	for i := range entries {
		l := binanceListingFromJSON(symbols.GetIndex(i))
		if err := l.validate(); err != nil {
			listing.skip(exchangeName, entryLabel(i, l.PairCode), err)
			continue
		}
		if !l.active() {
			continue
		}
		listing.Symbols[l.PairCode] = buildBinanceSymbol(exchangeName, exchangeID, l)
		addBinanceAssets(listing.Assets, l)
	}
	return listing, nil
}

func binanceListingFromJSON(entry *simplejson.Json) binanceListing {
	l := binanceListing{
		PairCode:          entry.Get("symbol").MustString(),
		Status:            entry.Get("status").MustString(),
		ContractStatus:    entry.Get("contractStatus").MustString(),
		BaseAsset:         entry.Get("baseAsset").MustString(),
		QuoteAsset:        entry.Get("quoteAsset").MustString(),
		ContractSize:      optionalDecimal(entry, "contractSize"),
		MaintMargin:       optionalDecimal(entry, "maintMarginPercent"),
		RequiredMargin:    optionalDecimal(entry, "requiredMarginPercent"),
		PricePrecision:    optionalInt(entry, "pricePrecision"),
		QuantityPrecision: optionalInt(entry, "quantityPrecision"),
	}
	if v, ok := entry.CheckGet("contractType"); ok {
		if ct, err := v.String(); err == nil {
			l.ContractType = &ct
		}
	}
	if v, ok := entry.CheckGet("deliveryDate"); ok {
		if ms, err := v.Int64(); err == nil {
			l.DeliveryDate = &ms
		}
	}
	filters, _ := entry.Get("filters").Array()
	for _, f := range filters {
		if m, ok := f.(map[string]interface{}); ok {
			l.Filters = append(l.Filters, m)
		}
	}
	return l
}

func optionalDecimal(entry *simplejson.Json, key string) *decimal.Decimal {
	v, ok := entry.CheckGet(key)
	if !ok {
		return nil
	}
	d, ok := decimalValue(v.Interface())
	if !ok {
		return nil
	}
	return &d
}

func optionalInt(entry *simplejson.Json, key string) *int {
	v, ok := entry.CheckGet(key)
	if !ok {
		return nil
	}
	n, ok := intValue(v.Interface())
	if !ok || n < 0 {
		return nil
	}
	return &n
}
