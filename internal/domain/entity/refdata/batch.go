package refdata

import "strings"

// Batch is the per-run view of the reference database. Symbols are indexed by
// instrument id and, per exchange, by pair code.
type Batch struct {
	symbolsByID       map[string]*Symbol
	symbolsByExchange map[string]map[string]*Symbol
	assetsByCode      map[string]*Asset
}

func NewBatch(symbols []Symbol, assets []Asset) *Batch {
	b := &Batch{
		symbolsByID:       make(map[string]*Symbol, len(symbols)),
		symbolsByExchange: make(map[string]map[string]*Symbol),
	}
	for i := range symbols {
		sym := &symbols[i]
		if sym.InstrumentID != "" {
			b.symbolsByID[sym.InstrumentID] = sym
		}
		key := exchangeKey(sym.ExchangeName)
		byPair, ok := b.symbolsByExchange[key]
		if !ok {
			byPair = make(map[string]*Symbol)
			b.symbolsByExchange[key] = byPair
		}
		byPair[sym.ExchangePairCode] = sym
	}
	b.ReplaceAssets(assets)
	return b
}

func (b *Batch) Symbol(instrumentID string) (*Symbol, bool) {
	sym, ok := b.symbolsByID[instrumentID]
	return sym, ok
}

// ExchangeSymbols returns the persisted symbols of one exchange keyed by pair
// code. The map is never nil.
func (b *Batch) ExchangeSymbols(exchangeName string) map[string]*Symbol {
	if byPair, ok := b.symbolsByExchange[exchangeKey(exchangeName)]; ok {
		return byPair
	}
	return map[string]*Symbol{}
}

func (b *Batch) SymbolCount() int {
	return len(b.symbolsByID)
}

func (b *Batch) Assets() map[string]*Asset {
	return b.assetsByCode
}

func (b *Batch) AssetCodes() map[string]struct{} {
	codes := make(map[string]struct{}, len(b.assetsByCode))
	for code := range b.assetsByCode {
		codes[code] = struct{}{}
	}
	return codes
}

// ReplaceAssets swaps the asset set, typically after assets were inserted and
// re-read from the database.
func (b *Batch) ReplaceAssets(assets []Asset) {
	b.assetsByCode = make(map[string]*Asset, len(assets))
	for i := range assets {
		asset := &assets[i]
		b.assetsByCode[NormalizeCode(asset.Code)] = asset
	}
}

func exchangeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
