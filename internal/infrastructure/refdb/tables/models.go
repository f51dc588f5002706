package tables

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	domain "refdatasync/internal/domain/entity/refdata"
)

type InstrumentModel struct {
	InstrumentID          uint64          `gorm:"primaryKey;column:instrument_id;autoIncrement"`
	ExchangeID            string          `gorm:"column:exchange_id;type:varchar(32)"`
	Exchange              string          `gorm:"column:exchange;type:varchar(64);not null;uniqueIndex:idx_instrument_exchange_pair"`
	ExchangePairCode      string          `gorm:"column:exchange_pair_code;type:varchar(64);not null;uniqueIndex:idx_instrument_exchange_pair"`
	Symbol                string          `gorm:"column:symbol;type:varchar(64);not null;index"`
	InstrumentType        string          `gorm:"column:instrument_type;type:varchar(32);not null"`
	BaseAsset             string          `gorm:"column:base_asset;type:varchar(50);not null"`
	QuoteAsset            string          `gorm:"column:quote_asset;type:varchar(50);not null"`
	Expiry                string          `gorm:"column:expiry;type:varchar(16);not null;default:'null'"`
	PricePrecision        int             `gorm:"column:price_precision;not null"`
	QuantityPrecision     int             `gorm:"column:quantity_precision;not null"`
	TickSize              decimal.Decimal `gorm:"column:tick_size;type:decimal(30,8)"`
	StepSize              decimal.Decimal `gorm:"column:step_size;type:decimal(30,8)"`
	ContractSize          decimal.Decimal `gorm:"column:contract_size;type:decimal(30,8)"`
	MaintMarginPercent    decimal.Decimal `gorm:"column:maint_margin_percent;type:decimal(12,5)"`
	RequiredMarginPercent decimal.Decimal `gorm:"column:required_margin_percent;type:decimal(12,5)"`
	Live                  int             `gorm:"column:live;not null;index"`
	CreatedAt             time.Time       `gorm:"column:created_at"`
	UpdatedAt             time.Time       `gorm:"column:updated_at"`
}

func (InstrumentModel) TableName() string {
	return "instrument"
}

func (m *InstrumentModel) ToDomain() domain.Symbol {
	sym := domain.NewSymbol(m.Exchange, m.ExchangePairCode, m.BaseAsset, m.QuoteAsset)
	sym.InstrumentID = strconv.FormatUint(m.InstrumentID, 10)
	sym.ExchangeID = m.ExchangeID
	sym.Expiry = m.Expiry
	sym.PricePrecision = m.PricePrecision
	sym.QuantityPrecision = m.QuantityPrecision
	sym.TickSize = m.TickSize
	sym.StepSize = m.StepSize
	sym.ContractSize = m.ContractSize
	sym.MaintMargin = m.MaintMarginPercent
	sym.RequiredMargin = m.RequiredMarginPercent
	sym.Live = domain.LiveState(m.Live)
	if t, err := domain.NewInstrumentType(m.InstrumentType); err == nil {
		sym.InstrumentType = t
	}
	return *sym
}

func FromSymbolDomain(sym *domain.Symbol, live domain.LiveState) *InstrumentModel {
	return &InstrumentModel{
		ExchangeID:            sym.ExchangeID,
		Exchange:              sym.ExchangeName,
		ExchangePairCode:      sym.ExchangePairCode,
		Symbol:                sym.Name(),
		InstrumentType:        sym.InstrumentType.String(),
		BaseAsset:             sym.BaseAsset(),
		QuoteAsset:            sym.QuoteAsset(),
		Expiry:                sym.Expiry,
		PricePrecision:        sym.PricePrecision,
		QuantityPrecision:     sym.QuantityPrecision,
		TickSize:              sym.TickSize,
		StepSize:              sym.StepSize,
		ContractSize:          sym.ContractSize,
		MaintMarginPercent:    sym.MaintMargin,
		RequiredMarginPercent: sym.RequiredMargin,
		Live:                  int(live),
	}
}

type AssetModel struct {
	AssetID     uint64    `gorm:"primaryKey;column:asset_id;autoIncrement"`
	Code        string    `gorm:"column:code;type:varchar(50);not null;uniqueIndex"`
	Name        string    `gorm:"column:name;type:varchar(49);not null"`
	AssetType   string    `gorm:"column:asset_type;type:varchar(32);not null"`
	AssetTypeID int       `gorm:"column:asset_type_id;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (AssetModel) TableName() string {
	return "asset"
}

func (m *AssetModel) ToDomain() domain.Asset {
	at, err := domain.NewAssetType(m.AssetType)
	if err != nil {
		at = domain.UnknownAsset
	}
	asset := domain.NewAsset(m.Code, m.Name, at)
	asset.AssetID = strconv.FormatUint(m.AssetID, 10)
	return *asset
}

func FromAssetDomain(asset *domain.Asset) *AssetModel {
	return &AssetModel{
		Code:        asset.Code,
		Name:        asset.Name,
		AssetType:   asset.Type.String(),
		AssetTypeID: asset.TypeID(),
	}
}
