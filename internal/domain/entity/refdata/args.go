package refdata

import (
	"strconv"
	"strings"
)

const (
	sizeDecimals   = 8
	marginDecimals = 5
)

// InstrumentArgs is the positional argument tuple of sp_instrument_insert.
// Sizes are rendered with 8 fractional digits and margins with 5.
func InstrumentArgs(sym *Symbol) []string {
	return []string{
		sym.Name(),
		sym.InstrumentType.String(),
		sym.ExchangeName,
		sym.ExchangePairCode,
		sym.BaseAsset(),
		sym.QuoteAsset(),
		sym.Expiry,
		strconv.Itoa(sym.PricePrecision),
		strconv.Itoa(sym.QuantityPrecision),
		sym.TickSize.StringFixed(sizeDecimals),
		sym.StepSize.StringFixed(sizeDecimals),
		sym.ContractSize.StringFixed(sizeDecimals),
		sym.MaintMargin.StringFixed(marginDecimals),
		sym.RequiredMargin.StringFixed(marginDecimals),
	}
}

// AssetArgs is the positional argument tuple of sp_asset_insert.
func AssetArgs(asset *Asset) []string {
	return []string{asset.Code, asset.Name, asset.Type.String()}
}

// FormatArgs renders a tuple the way it is logged and printed on dry runs.
func FormatArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = strconv.Quote(arg)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
