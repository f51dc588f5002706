package refdata

import (
	"fmt"
	"strings"
)

type AssetType string

const (
	Cryptocurrency AssetType = "cryptocurrency"
	Fiat           AssetType = "fiat"
	Commodity      AssetType = "commodity"
	Stablecoin     AssetType = "stablecoin"
	LeveragedToken AssetType = "leveraged token"
	UnknownAsset   AssetType = "unknown"
)

const maxAssetNameLen = 49

func (at AssetType) String() string {
	return string(at)
}

func (at AssetType) IsValid() bool {
	switch at {
	case Cryptocurrency, Fiat, Commodity, Stablecoin, LeveragedToken, UnknownAsset:
		return true
	default:
		return false
	}
}

// IsConcrete reports whether the type carries real information.
func (at AssetType) IsConcrete() bool {
	return at != "" && at != UnknownAsset
}

// ID is the reference database type code; 0 for unresolved types.
func (at AssetType) ID() int {
	switch at {
	case Fiat:
		return 1
	case Commodity:
		return 2
	case Cryptocurrency:
		return 3
	case LeveragedToken:
		return 4
	case Stablecoin:
		return 5
	default:
		return 0
	}
}

func NewAssetType(s string) (AssetType, error) {
	at := AssetType(strings.ToLower(strings.TrimSpace(s)))
	if !at.IsValid() {
		return "", fmt.Errorf("invalid asset type: %s", s)
	}
	return at, nil
}

// Asset is a currency referenced by symbols, deduplicated by code.
type Asset struct {
	AssetID string
	Code    string
	Name    string
	Type    AssetType
}

// NewAsset normalizes the code and truncates the display name. An empty name
// falls back to the code.
func NewAsset(code, name string, assetType AssetType) *Asset {
	code = NormalizeCode(code)
	name = strings.TrimSpace(name)
	if name == "" {
		name = code
	}
	if runes := []rune(name); len(runes) > maxAssetNameLen {
		name = string(runes[:maxAssetNameLen])
	}
	if assetType == "" {
		assetType = UnknownAsset
	}
	return &Asset{Code: code, Name: name, Type: assetType}
}

func (a Asset) TypeID() int {
	return a.Type.ID()
}
