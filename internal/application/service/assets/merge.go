package assets

import (
	"sort"

	domain "refdatasync/internal/domain/entity/refdata"
)

// Source is one exchange's asset map. Sources are merged in the order given.
type Source struct {
	Name   string
	Assets map[string]*domain.Asset
}

// Merge folds the incoming sources into one asset set and returns the assets
// whose code is not in existing. Inputs are never modified.
//
// A code seen again keeps its first entry, except that an unknown type is
// replaced by the newcomer's concrete type (or cryptocurrency when the
// newcomer has none). Anything still unknown after the fold is
// cryptocurrency.
func Merge(existing map[string]*domain.Asset, incoming []Source) map[string]*domain.Asset {
	combined := make(map[string]*domain.Asset)
	for _, source := range incoming {
		for _, code := range sortedCodes(source.Assets) {
			asset := source.Assets[code]
			if asset == nil {
				continue
			}
			key := domain.NormalizeCode(code)
			current, ok := combined[key]
			if !ok {
				clone := *asset
				clone.Code = key
				combined[key] = &clone
				continue
			}
			if current.Type.IsConcrete() {
				continue
			}
			if asset.Type.IsConcrete() {
				current.Type = asset.Type
			} else {
				current.Type = domain.Cryptocurrency
			}
		}
	}

	missing := make(map[string]*domain.Asset)
	for code, asset := range combined {
		if !asset.Type.IsConcrete() {
			asset.Type = domain.Cryptocurrency
		}
		if _, ok := existing[code]; ok {
			continue
		}
		missing[code] = asset
	}
	return missing
}

// Sorted returns the assets ordered by code.
func Sorted(set map[string]*domain.Asset) []*domain.Asset {
	out := make([]*domain.Asset, 0, len(set))
	for _, code := range sortedCodes(set) {
		out = append(out, set[code])
	}
	return out
}

func sortedCodes(set map[string]*domain.Asset) []string {
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
