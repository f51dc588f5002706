package refdata

import (
	"time"

	"github.com/google/uuid"
)

type RunMode string

const (
	ModeInsert RunMode = "insert"
	ModeAudit  RunMode = "audit"
)

// Rejection is a symbol that could not be inserted because one of its assets
// is not in the reference database.
type Rejection struct {
	PairCode      string   `json:"pair_code"`
	Symbol        string   `json:"symbol"`
	Reason        string   `json:"reason"`
	MissingAssets []string `json:"missing_assets"`
}

// Transition is a proposed (or applied) lifecycle change of a persisted symbol.
type Transition struct {
	InstrumentID   string         `json:"instrument_id"`
	PairCode       string         `json:"pair_code"`
	InstrumentType InstrumentType `json:"instrument_type"`
	From           LiveState      `json:"from"`
	To             LiveState      `json:"to"`
	Label          string         `json:"label"`
}

// Failure records a per-entity error that did not stop the run.
type Failure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

type InsertedAsset struct {
	AssetID string    `json:"asset_id,omitempty"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Type    AssetType `json:"type"`
	TypeID  int       `json:"type_id"`
}

type InsertedSymbol struct {
	InstrumentID string         `json:"instrument_id,omitempty"`
	PairCode     string         `json:"pair_code"`
	Symbol       string         `json:"symbol"`
	Type         InstrumentType `json:"instrument_type"`
}

// Report summarises one reconciliation run.
type Report struct {
	RunID       uuid.UUID `json:"run_id"`
	Exchange    string    `json:"exchange"`
	Mode        RunMode   `json:"mode"`
	DryRun      bool      `json:"dry_run"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	SourcesRead []string  `json:"sources_read"`

	AssetsInserted []InsertedAsset `json:"assets_inserted"`
	AssetFailures  []Failure       `json:"asset_failures"`

	SymbolsInserted []InsertedSymbol `json:"symbols_inserted"`
	SymbolFailures  []Failure        `json:"symbol_failures"`
	Rejected        []Rejection      `json:"rejected"`

	Transitions        []Transition `json:"transitions"`
	TransitionFailures []Failure    `json:"transition_failures"`
}

func (r *Report) FailureCount() int {
	return len(r.AssetFailures) + len(r.SymbolFailures) + len(r.TransitionFailures)
}
