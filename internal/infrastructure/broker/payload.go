package broker

import (
	"time"

	domain "refdatasync/internal/domain/entity/refdata"
)

type EventType string

const (
	EventAssetInserted      EventType = "asset.inserted"
	EventSymbolInserted     EventType = "symbol.inserted"
	EventSymbolStateChanged EventType = "symbol.state_changed"
)

// Event is the message body; exactly one of the entity fields is set.
type Event struct {
	Type       EventType `json:"type"`
	RunID      string    `json:"run_id"`
	Exchange   string    `json:"exchange,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	Asset      *domain.InsertedAsset  `json:"asset,omitempty"`
	Symbol     *domain.InsertedSymbol `json:"symbol,omitempty"`
	Transition *domain.Transition     `json:"transition,omitempty"`
}
