package model

import "time"

// EntityKind selects which status ledger an entity id refers to.
type EntityKind string

const (
	EntityLesson EntityKind = "lesson"
	EntityQuote  EntityKind = "quote"
)

// StatusRecord is one immutable row in a status ledger. Records are only
// ever inserted; the owning entity's current-status pointer is re-pointed
// to the latest one, preserving the full history.
type StatusRecord struct {
	ID        int64             `json:"id"`
	EntityID  int64             `json:"entity_id"`
	Status    string            `json:"status"`
	Context   map[string]string `json:"context"`
	CreatedAt time.Time         `json:"created_at"`
}
