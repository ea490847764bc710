package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PartType distinguishes the two tracking disciplines: components are tracked
// by maintenance events, consumables by on-hand quantity.
type PartType string

const (
	PartTypeComponent  PartType = "component"
	PartTypeConsumable PartType = "consumable"
)

// Valid reports whether t is one of the two known part types.
func (t PartType) Valid() bool {
	return t == PartTypeComponent || t == PartTypeConsumable
}

// LocationEntry is one immutable record in a part's location log.
// From is nil only on the creation-time seed entry.
type LocationEntry struct {
	Date time.Time `json:"date"`
	From *string   `json:"from"`
	To   string    `json:"to"`
}

// QuantityEntry is one immutable record in a part's quantity log.
// The creation-time seed entry has From == 0.
type QuantityEntry struct {
	Date time.Time `json:"date"`
	From int       `json:"from"`
	To   int       `json:"to"`
}

// UnmarshalJSON normalizes legacy entries written by the previous system,
// which used {"prev": n, "new": m} instead of the canonical {"from", "to"}.
func (q *QuantityEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date time.Time `json:"date"`
		From *int      `json:"from"`
		To   *int      `json:"to"`
		Prev *int      `json:"prev"`
		New  *int      `json:"new"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Date = raw.Date
	switch {
	case raw.From != nil || raw.To != nil:
		if raw.From != nil {
			q.From = *raw.From
		}
		if raw.To != nil {
			q.To = *raw.To
		}
	default:
		if raw.Prev != nil {
			q.From = *raw.Prev
		}
		if raw.New != nil {
			q.To = *raw.New
		}
	}
	return nil
}

// EventEntry is one immutable maintenance record in a part's event log.
type EventEntry struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Technician  string    `json:"technician"`
}

// Part represents one physical part or consumable batch. The three history
// columns are append-only JSONB arrays: mutations append exactly one entry and
// never reorder or truncate existing ones.
type Part struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PartNumber int       `gorm:"uniqueIndex;not null"`
	Name       string    `gorm:"index;not null"`
	PartType   PartType  `gorm:"not null"`
	Typt       string    `gorm:"not null"`
	Year       *int
	Details    *string
	Quantity   int    `gorm:"not null;default:1"`
	Location   string `gorm:"not null"`
	Link       string `gorm:"not null"`

	QuantityHistory datatypes.JSONSlice[QuantityEntry] `gorm:"type:jsonb"`
	LocationHistory datatypes.JSONSlice[LocationEntry] `gorm:"type:jsonb"`
	EventsHistory   datatypes.JSONSlice[EventEntry]    `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Part) TableName() string { return "parts" }

// LastEventDate returns the date of the most recent maintenance event.
// ok is false when the part has no events.
func (p *Part) LastEventDate() (time.Time, bool) {
	if len(p.EventsHistory) == 0 {
		return time.Time{}, false
	}
	last := p.EventsHistory[0].Date
	for _, e := range p.EventsHistory[1:] {
		if e.Date.After(last) {
			last = e.Date
		}
	}
	return last, true
}
