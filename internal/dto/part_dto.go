package dto

import (
	"time"

	"partdepot/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreatePartRequest struct {
	Name       string  `json:"name"        validate:"required,min=1,max=120"`
	PartType   string  `json:"part_type"   validate:"required,oneof=component consumable"`
	Typt       string  `json:"typt"        validate:"required"`
	Year       *int    `json:"year"`
	Details    *string `json:"details"`
	Quantity   *int    `json:"quantity"    validate:"omitempty,min=0"`
	Location   string  `json:"location"    validate:"required"`
	Link       string  `json:"link"        validate:"required,url"`
	PartNumber *int    `json:"part_number" validate:"omitempty,min=1"`
}

// UpdatePartRequest is the edit-form patch: scalar fields only, no history
// appends. Use the move / quantity endpoints for logged changes.
type UpdatePartRequest struct {
	Name     *string `json:"name"      validate:"omitempty,min=1,max=120"`
	PartType *string `json:"part_type" validate:"omitempty,oneof=component consumable"`
	Typt     *string `json:"typt"      validate:"omitempty,min=1"`
	Year     *int    `json:"year"`
	Details  *string `json:"details"`
	Quantity *int    `json:"quantity"  validate:"omitempty,min=0"`
	Location *string `json:"location"  validate:"omitempty,min=1"`
	Link     *string `json:"link"      validate:"omitempty,url"`
}

type MovePartRequest struct {
	Location string `json:"location" validate:"required"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

type AddEventRequest struct {
	Description string `json:"description" validate:"required"`
	Technician  string `json:"technician"  validate:"required"`
}

type LabelSheetRequest struct {
	PartIDs []string `json:"part_ids" validate:"required,min=1,dive,uuid"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

// PartFilter carries the list-page filter criteria. All supplied
// predicates are conjunctive; the last-event range is applied after sorting.
type PartFilter struct {
	Search       string   `form:"search"`
	PartTypes    []string `form:"part_type"`
	Locations    []string `form:"location"`
	YearMin      *int     `form:"year_min"`
	YearMax      *int     `form:"year_max"`
	LastEventMin *int     `form:"last_event_min" validate:"omitempty,min=0"`
	LastEventMax *int     `form:"last_event_max" validate:"omitempty,min=0"`
	SortBy       string   `form:"sort_by"        validate:"omitempty,oneof=name year lastEvent locationHistory"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PartResponse struct {
	ID              string                `json:"id"`
	PartNumber      int                   `json:"part_number"`
	Name            string                `json:"name"`
	PartType        string                `json:"part_type"`
	Typt            string                `json:"typt"`
	Year            *int                  `json:"year"`
	Details         *string               `json:"details"`
	Quantity        int                   `json:"quantity"`
	Location        string                `json:"location"`
	Link            string                `json:"link"`
	QuantityHistory []model.QuantityEntry `json:"quantity_history"`
	LocationHistory []model.LocationEntry `json:"location_history"`
	EventsHistory   []model.EventEntry    `json:"events_history"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type PartListResponse struct {
	Data  []PartResponse `json:"data"`
	Total int            `json:"total"`
}

// LookupResponse is returned by the barcode scan flow. Part is set on a direct
// part-number hit; Matches holds the name-search fallback results otherwise.
type LookupResponse struct {
	Part    *PartResponse  `json:"part,omitempty"`
	Matches []PartResponse `json:"matches,omitempty"`
}

type TyptCount struct {
	Typt  string `json:"typt"`
	Count int64  `json:"count"`
}

type StatsResponse struct {
	TotalParts  int64       `json:"total_parts"`
	Components  int64       `json:"components"`
	Consumables int64       `json:"consumables"`
	TyptCounts  []TyptCount `json:"typt_counts"`
}

type LabelJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
