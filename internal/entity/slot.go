package entity

import (
	"time"

	"github.com/joseph-ayodele/gym-slots/constants"
)

// Slot is one extracted open-use window before reference resolution.
type Slot struct {
	Date          string                  `json:"date"`       // YYYY-MM-DD
	StartTime     string                  `json:"start_time"` // HH:mm
	EndTime       string                  `json:"end_time"`
	SportName     string                  `json:"sport_name"`
	Status        constants.SlotStatus    `json:"status"`
	Capacity      *int                    `json:"capacity,omitempty"`
	Remaining     *int                    `json:"remaining,omitempty"`
	ReceptionType constants.ReceptionType `json:"reception_type"`
	Target        string                  `json:"target"`
	Notes         string                  `json:"notes"`
}

// Schedule is everything one extraction run derives from a document.
type Schedule struct {
	GymName  string `json:"gymName"`
	AreaName string `json:"areaName,omitempty"`
	Address  string `json:"address,omitempty"`
	Tel      string `json:"tel,omitempty"`
	Slots    []Slot `json:"slots"`
}

// OpenSlot is a persisted slot with every reference resolved.
type OpenSlot struct {
	ID            string                  `json:"id"`
	GymID         string                  `json:"gym_id"`
	AreaID        string                  `json:"area_id"`
	SportID       string                  `json:"sport_id"`
	SourceID      string                  `json:"source_id"`
	Date          string                  `json:"date"`
	StartTime     string                  `json:"start_time"`
	EndTime       string                  `json:"end_time"`
	Status        constants.SlotStatus    `json:"status"`
	Capacity      *int                    `json:"capacity,omitempty"`
	Remaining     *int                    `json:"remaining,omitempty"`
	ReceptionType constants.ReceptionType `json:"reception_type"`
	Target        string                  `json:"target"`
	Notes         string                  `json:"notes"`
	UpdatedAt     time.Time               `json:"updated_at"`
}
