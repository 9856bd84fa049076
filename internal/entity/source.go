package entity

import (
	"time"

	"github.com/joseph-ayodele/gym-slots/constants"
)

// Source is a registered schedule document URL.
type Source struct {
	ID            string               `json:"id"`
	URL           string               `json:"url"`
	Type          constants.SourceType `json:"type"`
	GymID         string               `json:"gym_id,omitempty"`
	LastCheckedAt *time.Time           `json:"last_checked_at,omitempty"`
	ParserVersion string               `json:"parser_version"`
	CreatedAt     time.Time            `json:"created_at"`
}
