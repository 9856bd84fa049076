package entity

import "time"

// Gym represents a venue for data transfer between layers.
type Gym struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Address      string         `json:"address"`
	Tel          string         `json:"tel"`
	AreaID       string         `json:"area_id,omitempty"` // area_ reference, empty when unassigned
	Tags         []string       `json:"tags"`
	Courts       map[string]int `json:"courts"`
	Format       string         `json:"format"`
	Restrictions []string       `json:"restrictions"`
	Parking      string         `json:"parking"`
	OfficialURL  string         `json:"official_url"`
	Distance     string         `json:"distance"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Area is a geographic grouping of gyms.
type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Sport is an entry of the fixed sport vocabulary.
type Sport struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
