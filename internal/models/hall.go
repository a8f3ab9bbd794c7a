package models

import "time"

// Hall is a bookable venue.
type Hall struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	SeatingCapacity int       `db:"seating_capacity" json:"seatingCapacity"`
	Description     string    `db:"description" json:"description"`
	Location        string    `db:"location" json:"location"`
	Facilities      string    `db:"facilities" json:"facilities"`
	IsActive        bool      `db:"is_active" json:"isActive"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// HallRequest creates or replaces a hall.
type HallRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	SeatingCapacity int    `json:"seatingCapacity" validate:"required,gt=0"`
	Description     string `json:"description" validate:"max=2000"`
	Location        string `json:"location" validate:"max=255"`
	Facilities      string `json:"facilities" validate:"max=2000"`
}

// HallAvailabilityQuery asks for halls free for a window.
type HallAvailabilityQuery struct {
	Participants   int
	Start          *time.Time
	End            *time.Time
	ExcludeEventID string
}

// Valid reports whether the query can match any hall.
func (q HallAvailabilityQuery) Valid() bool {
	return q.Participants > 0 && q.Start != nil && q.End != nil && !q.End.Before(*q.Start)
}
