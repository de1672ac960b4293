package project

import "time"

// Status is the staffing/lifecycle stage of a project.
type Status string

const (
	StatusPause     Status = "pause"
	StatusAwaitTeam Status = "attente-team"
	StatusPlay      Status = "play"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known project status.
func (s Status) Valid() bool {
	switch s {
	case StatusPause, StatusAwaitTeam, StatusPlay, StatusCompleted:
		return true
	}
	return false
}

// Project is a client's project. Archival and deletion are soft: the row stays,
// the flags suppress visibility.
type Project struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Budget      float64    `json:"budget"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Hidden reports whether the project is archived or soft-deleted.
func (p *Project) Hidden() bool {
	return p.ArchivedAt != nil || p.DeletedAt != nil
}

// ProjectSummary is a lightweight representation for listing
type ProjectSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      Status    `json:"status"`
	Budget      float64   `json:"budget"`
	SeatCount   int       `json:"seat_count"`
	FilledSeats int       `json:"filled_seats"`
	OpenTasks   int       `json:"open_tasks"`
	CreatedAt   time.Time `json:"created_at"`
}
