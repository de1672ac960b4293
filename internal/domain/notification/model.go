package notification

import "time"

// Status is the read state of a notification. Archived is terminal.
type Status string

const (
	StatusUnread   Status = "unread"
	StatusRead     Status = "read"
	StatusArchived Status = "archived"
)

// Type classifies what the notification is about.
type Type string

const (
	TypeOpportunity  Type = "opportunity"
	TypeSeatFilled   Type = "seat_filled"
	TypeSeatChanged  Type = "seat_changed"
	TypeTaskAssigned Type = "task_assigned"
	TypeMeeting      Type = "meeting_scheduled"
)

// Notification tells a candidate about an opportunity or an event on a seat.
type Notification struct {
	ID           string         `json:"id"`
	CandidateID  string         `json:"candidate_id"`
	AssignmentID *string        `json:"assignment_id,omitempty"`
	Type         Type           `json:"type"`
	Status       Status         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
