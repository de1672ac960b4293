package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeSeatCreated      ActivityType = "seat_created"
	TypeSeatPublished    ActivityType = "seat_published"
	TypeSeatAccepted     ActivityType = "seat_accepted"
	TypeSeatDeclined     ActivityType = "seat_declined"
	TypeSeatExpired      ActivityType = "seat_expired"
	TypeSeatReopened     ActivityType = "seat_reopened"
	TypeProjectStaffed   ActivityType = "project_staffed"
	TypeToolExecuted     ActivityType = "tool_executed"
	TypeToolFailed       ActivityType = "tool_failed"
	TypeAssistantReplied ActivityType = "assistant_replied"
)

// ActivityEntry represents an event in the audit log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	ProjectID    string       `json:"project_id"`
	ActorID      string       `json:"actor_id,omitempty"`
	AssignmentID *string      `json:"assignment_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
