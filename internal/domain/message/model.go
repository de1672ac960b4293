package message

import (
	"slices"
	"time"
)

// ThreadType controls who can read a thread.
type ThreadType string

const (
	ThreadPublic  ThreadType = "public"
	ThreadPrivate ThreadType = "private"
)

// Valid reports whether t is a known thread type.
func (t ThreadType) Valid() bool {
	return t == ThreadPublic || t == ThreadPrivate
}

// Participant is a member of a private thread.
type Participant struct {
	UserID string `json:"user_id"`
	IsAI   bool   `json:"is_ai"`
}

// Thread groups messages on a project.
type Thread struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"project_id"`
	Type         ThreadType    `json:"type"`
	Title        string        `json:"title"`
	Participants []Participant `json:"participants,omitempty"`
	CreatedBy    string        `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
}

// HasParticipant reports whether userID takes part in the thread.
func (t *Thread) HasParticipant(userID string) bool {
	return slices.ContainsFunc(t.Participants, func(p Participant) bool {
		return p.UserID == userID
	})
}

// ParticipantIDs returns the user IDs of the thread participants.
func (t *Thread) ParticipantIDs() []string {
	ids := make([]string, 0, len(t.Participants))
	for _, p := range t.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// Message is a post in a thread. IsPrivate and Participants are copied from the
// thread when the message is sent and never recomputed.
type Message struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	ProjectID    string    `json:"project_id"`
	SenderID     string    `json:"sender_id"`
	Content      string    `json:"content"`
	IsAI         bool      `json:"is_ai"`
	IsPrivate    bool      `json:"is_private"`
	Participants []string  `json:"participants,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// VisibleTo reports whether userID may read the message.
func (m *Message) VisibleTo(userID string) bool {
	if !m.IsPrivate {
		return true
	}
	return m.SenderID == userID || slices.Contains(m.Participants, userID)
}
