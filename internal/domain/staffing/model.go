package staffing

import (
	"slices"
	"time"
)

// BookingStatus is the lifecycle stage of an assignment.
type BookingStatus string

const (
	BookingDraft    BookingStatus = "draft"
	BookingSearch   BookingStatus = "recherche"
	BookingAccepted BookingStatus = "accepted"
	BookingDeclined BookingStatus = "declined"
	BookingExpired  BookingStatus = "expired"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingDraft, BookingSearch, BookingAccepted, BookingDeclined, BookingExpired:
		return true
	}
	return false
}

// Seniority is the experience level required by a seat or held by a candidate.
type Seniority string

const (
	SeniorityJunior       Seniority = "junior"
	SeniorityIntermediate Seniority = "intermediate"
	SenioritySenior       Seniority = "senior"
	SeniorityExpert       Seniority = "expert"
)

// Valid reports whether s is a known seniority.
func (s Seniority) Valid() bool {
	switch s {
	case SeniorityJunior, SeniorityIntermediate, SenioritySenior, SeniorityExpert:
		return true
	}
	return false
}

// Availability is a candidate's current availability.
type Availability string

const (
	AvailabilityAvailable     Availability = "disponible"
	AvailabilityOnMission     Availability = "en-mission"
	AvailabilityQualification Availability = "qualification"
)

// Valid reports whether a is a known availability.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityOnMission, AvailabilityQualification:
		return true
	}
	return false
}

// Assignment is a project's need for one resource (a seat). It is unbound while
// CandidateID is nil and bound to exactly one candidate otherwise.
type Assignment struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	ProfileID     string        `json:"profile_id"`
	Seniority     Seniority     `json:"seniority"`
	Languages     []string      `json:"languages"`
	Expertises    []string      `json:"expertises"`
	BookingStatus BookingStatus `json:"booking_status"`
	CandidateID   *string       `json:"candidate_id"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Bound reports whether the seat is committed to a candidate.
func (a *Assignment) Bound() bool {
	return a.CandidateID != nil && *a.CandidateID != ""
}

// Equal reports whether two assignment snapshots carry the same row content.
func (a *Assignment) Equal(other *Assignment) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.ID == other.ID &&
		a.ProjectID == other.ProjectID &&
		a.ProfileID == other.ProfileID &&
		a.Seniority == other.Seniority &&
		a.BookingStatus == other.BookingStatus &&
		stringPtrEqual(a.CandidateID, other.CandidateID) &&
		slices.Equal(a.Languages, other.Languages) &&
		slices.Equal(a.Expertises, other.Expertises) &&
		a.UpdatedAt.Equal(other.UpdatedAt)
}

// Clone returns a deep copy.
func (a *Assignment) Clone() *Assignment {
	if a == nil {
		return nil
	}
	c := *a
	c.Languages = slices.Clone(a.Languages)
	c.Expertises = slices.Clone(a.Expertises)
	if a.CandidateID != nil {
		id := *a.CandidateID
		c.CandidateID = &id
	}
	return &c
}

// Candidate is a marketplace profile, human or AI.
type Candidate struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	ProfileID    string       `json:"profile_id"`
	Seniority    Seniority    `json:"seniority"`
	Availability Availability `json:"availability"`
	Languages    []string     `json:"languages"`
	Expertises   []string     `json:"expertises"`
	IsAI         bool         `json:"is_ai"`
	DailyRate    float64      `json:"daily_rate"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Identity returns the matching identity of the candidate.
func (c *Candidate) Identity() Identity {
	return Identity{CandidateID: c.ID, ProfileID: c.ProfileID, Seniority: c.Seniority}
}

// Identity is the part of a candidate profile eligibility depends on.
type Identity struct {
	CandidateID string    `json:"candidate_id"`
	ProfileID   string    `json:"profile_id"`
	Seniority   Seniority `json:"seniority"`
}

// Matches reports whether the assignment is relevant to the candidate: either
// bound to them, or an open search for their profile and seniority.
func Matches(a *Assignment, id Identity) bool {
	if a == nil {
		return false
	}
	if a.CandidateID != nil && *a.CandidateID == id.CandidateID {
		return true
	}
	return a.CandidateID == nil &&
		a.BookingStatus == BookingSearch &&
		a.ProfileID == id.ProfileID &&
		a.Seniority == id.Seniority
}

// TeamMember is a candidate holding an accepted seat on a project.
type TeamMember struct {
	AssignmentID string    `json:"assignment_id"`
	CandidateID  string    `json:"candidate_id"`
	DisplayName  string    `json:"display_name"`
	ProfileID    string    `json:"profile_id"`
	Seniority    Seniority `json:"seniority"`
	IsAI         bool      `json:"is_ai"`
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
