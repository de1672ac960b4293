package staffing_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/staffing"
)

func strPtr(s string) *string { return &s }

func TestMatches(t *testing.T) {
	dev := staffing.Identity{CandidateID: "c1", ProfileID: "dev", Seniority: staffing.SenioritySenior}

	tests := []struct {
		name string
		seat *staffing.Assignment
		want bool
	}{
		{"nil seat", nil, false},
		{"open search for profile", &staffing.Assignment{ProfileID: "dev", Seniority: staffing.SenioritySenior, BookingStatus: staffing.BookingSearch}, true},
		{"other seniority", &staffing.Assignment{ProfileID: "dev", Seniority: staffing.SeniorityJunior, BookingStatus: staffing.BookingSearch}, false},
		{"other profile", &staffing.Assignment{ProfileID: "pm", Seniority: staffing.SenioritySenior, BookingStatus: staffing.BookingSearch}, false},
		{"draft is not open", &staffing.Assignment{ProfileID: "dev", Seniority: staffing.SenioritySenior, BookingStatus: staffing.BookingDraft}, false},
		{"bound to candidate", &staffing.Assignment{ProfileID: "pm", Seniority: staffing.SeniorityJunior, BookingStatus: staffing.BookingAccepted, CandidateID: strPtr("c1")}, true},
		{"bound to someone else", &staffing.Assignment{ProfileID: "dev", Seniority: staffing.SenioritySenior, BookingStatus: staffing.BookingSearch, CandidateID: strPtr("c2")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, staffing.Matches(tt.seat, dev))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, staffing.ValidateTransition(staffing.BookingDraft, staffing.BookingSearch))
	require.NoError(t, staffing.ValidateTransition(staffing.BookingSearch, staffing.BookingAccepted))
	require.NoError(t, staffing.ValidateTransition(staffing.BookingAccepted, staffing.BookingSearch))
	require.ErrorIs(t, staffing.ValidateTransition(staffing.BookingDraft, staffing.BookingAccepted), staffing.ErrInvalidTransition)
	require.ErrorIs(t, staffing.ValidateTransition(staffing.BookingExpired, staffing.BookingAccepted), staffing.ErrInvalidTransition)
}

func TestAssignmentEqualAndClone(t *testing.T) {
	a := &staffing.Assignment{ID: "a1", Languages: []string{"fr"}, CandidateID: strPtr("c1")}
	b := a.Clone()
	require.True(t, a.Equal(b))

	*b.CandidateID = "c2"
	require.False(t, a.Equal(b))
	require.Equal(t, "c1", *a.CandidateID)
}
