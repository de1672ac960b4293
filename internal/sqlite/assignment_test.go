package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

func seedCandidate(t *testing.T, db *DB, id, profile string, seniority staffing.Seniority) {
	t.Helper()
	require.NoError(t, NewCandidateRepository(db).Create(context.Background(), &staffing.Candidate{
		ID:           id,
		DisplayName:  "Candidate " + id,
		ProfileID:    profile,
		Seniority:    seniority,
		Availability: staffing.AvailabilityAvailable,
		Languages:    []string{"fr"},
		CreatedAt:    time.Now(),
	}))
}

func newSeat(id, projectID string) *staffing.Assignment {
	now := time.Now()
	return &staffing.Assignment{
		ID:            id,
		ProjectID:     projectID,
		ProfileID:     "dev",
		Seniority:     staffing.SenioritySenior,
		Languages:     []string{"en", "fr"},
		Expertises:    []string{"go"},
		BookingStatus: staffing.BookingSearch,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestAssignmentRepository_CreateGetRoundTrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	seedProject(t, db, "p1")

	require.NoError(t, repo.Create(ctx, newSeat("a1", "p1")))

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, []string{"en", "fr"}, got.Languages)
	require.Equal(t, []string{"go"}, got.Expertises)
	require.Nil(t, got.CandidateID)

	require.ErrorIs(t, repo.Create(ctx, newSeat("a2", "missing")), repository.ErrForeignKeyViolation)
}

func TestAssignmentRepository_ConditionalUpdate(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	seedProject(t, db, "p1")
	seedCandidate(t, db, "c1", "dev", staffing.SenioritySenior)
	seedCandidate(t, db, "c2", "dev", staffing.SenioritySenior)
	require.NoError(t, repo.Create(ctx, newSeat("a1", "p1")))

	events := &capture{}
	db.SetPublisher(events)

	first := newSeat("a1", "p1")
	c1 := "c1"
	first.CandidateID = &c1
	first.BookingStatus = staffing.BookingAccepted
	require.NoError(t, repo.Update(ctx, first, staffing.BookingSearch))

	second := newSeat("a1", "p1")
	c2 := "c2"
	second.CandidateID = &c2
	second.BookingStatus = staffing.BookingAccepted
	require.ErrorIs(t, repo.Update(ctx, second, staffing.BookingSearch), repository.ErrConflict)

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "c1", *got.CandidateID)

	changes := events.all()
	require.Len(t, changes, 1)
	require.Equal(t, realtime.OpUpdate, changes[0].Op)
	require.Contains(t, string(changes[0].Old), `"booking_status":"recherche"`)
	require.Contains(t, string(changes[0].New), `"candidate_id":"c1"`)
}

func TestAssignmentRepository_ListForCandidate(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	seedProject(t, db, "p1")
	archived := seedProject(t, db, "p2")
	seedCandidate(t, db, "c1", "dev", staffing.SenioritySenior)
	seedCandidate(t, db, "c2", "dev", staffing.SenioritySenior)

	open := newSeat("open", "p1")
	junior := newSeat("junior", "p1")
	junior.Seniority = staffing.SeniorityJunior
	mine := newSeat("mine", "p1")
	mine.ProfileID = "pm"
	mine.BookingStatus = staffing.BookingAccepted
	c1 := "c1"
	mine.CandidateID = &c1
	theirs := newSeat("theirs", "p1")
	theirs.BookingStatus = staffing.BookingAccepted
	c2 := "c2"
	theirs.CandidateID = &c2
	onArchived := newSeat("archived", "p2")

	for _, a := range []*staffing.Assignment{open, junior, mine, theirs, onArchived} {
		require.NoError(t, repo.Create(ctx, a))
	}
	now := time.Now()
	archived.ArchivedAt = &now
	require.NoError(t, NewProjectRepository(db).Update(ctx, archived))

	list, err := repo.ListForCandidate(ctx, staffing.Identity{CandidateID: "c1", ProfileID: "dev", Seniority: staffing.SenioritySenior})
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
		require.True(t, staffing.Matches(&a, staffing.Identity{CandidateID: "c1", ProfileID: "dev", Seniority: staffing.SenioritySenior}))
	}
	require.ElementsMatch(t, []string{"open", "mine"}, ids)
}

func TestCandidateRepository_FindAvailableAndTeam(t *testing.T) {
	db := NewTestDB(t)
	candidates := NewCandidateRepository(db)
	assignments := NewAssignmentRepository(db)
	ctx := context.Background()
	seedProject(t, db, "p1")
	seedCandidate(t, db, "c1", "dev", staffing.SenioritySenior)
	seedCandidate(t, db, "c2", "dev", staffing.SeniorityJunior)

	found, err := candidates.FindAvailable(ctx, "dev", staffing.SenioritySenior)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, []string{"fr"}, found[0].Languages)

	seat := newSeat("a1", "p1")
	seat.BookingStatus = staffing.BookingAccepted
	c1 := "c1"
	seat.CandidateID = &c1
	require.NoError(t, assignments.Create(ctx, seat))

	team, err := candidates.ListTeam(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, team, 1)
	require.Equal(t, "Candidate c1", team[0].DisplayName)
}

// slowCapture widens the gap between a commit and its event.
type slowCapture struct {
	capture
}

func (c *slowCapture) Publish(ch realtime.Change) {
	time.Sleep(time.Millisecond)
	c.capture.Publish(ch)
}

func TestAssignmentRepository_ConcurrentUpdatesPublishInCommitOrder(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	seedProject(t, db, "p1")
	require.NoError(t, repo.Create(ctx, newSeat("a1", "p1")))

	events := &slowCapture{}
	db.SetPublisher(events)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seat := newSeat("a1", "p1")
			seat.ProfileID = fmt.Sprintf("profile-%d", i)
			errs <- repo.Update(ctx, seat, staffing.BookingSearch)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	changes := events.all()
	require.Len(t, changes, writers)
	prev := "dev"
	for _, ch := range changes {
		var oldRow, newRow staffing.Assignment
		require.NoError(t, json.Unmarshal(ch.Old, &oldRow))
		require.NoError(t, json.Unmarshal(ch.New, &newRow))
		// each event starts from the row the previous one left behind
		require.Equal(t, prev, oldRow.ProfileID)
		prev = newRow.ProfileID
	}

	stored, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, prev, stored.ProfileID)
}
