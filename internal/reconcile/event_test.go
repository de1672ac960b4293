package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamdash/teamdash/internal/realtime"
)

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestDecode_AssignmentUpdate(t *testing.T) {
	c := realtime.Change{
		Table: AssignmentsTable,
		Op:    realtime.OpUpdate,
		New:   rawJSON(t, seat("a1", boundTo(alice.CandidateID, "accepted"))),
		Old:   rawJSON(t, seat("a1")),
	}

	ev, err := Decode(c)
	require.NoError(t, err)
	ae, ok := ev.(AssignmentEvent)
	require.True(t, ok)
	require.Equal(t, "a1", ae.ID())
	require.NotNil(t, ae.Old)
	require.Equal(t, alice.CandidateID, *ae.New.CandidateID)
}

func TestDecode_KeyOnlyOldImageIsDropped(t *testing.T) {
	ev, err := Decode(realtime.Change{
		Table: AssignmentsTable,
		Op:    realtime.OpUpdate,
		New:   rawJSON(t, seat("a1")),
		Old:   json.RawMessage(`{"id":"a1"}`),
	})
	require.NoError(t, err)
	require.Nil(t, ev.(AssignmentEvent).Old)
}

func TestDecode_ProjectDelete(t *testing.T) {
	ev, err := Decode(realtime.Change{Table: ProjectsTable, Op: realtime.OpDelete, Old: rawJSON(t, proj("proj-1"))})
	require.NoError(t, err)
	pe, ok := ev.(ProjectEvent)
	require.True(t, ok)
	require.Nil(t, pe.New)
	require.Equal(t, "proj-1", pe.ID())
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		change realtime.Change
		err    error
	}{
		{
			name:   "unknown op",
			change: realtime.Change{Table: AssignmentsTable, Op: "TRUNCATE"},
			err:    ErrMalformedEvent,
		},
		{
			name:   "unknown table",
			change: realtime.Change{Table: "invoices", Op: realtime.OpInsert, New: json.RawMessage(`{}`)},
			err:    ErrUnknownTable,
		},
		{
			name:   "insert without new row",
			change: realtime.Change{Table: AssignmentsTable, Op: realtime.OpInsert},
			err:    ErrMalformedEvent,
		},
		{
			name:   "delete without old row",
			change: realtime.Change{Table: ProjectsTable, Op: realtime.OpDelete, New: json.RawMessage(`{"id":"p"}`)},
			err:    ErrMalformedEvent,
		},
		{
			name:   "broken json",
			change: realtime.Change{Table: AssignmentsTable, Op: realtime.OpInsert, New: json.RawMessage(`{"id":`)},
			err:    ErrMalformedEvent,
		},
		{
			name:   "missing project id",
			change: realtime.Change{Table: AssignmentsTable, Op: realtime.OpInsert, New: json.RawMessage(`{"id":"a1","booking_status":"recherche"}`)},
			err:    ErrMalformedEvent,
		},
		{
			name:   "bad booking status",
			change: realtime.Change{Table: AssignmentsTable, Op: realtime.OpInsert, New: json.RawMessage(`{"id":"a1","project_id":"p","booking_status":"lost"}`)},
			err:    ErrMalformedEvent,
		},
		{
			name:   "project without id",
			change: realtime.Change{Table: ProjectsTable, Op: realtime.OpUpdate, New: json.RawMessage(`{"title":"x"}`)},
			err:    ErrMalformedEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode(tt.change)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, ev)
		})
	}
}
