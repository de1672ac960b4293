package realtime_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teamdash/teamdash/internal/realtime"
)

func TestBus_PublishRoutesByTable(t *testing.T) {
	bus := realtime.NewBus(4, nil)
	defer bus.Close()

	assignments := bus.Subscribe(realtime.TableTopic("assignments"))
	projects := bus.Subscribe(realtime.TableTopic("projects"))
	all := bus.Subscribe(realtime.AllTopics)

	bus.Publish(realtime.Change{Table: "assignments", Op: realtime.OpInsert, New: json.RawMessage(`{"id":"a1"}`)})

	ev := <-assignments.C
	require.Equal(t, realtime.KindChange, ev.Kind)
	require.Equal(t, realtime.OpInsert, ev.Change.Op)
	require.False(t, ev.Change.At.IsZero())

	ev = <-all.C
	require.Equal(t, "db:assignments", ev.Topic)

	require.Len(t, projects.C, 0)
}

func TestBus_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := realtime.NewBus(1, nil)
	defer bus.Close()

	sub := bus.Subscribe("thread:1")
	require.NoError(t, bus.Broadcast("thread:1", "typing", map[string]string{"user_id": "u1"}))
	require.NoError(t, bus.Broadcast("thread:1", "typing", map[string]string{"user_id": "u2"}))

	ev := <-sub.C
	require.Equal(t, "typing", ev.Name)
	require.JSONEq(t, `{"user_id":"u1"}`, string(ev.Payload))
	require.Len(t, sub.C, 0)
}

func TestBus_CloseSubscription(t *testing.T) {
	bus := realtime.NewBus(1, nil)
	sub := bus.Subscribe("x")
	sub.Close()
	sub.Close()

	_, ok := <-sub.C
	require.False(t, ok)

	bus.Close()
	late := bus.Subscribe("x")
	_, ok = <-late.C
	require.False(t, ok)
}
