package realtime

import (
	"encoding/json"
	"time"
)

// Op is the kind of row change.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Change is a row-level write on a table. New is empty for deletes and Old is
// empty for inserts.
type Change struct {
	Table string          `json:"table"`
	Op    Op              `json:"op"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
	At    time.Time       `json:"at"`
}

// Kind tells subscribers how to read an Event.
type Kind string

const (
	KindChange    Kind = "change"
	KindBroadcast Kind = "broadcast"
	KindAck       Kind = "ack"
	KindError     Kind = "error"
)

// Event is what subscribers receive on a topic.
type Event struct {
	Topic   string          `json:"topic"`
	Kind    Kind            `json:"kind"`
	Change  *Change         `json:"change,omitempty"`
	Name    string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AllTopics subscribes to every topic on the bus.
const AllTopics = "*"

// TableTopic is the topic carrying row changes for table.
func TableTopic(table string) string {
	return "db:" + table
}

// FeedTopic is the topic a candidate's reconciled feed announces revisions on.
func FeedTopic(candidateID string) string {
	return "feed:" + candidateID
}
