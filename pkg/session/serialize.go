package session

import (
	"encoding/json"
	"time"
)

// Record is the JSON-serializable representation of a session.
// This structure is what gets written to the backing store.
type Record struct {
	// ID is the unique session identifier.
	ID string `json:"id"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`

	// Values contains Session.Get/Set values.
	//
	// Values round-trip through JSON, so numbers come back as float64 and
	// nested structures as map[string]any.
	Values map[string]any `json:"values,omitempty"`

	// Version is the serialization format version.
	Version int `json:"version"`
}

// CurrentRecordVersion is the current version of the serialization format.
// Increment when making breaking changes to the format.
const CurrentRecordVersion = 1

// Serialize converts a Record to bytes.
func Serialize(rec *Record) ([]byte, error) {
	rec.Version = CurrentRecordVersion
	return json.Marshal(rec)
}

// Deserialize converts bytes back to a Record.
func Deserialize(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
