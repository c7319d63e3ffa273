package session

import (
	"testing"
	"time"
)

func TestSerializeRoundTrip(t *testing.T) {
	rec := &Record{
		ID:        "session-1",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Values: map[string]any{
			"user_id": "42",
			"count":   float64(3),
		},
	}

	data, err := Serialize(rec)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if got.ID != rec.ID {
		t.Errorf("ID: got %q, want %q", got.ID, rec.ID)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
	if got.Version != CurrentRecordVersion {
		t.Errorf("Version: got %d, want %d", got.Version, CurrentRecordVersion)
	}
	if got.Values["user_id"] != "42" {
		t.Errorf("Values[user_id]: got %v, want %q", got.Values["user_id"], "42")
	}
	if got.Values["count"] != float64(3) {
		t.Errorf("Values[count]: got %v, want 3", got.Values["count"])
	}
}

func TestDeserializeInvalid(t *testing.T) {
	if _, err := Deserialize([]byte("{not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
