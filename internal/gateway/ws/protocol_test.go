package ws

import (
	"encoding/json"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	ok := true
	f := Frame{
		Type:    FrameTypeResponse,
		ID:      "42",
		OK:      &ok,
		Payload: json.RawMessage(`{"status":"pong"}`),
	}

	data, err := MarshalFrame(f)
	if err != nil {
		t.Fatalf("MarshalFrame: %v", err)
	}

	got, err := UnmarshalFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalFrame: %v", err)
	}
	if got.Type != FrameTypeResponse || got.ID != "42" {
		t.Errorf("got %+v", got)
	}
	if got.OK == nil || !*got.OK {
		t.Error("OK should be true")
	}
}

func TestNewEventFrame(t *testing.T) {
	f, err := NewEventFrame("session.closed", "api", map[string]string{"session_id": "sess_1234"})
	if err != nil {
		t.Fatalf("NewEventFrame: %v", err)
	}
	if f.Type != FrameTypeEvent || f.Event != "session.closed" || f.Project != "api" {
		t.Errorf("frame = %+v", f)
	}

	var payload map[string]string
	if err := json.Unmarshal(f.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["session_id"] != "sess_1234" {
		t.Errorf("payload = %v", payload)
	}
}

func TestNewResponseFrameError(t *testing.T) {
	f, err := NewResponseFrame("7", false, nil, "unknown method: bogus")
	if err != nil {
		t.Fatalf("NewResponseFrame: %v", err)
	}
	if f.OK == nil || *f.OK {
		t.Error("OK should be false")
	}
	if f.Error != "unknown method: bogus" {
		t.Errorf("Error = %q", f.Error)
	}
	if f.Payload != nil {
		t.Error("payload should be empty on error")
	}
}

func TestUnmarshalFrameRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalFrame([]byte("{nope")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
