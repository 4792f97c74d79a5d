package response

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewError(t *testing.T) {
	body, _ := json.Marshal(NewError("connection not found"))
	if string(body) != `{"error":"connection not found"}` {
		t.Errorf("NewError() JSON = %s", body)
	}
}

func TestNewAction(t *testing.T) {
	resp := NewAction("Invitation declined")
	if !resp.Success {
		t.Error("NewAction should set Success to true")
	}
	if resp.Message != "Invitation declined" {
		t.Errorf("NewAction Message = %v", resp.Message)
	}
}

func TestChat_LastActivity(t *testing.T) {
	updated := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	chat := Chat{UpdatedAt: updated}
	if got := chat.LastActivity(); !got.Equal(updated) {
		t.Errorf("LastActivity() = %v, want %v", got, updated)
	}

	later := updated.Add(time.Hour)
	chat.LatestMessage = &LatestMessage{Timestamp: later}
	if got := chat.LastActivity(); !got.Equal(later) {
		t.Errorf("LastActivity() = %v, want %v", got, later)
	}
}

func TestProfile_OmitsUnknownDistance(t *testing.T) {
	body, _ := json.Marshal(Profile{UserID: "u1"})
	var m map[string]any
	_ = json.Unmarshal(body, &m)
	if _, ok := m["distanceKm"]; ok {
		t.Error("distanceKm should be omitted when unknown")
	}
	if _, ok := m["prompts"]; !ok {
		t.Error("prompts should always be present")
	}
}
