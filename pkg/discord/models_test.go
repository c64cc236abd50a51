package discord

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMessageUnmarshalPreservesPayload(t *testing.T) {
	payload := `{"id":"1100000000000000001","timestamp":"2023-05-01T12:30:00.000000+00:00","content":"hello, \"world\"\nsecond line","author":{"id":"42","username":"someone"},"attachments":[{"url":"https://cdn.example/x.png"}],"custom_field":{"nested":true}}`

	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if msg.ID != "1100000000000000001" {
		t.Errorf("Expected id 1100000000000000001, got %s", msg.ID)
	}

	expected := time.Date(2023, 5, 1, 12, 30, 0, 0, time.UTC)
	if !msg.Timestamp.Equal(expected) {
		t.Errorf("Expected timestamp %v, got %v", expected, msg.Timestamp)
	}

	// The raw payload must survive byte-for-byte, unknown fields included
	if string(msg.Raw) != payload {
		t.Errorf("Raw payload altered:\n  want %s\n  got  %s", payload, msg.Raw)
	}
}

func TestMessageMarshalRoundTrip(t *testing.T) {
	payload := `{"id":"9","timestamp":"2024-01-01T00:00:00Z","content":"has,comma and \"quotes\""}`

	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	out, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != payload {
		t.Errorf("Round trip altered payload:\n  want %s\n  got  %s", payload, out)
	}
}

func TestMessageUnmarshalRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing id", `{"timestamp":"2024-01-01T00:00:00Z"}`},
		{"bad timestamp", `{"id":"1","timestamp":"yesterday"}`},
		{"not json", `[`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var msg Message
			if err := json.Unmarshal([]byte(test.payload), &msg); err == nil {
				t.Error("Expected unmarshal error")
			}
		})
	}
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"100", "200", -1},
		{"200", "100", 1},
		{"100", "100", 0},
		// 64-bit snowflakes beyond float precision
		{"1100000000000000001", "1100000000000000002", -1},
		// numeric order, not lexicographic
		{"9", "100", -1},
		// non-numeric ids fall back to lexicographic
		{"abc", "abd", -1},
	}

	for _, test := range tests {
		if got := CompareIDs(test.a, test.b); got != test.expected {
			t.Errorf("CompareIDs(%s, %s): expected %d, got %d", test.a, test.b, test.expected, got)
		}
	}
}

func TestPageDecodesNewestFirst(t *testing.T) {
	body := `[{"id":"300","timestamp":"2024-01-03T00:00:00Z"},{"id":"200","timestamp":"2024-01-02T00:00:00Z"},{"id":"100","timestamp":"2024-01-01T00:00:00Z"}]`

	var page []Message
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(page) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(page))
	}
	for i := 1; i < len(page); i++ {
		if CompareIDs(page[i].ID, page[i-1].ID) >= 0 {
			t.Errorf("Page not newest-first at index %d: %s then %s", i, page[i-1].ID, page[i].ID)
		}
	}
}
