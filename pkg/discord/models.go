package discord

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Message is a single channel message. Only the id and creation timestamp
// are interpreted; the full payload is kept verbatim in Raw so the export
// never loses fields the exporter does not know about.
type Message struct {
	ID        string
	Timestamp time.Time
	Raw       json.RawMessage
}

// UnmarshalJSON extracts id and timestamp and preserves the original bytes
func (m *Message) UnmarshalJSON(data []byte) error {
	var probe struct {
		ID        string `json:"id"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("failed to decode message envelope: %w", err)
	}
	if probe.ID == "" {
		return fmt.Errorf("message has no id")
	}

	ts, err := time.Parse(time.RFC3339, probe.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to parse message timestamp %q: %w", probe.Timestamp, err)
	}

	m.ID = probe.ID
	m.Timestamp = ts
	m.Raw = append(m.Raw[:0], data...)
	return nil
}

// MarshalJSON emits the preserved payload unchanged
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Raw) == 0 {
		return nil, fmt.Errorf("message %s has no payload", m.ID)
	}
	return m.Raw, nil
}

// Channel describes the channel being exported
type Channel struct {
	ID      string `json:"id"`
	GuildID string `json:"guild_id"`
	Name    string `json:"name"`
	Type    int    `json:"type"`
}

// Guild describes the server a channel belongs to
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompareIDs orders two snowflake ids. Snowflakes are unsigned integers
// that grow with creation time, so numeric order is chronological order.
// Returns -1, 0 or 1.
func CompareIDs(a, b string) int {
	av, aerr := strconv.ParseUint(a, 10, 64)
	bv, berr := strconv.ParseUint(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
	// Fall back to lexicographic order for non-numeric ids
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
