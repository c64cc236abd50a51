package scraper

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcexport/pkg/discord"
)

func msg(id string, ts time.Time) discord.Message {
	return discord.Message{
		ID:        id,
		Timestamp: ts,
		Raw:       []byte(fmt.Sprintf(`{"id":%q,"timestamp":%q}`, id, ts.Format(time.RFC3339))),
	}
}

// page builds n messages in newest-first order starting from the given id
func page(startID int, n int, base time.Time) []discord.Message {
	out := make([]discord.Message, 0, n)
	for i := 0; i < n; i++ {
		id := startID - i
		out = append(out, msg(fmt.Sprintf("%d", id), base.Add(-time.Duration(i)*time.Minute)))
	}
	return out
}

func TestCursorFirstPageHasNoBefore(t *testing.T) {
	c := NewCursor(100, nil, nil, "")
	state := &State{}

	params := c.NextPageParams(state)
	assert.Empty(t, params.Before)
	assert.Equal(t, 100, params.Limit)
}

func TestCursorAdvancesToOldestID(t *testing.T) {
	c := NewCursor(100, nil, nil, "")
	state := &State{}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	kept := c.Advance(state, page(500, 100, base))

	assert.Len(t, kept, 100)
	assert.Equal(t, "401", state.Cursor)
	assert.False(t, state.Exhausted)
	assert.Equal(t, 100, state.TotalFetched)

	params := c.NextPageParams(state)
	assert.Equal(t, "401", params.Before)
}

func TestCursorStrictlyDecreasing(t *testing.T) {
	c := NewCursor(3, nil, nil, "")
	state := &State{}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := ""
	for _, start := range []int{9, 6, 3} {
		c.Advance(state, page(start, 3, base))
		if prev != "" {
			assert.Negative(t, discord.CompareIDs(state.Cursor, prev))
		}
		prev = state.Cursor
	}
	assert.Equal(t, 9, state.TotalFetched)
}

func TestCursorEmptyPageExhausts(t *testing.T) {
	c := NewCursor(100, nil, nil, "")
	state := &State{}

	kept := c.Advance(state, nil)
	assert.Empty(t, kept)
	assert.True(t, state.Exhausted)
	assert.Equal(t, 0, state.TotalFetched)
}

func TestCursorTimeFilter(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// messages at 12:00, 11:59, ..., 11:51
	msgs := page(10, 10, base)

	start := base.Add(-5 * time.Minute)
	end := base.Add(-2 * time.Minute)
	c := NewCursor(100, &start, &end, "")
	state := &State{}

	kept := c.Advance(state, msgs)

	// inclusive bounds keep 11:55 through 11:58
	require.Len(t, kept, 4)
	assert.Equal(t, "8", kept[0].ID)
	assert.Equal(t, "5", kept[3].ID)

	// the cursor advances past filtered pages all the same
	assert.Equal(t, "1", state.Cursor)
	assert.Equal(t, 10, state.TotalFetched)
}

func TestCursorFilteredPageStillAdvances(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	start := base.Add(time.Hour)
	c := NewCursor(10, &start, nil, "")
	state := &State{}

	kept := c.Advance(state, page(10, 10, base))
	assert.Empty(t, kept)
	assert.False(t, state.Exhausted)
	assert.Equal(t, "1", state.Cursor)
}

func TestCursorShortPageExhausts(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCursor(100, nil, nil, "")
	state := &State{}

	kept := c.Advance(state, page(50, 50, base))
	assert.Len(t, kept, 50)
	assert.True(t, state.Exhausted)
	assert.Equal(t, 50, state.TotalFetched)
}

func TestCursorHighWaterCutoff(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewCursor(100, nil, nil, "5")
	state := &State{}

	kept := c.Advance(state, page(10, 10, base))

	// ids 10 through 6 are new, 5 and below were already exported
	require.Len(t, kept, 5)
	assert.Equal(t, "10", kept[0].ID)
	assert.Equal(t, "6", kept[4].ID)
	assert.True(t, state.Exhausted)
}

func TestCursorClampsPageLimit(t *testing.T) {
	c := NewCursor(500, nil, nil, "")
	params := c.NextPageParams(&State{})
	assert.Equal(t, discord.MaxMessageLimit, params.Limit)

	c = NewCursor(0, nil, nil, "")
	params = c.NextPageParams(&State{})
	assert.Equal(t, discord.MaxMessageLimit, params.Limit)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-01T12:30:45Z", time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)},
		{"2024-03-01T12:30:45", time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)},
		{"2024-03-01 12:30:45", time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.input)
		require.NoError(t, err, tt.input)
		assert.True(t, tt.want.Equal(got), "parsing %q", tt.input)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}
