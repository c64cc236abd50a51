package scraper

import (
	"time"

	"dcexport/pkg/discord"
)

// PageParams are the query parameters for the next fetch
type PageParams struct {
	Limit  int
	Before string
}

// State tracks the backward walk over a channel's history. It is owned by a
// single scrape invocation and mutated only by Cursor.Advance.
type State struct {
	// Cursor is the id of the oldest message already retrieved; empty
	// means start from the most recent message
	Cursor string
	// Exhausted is set when the feed has no older messages left or the
	// high-water mark is crossed
	Exhausted bool
	// TotalFetched counts raw messages pre-filter
	TotalFetched int
	// LastSeenID mirrors Cursor for diagnostics
	LastSeenID string
}

// Cursor drives the pagination walk: it hands out page parameters and
// advances the state from fetched pages. Time-range filtering and the
// high-water cutoff narrow what is kept without disturbing how far the walk
// pages, so the cursor always moves past filtered-out messages.
type Cursor struct {
	pageLimit int
	start     *time.Time
	end       *time.Time
	highWater string
}

// NewCursor creates a pagination cursor. start and end bound kept messages
// inclusively; either may be nil. highWater, when non-empty, terminates the
// walk once messages at or below that id are reached.
func NewCursor(pageLimit int, start, end *time.Time, highWater string) *Cursor {
	if pageLimit <= 0 || pageLimit > discord.MaxMessageLimit {
		pageLimit = discord.MaxMessageLimit
	}
	return &Cursor{
		pageLimit: pageLimit,
		start:     start,
		end:       end,
		highWater: highWater,
	}
}

// NextPageParams returns the parameters for the next fetch. The limit is
// pinned at the page ceiling to minimize round-trips; before is the current
// cursor, empty on the first call.
func (c *Cursor) NextPageParams(s *State) PageParams {
	return PageParams{
		Limit:  c.pageLimit,
		Before: s.Cursor,
	}
}

// Advance consumes a newest-first page: the raw page moves the cursor past
// its oldest message before any filtering, then the time range and
// high-water cutoff decide what is kept. A page shorter than the requested
// limit means the feed has run out; the API exposes no total count, so page
// size is the only termination signal.
func (c *Cursor) Advance(s *State, page []discord.Message) []discord.Message {
	if len(page) == 0 {
		s.Exhausted = true
		return nil
	}
	if len(page) < c.pageLimit {
		s.Exhausted = true
	}

	oldest := page[len(page)-1]
	s.Cursor = oldest.ID
	s.LastSeenID = oldest.ID
	s.TotalFetched += len(page)

	kept := make([]discord.Message, 0, len(page))
	for _, msg := range page {
		if c.highWater != "" && discord.CompareIDs(msg.ID, c.highWater) <= 0 {
			// Everything from here down was exported by a previous run
			s.Exhausted = true
			break
		}
		if c.keep(msg.Timestamp) {
			kept = append(kept, msg)
		}
	}

	return kept
}

// keep reports whether a timestamp falls inside the inclusive range
func (c *Cursor) keep(t time.Time) bool {
	if c.start != nil && t.Before(*c.start) {
		return false
	}
	if c.end != nil && t.After(*c.end) {
		return false
	}
	return true
}
