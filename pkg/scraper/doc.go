// Package scraper orchestrates channel history exports.
//
// A scrape walks a channel's history newest-to-oldest through cursor
// pagination, pacing every request through the shared rate limiter and
// retrying throttled requests with exponential backoff. Each page is
// filtered against the optional time range and the channel's high-water
// mark, then appended to the channel's CSV artifact before the next page
// is requested, so an interrupted run leaves behind everything fetched
// so far.
package scraper
