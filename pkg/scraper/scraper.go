package scraper

import (
	"context"
	"fmt"
	"time"

	"dcexport/pkg/checkpoint"
	"dcexport/pkg/config"
	"dcexport/pkg/discord"
	errs "dcexport/pkg/errors"
	"dcexport/pkg/export"
	"dcexport/pkg/logger"
	"dcexport/pkg/ratelimit"
	"dcexport/pkg/retry"
)

// Phase names the stages of a scrape run
type Phase string

const (
	PhaseInit           Phase = "init"
	PhaseAuthenticating Phase = "authenticating"
	PhaseValidating     Phase = "validating"
	PhaseFetching       Phase = "fetching"
	PhaseDone           Phase = "done"
	PhaseFailed         Phase = "failed"
)

// Options control a single scrape invocation
type Options struct {
	// MaxMessages caps the number of kept messages; 0 means unlimited
	MaxMessages int
	// Start and End bound kept messages by timestamp, inclusive
	Start *time.Time
	End   *time.Time
	// Full ignores the high-water mark and re-walks the whole history
	Full bool
	// OnPage, when set, is called after each processed page with the raw
	// page size and the number of messages kept from it
	OnPage func(raw, kept int)
}

// Result aggregates one scrape invocation. A failed run still carries
// whatever was fetched and appended before the failure; a non-empty Errors
// list means the run did not fully succeed even when rows were written.
type Result struct {
	Messages      []discord.Message
	TotalScraped  int
	TotalAppended int
	Errors        []string
	Warnings      []string
	Duration      time.Duration
	Phase         Phase
	Channel       export.Metadata
	ArtifactPath  string
}

// Scraper orchestrates the channel export: pagination, pacing, retry and
// incremental persistence. One scrape runs on one logical thread; pages are
// fetched, filtered and persisted strictly in sequence because each page's
// cursor depends on the previous page's oldest id.
type Scraper struct {
	client  APIClient
	limiter ratelimit.Limiter
	config  *config.Config
	logger  logger.Logger
}

// New creates a Scraper from configuration
func New(cfg *config.Config) *Scraper {
	log := logger.GetLogger()
	return &Scraper{
		client:  discord.NewClient(&cfg.Discord, log),
		limiter: ratelimit.NewSlidingWindow(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Window),
		config:  cfg,
		logger:  log,
	}
}

// NewWithClient creates a Scraper with a custom API client
func NewWithClient(cfg *config.Config, client APIClient) *Scraper {
	s := New(cfg)
	s.client = client
	return s
}

// Scrape exports a channel's message history. Partial results accumulated
// before a failure are returned alongside the error rather than discarded.
func (s *Scraper) Scrape(ctx context.Context, channelID string, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{Phase: PhaseInit}
	state := &State{}

	fail := func(err error) (*Result, error) {
		result.Phase = PhaseFailed
		result.Duration = time.Since(start)
		result.TotalScraped = state.TotalFetched
		result.Errors = append(result.Errors, err.Error())
		s.logger.ErrorWithFields("scrape failed", map[string]interface{}{
			"channel_id":     channelID,
			"total_scraped":  result.TotalScraped,
			"total_appended": result.TotalAppended,
			"error":          err.Error(),
		})
		return result, err
	}

	retryCfg := &retry.Config{
		MaxAttempts: s.config.RateLimit.MaxRetries,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:  s.config.RateLimit.RetryBaseDelay,
			MaxDelay:   60 * time.Second,
			Multiplier: 2.0,
		},
		RetryIf: retry.RateLimitOnly,
		Context: ctx,
		Logger:  s.logger,
	}

	result.Phase = PhaseAuthenticating
	if s.config.Discord.Token == "" {
		return fail(&errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "no credential configured",
		})
	}

	result.Phase = PhaseValidating
	channel, err := s.fetchChannel(ctx, channelID, retryCfg)
	if err != nil {
		return fail(fmt.Errorf("validating channel access: %w", err))
	}

	meta := export.Metadata{
		ChannelName: channel.Name,
		ChannelID:   channel.ID,
	}
	if channel.GuildID != "" {
		guild, err := s.fetchGuild(ctx, channel.GuildID, retryCfg)
		if err != nil {
			return fail(fmt.Errorf("resolving guild: %w", err))
		}
		meta.ServerName = guild.Name
		meta.ServerID = guild.ID
	}
	result.Channel = meta

	writer, err := export.Open(s.config.Export.Directory, meta, s.logger)
	if err != nil {
		return fail(err)
	}
	result.ArtifactPath = writer.Path()

	cpMgr, err := checkpoint.NewManager(s.config.Export.Directory, channelID)
	if err != nil {
		writer.Close()
		return fail(&errs.Error{Type: errs.ErrorTypeIO, Message: err.Error()})
	}

	highWater := ""
	if !opts.Full {
		if cp, err := cpMgr.Load(); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("checkpoint unreadable, re-walking full history: %v", err))
		} else if cp != nil {
			highWater = cp.LastMessageID
			s.logger.InfoWithFields("resuming from high-water mark", map[string]interface{}{
				"channel_id":      channelID,
				"last_message_id": highWater,
			})
		}
	}

	result.Phase = PhaseFetching
	s.logger.InfoWithFields("starting scrape", map[string]interface{}{
		"channel_id":   channelID,
		"channel_name": meta.ChannelName,
		"server_name":  meta.ServerName,
		"max_messages": opts.MaxMessages,
	})

	cursor := NewCursor(s.config.Scrape.PageLimit, opts.Start, opts.End, highWater)
	newestAppended := ""

	for !state.Exhausted {
		if err := ctx.Err(); err != nil {
			writer.Close()
			return fail(err)
		}

		params := cursor.NextPageParams(state)
		page, err := s.fetchPage(ctx, channelID, params, retryCfg)
		if err != nil {
			writer.Close()
			return fail(err)
		}

		kept := cursor.Advance(state, page)

		// The cap applies to kept messages, after filtering; the current
		// batch truncates when it would overshoot.
		if opts.MaxMessages > 0 {
			remaining := opts.MaxMessages - len(result.Messages)
			if len(kept) >= remaining {
				kept = kept[:remaining]
				state.Exhausted = true
			}
		}

		if len(kept) > 0 {
			res, err := writer.AppendBatch(kept, s.config.Export.BatchSize)
			result.TotalAppended += res.Appended
			result.Warnings = append(result.Warnings, res.RecordErrors...)
			if err != nil {
				writer.Close()
				return fail(err)
			}
			if newestAppended == "" && res.FirstAppendedID != "" {
				newestAppended = res.FirstAppendedID
			}
			result.Messages = append(result.Messages, kept...)
		}

		if opts.OnPage != nil {
			opts.OnPage(len(page), len(kept))
		}

		s.logger.DebugWithFields("page processed", map[string]interface{}{
			"raw":       len(page),
			"kept":      len(kept),
			"cursor":    state.Cursor,
			"exhausted": state.Exhausted,
		})

		if !state.Exhausted && s.config.Scrape.PageDelay > 0 {
			// Conservative buffer on top of the limiter's own pacing
			if err := retry.Wait(ctx, s.config.Scrape.PageDelay); err != nil {
				writer.Close()
				return fail(err)
			}
		}
	}

	result.TotalScraped = state.TotalFetched

	if err := writer.Close(); err != nil {
		return fail(err)
	}

	if newestAppended != "" {
		if err := cpMgr.Update(channelID, channel.GuildID, newestAppended, result.TotalAppended); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save high-water mark: %v", err))
		}
	}

	result.Phase = PhaseDone
	result.Duration = time.Since(start)

	// Batch accounting is derived, never stored
	batches := 0
	if s.config.Scrape.PageLimit > 0 {
		batches = (state.TotalFetched + s.config.Scrape.PageLimit - 1) / s.config.Scrape.PageLimit
	}

	s.logger.InfoWithFields("scrape completed", map[string]interface{}{
		"channel_id":     channelID,
		"total_scraped":  result.TotalScraped,
		"total_appended": result.TotalAppended,
		"batches":        batches,
		"warnings":       len(result.Warnings),
		"duration_ms":    result.Duration.Milliseconds(),
	})

	return result, nil
}

// fetchPage executes one paced, throttle-retried page fetch. The limiter is
// consulted on every attempt, so retries are paced like first attempts.
func (s *Scraper) fetchPage(ctx context.Context, channelID string, params PageParams, retryCfg *retry.Config) ([]discord.Message, error) {
	return retry.DoWithResult(func() ([]discord.Message, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.client.FetchMessages(ctx, channelID, params.Before, params.Limit)
	}, retryCfg)
}

func (s *Scraper) fetchChannel(ctx context.Context, channelID string, retryCfg *retry.Config) (*discord.Channel, error) {
	return retry.DoWithResult(func() (*discord.Channel, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.client.FetchChannel(ctx, channelID)
	}, retryCfg)
}

func (s *Scraper) fetchGuild(ctx context.Context, guildID string, retryCfg *retry.Config) (*discord.Guild, error) {
	return retry.DoWithResult(func() (*discord.Guild, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.client.FetchGuild(ctx, guildID)
	}, retryCfg)
}
