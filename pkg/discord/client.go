package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dcexport/pkg/config"
	errs "dcexport/pkg/errors"
	"dcexport/pkg/logger"
)

// Client is a minimal Discord REST client for channel export
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a client from the Discord section of the configuration
func NewClient(cfg *config.DiscordConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	base := cfg.APIBase
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")

	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	if cfg.Token != "" {
		headers["Authorization"] = authorizationValue(cfg.TokenType, cfg.Token)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		headers:    headers,
		baseURL:    base,
		logger:     log,
	}
}

// authorizationValue formats the credential header. Bot tokens carry the
// "Bot " prefix, OAuth tokens the "Bearer " prefix.
func authorizationValue(tokenType, token string) string {
	switch tokenType {
	case "", "Bot":
		return "Bot " + token
	default:
		return tokenType + " " + token
	}
}

// SetHeader sets a custom header for subsequent requests
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the configured API base
func (c *Client) BaseURL() string {
	return c.baseURL
}

// getJSON performs a GET request and decodes the JSON response into target
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeSerialization,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus maps non-2xx responses to typed errors. Callers branch
// on the error type, never on message text.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errType := errs.TypeForStatusCode(resp.StatusCode)

	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}
	if errType == errs.ErrorTypeRateLimit {
		// Retry-After is advisory here; recovery pacing follows the
		// exponential backoff schedule.
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			fields["retry_after"] = retryAfter
		}
		c.logger.WarnWithFields("rate limit exceeded", fields)
	} else {
		c.logger.WarnWithFields("API request rejected", fields)
	}

	var message string
	switch errType {
	case errs.ErrorTypeAuth:
		message = "authentication required"
	case errs.ErrorTypeAccessDenied:
		message = "access denied"
	case errs.ErrorTypeNotFound:
		message = "resource not found"
	case errs.ErrorTypeRateLimit:
		message = "rate limit exceeded"
	case errs.ErrorTypeServerError:
		message = "server error"
	default:
		message = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}

	return &errs.Error{
		Type:    errType,
		Message: message,
		Code:    resp.StatusCode,
	}
}

// FetchMessages fetches one page of messages, newest first. An empty before
// starts at the most recent message; a page of size 0 means the history
// before the cursor is exhausted.
func (c *Client) FetchMessages(ctx context.Context, channelID, before string, limit int) ([]Message, error) {
	if limit <= 0 || limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	url := MessagesURL(c.baseURL, channelID, before, limit)

	var page []Message
	if err := c.getJSON(ctx, url, &page); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("messages page fetched", map[string]interface{}{
		"channel_id": channelID,
		"before":     before,
		"count":      len(page),
	})

	return page, nil
}

// FetchChannel fetches channel metadata
func (c *Client) FetchChannel(ctx context.Context, channelID string) (*Channel, error) {
	var channel Channel
	if err := c.getJSON(ctx, ChannelURL(c.baseURL, channelID), &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// FetchGuild fetches guild metadata
func (c *Client) FetchGuild(ctx context.Context, guildID string) (*Guild, error) {
	var guild Guild
	if err := c.getJSON(ctx, GuildURL(c.baseURL, guildID), &guild); err != nil {
		return nil, err
	}
	return &guild, nil
}
