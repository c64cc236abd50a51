package discord

import (
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the Discord REST API base
	DefaultBaseURL = "https://discord.com/api/v10"

	// MaxMessageLimit is the largest page size the messages endpoint accepts
	MaxMessageLimit = 100
)

// MessagesURL constructs the URL for fetching a page of channel messages.
// An empty before means "start from the most recent message".
func MessagesURL(base, channelID, before string, limit int) string {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	if before != "" {
		params.Set("before", before)
	}

	return fmt.Sprintf("%s/channels/%s/messages?%s", base, channelID, params.Encode())
}

// ChannelURL constructs the URL for fetching channel metadata
func ChannelURL(base, channelID string) string {
	return fmt.Sprintf("%s/channels/%s", base, channelID)
}

// GuildURL constructs the URL for fetching guild metadata
func GuildURL(base, guildID string) string {
	return fmt.Sprintf("%s/guilds/%s", base, guildID)
}
