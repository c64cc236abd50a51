package scraper

import (
	"context"

	"dcexport/pkg/discord"
)

// APIClient defines the Discord API operations the scraper needs
type APIClient interface {
	FetchMessages(ctx context.Context, channelID, before string, limit int) ([]discord.Message, error)
	FetchChannel(ctx context.Context, channelID string) (*discord.Channel, error)
	FetchGuild(ctx context.Context, guildID string) (*discord.Guild, error)
}
