package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dcexport/pkg/auth"
	"dcexport/pkg/config"
	"dcexport/pkg/logger"
	"dcexport/pkg/scraper"
	"dcexport/pkg/ui"
)

var (
	// Scrape command flags
	exportDir   string
	maxMessages int
	startStr    string
	endStr      string
	fullExport  bool
	rateLimit   int
	maxRetries  int
	pageDelayMs int
	tokenFlag   string
	tokenType   string
	accountName string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <channel-id>",
	Short: "Export a channel's message history to CSV",
	Long: `Export every message in a Discord channel to a per-channel CSV file.

The exporter pages backward from the newest message, respecting Discord's
rate limits and backing off automatically when throttled. Repeat runs
append only messages newer than the last exported one; use --full to
re-walk the entire history.

A token is required, configured through:
  - Stored credentials (use 'dcexport auth login' to store)
  - The DCEXPORT_TOKEN environment variable
  - The --token flag or a configuration file`,
	Example: `  # Export a channel with default settings
  dcexport scrape 1234567890

  # Export at most 5000 messages to a specific directory
  dcexport scrape 1234567890 --max-messages 5000 --export-dir ./out

  # Export only March 2024
  dcexport scrape 1234567890 --start 2024-03-01 --end 2024-03-31T23:59:59

  # Ignore the saved position and re-export everything
  dcexport scrape 1234567890 --full`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrape(args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&exportDir, "export-dir", "o", "", "directory for CSV artifacts (default ./exports)")
	scrapeCmd.Flags().IntVarP(&maxMessages, "max-messages", "n", 0, "maximum messages to export (0 = unlimited)")
	scrapeCmd.Flags().StringVar(&startStr, "start", "", "only keep messages at or after this time (ISO-8601 or YYYY-MM-DD)")
	scrapeCmd.Flags().StringVar(&endStr, "end", "", "only keep messages at or before this time (a bare date means that date's midnight)")
	scrapeCmd.Flags().BoolVar(&fullExport, "full", false, "ignore the saved position and re-walk the whole history")
	scrapeCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per second (default 10)")
	scrapeCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "retry attempts on throttling (default 3)")
	scrapeCmd.Flags().IntVar(&pageDelayMs, "page-delay", -1, "delay between pages in milliseconds (default 100)")
	scrapeCmd.Flags().StringVar(&tokenFlag, "token", "", "Discord token (overrides stored credentials)")
	scrapeCmd.Flags().StringVar(&tokenType, "token-type", "", "token type: Bot or Bearer (default Bot)")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored credential")
}

func runScrape(args []string) {
	channelID := strings.TrimSpace(args[0])

	flags := make(map[string]interface{})
	if tokenFlag != "" {
		flags["token"] = tokenFlag
	}
	if tokenType != "" {
		flags["token-type"] = tokenType
	}
	if exportDir != "" {
		flags["export-dir"] = exportDir
	}
	if rateLimit > 0 {
		flags["rate-limit"] = rateLimit
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if pageDelayMs >= 0 {
		flags["page-delay"] = time.Duration(pageDelayMs) * time.Millisecond
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)

	// Fall back to stored credentials when nothing else supplied a token
	if cfg.Discord.Token == "" {
		if account := storedAccount(); account != nil {
			cfg.Discord.Token = account.Token
			cfg.Discord.TokenType = account.TokenType
		}
	}
	if cfg.Discord.Token == "" {
		ui.PrintError("No Discord token configured", "run 'dcexport auth login' or set DCEXPORT_TOKEN")
		os.Exit(1)
	}

	opts := scraper.Options{
		MaxMessages: maxMessages,
		Full:        fullExport,
	}
	if startStr != "" {
		t, err := scraper.ParseTimestamp(startStr)
		if err != nil {
			ui.PrintError("Invalid --start value", err.Error())
			os.Exit(1)
		}
		opts.Start = &t
	}
	if endStr != "" {
		t, err := scraper.ParseTimestamp(endStr)
		if err != nil {
			ui.PrintError("Invalid --end value", err.Error())
			os.Exit(1)
		}
		opts.End = &t
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintInfo("Channel", channelID)

	tracker := ui.NewStatusTracker()
	opts.OnPage = func(raw, kept int) {
		tracker.AddPage(kept)
		tracker.PrintProgress()
	}

	s := scraper.New(cfg)
	result, err := s.Scrape(ctx, channelID, opts)

	if result != nil {
		for _, w := range result.Warnings {
			ui.PrintWarning(w)
		}
	}

	if err != nil {
		if result != nil && result.TotalAppended > 0 {
			ui.PrintWarning(fmt.Sprintf("Partial export: %s messages written before failure",
				humanize.Comma(int64(result.TotalAppended))))
		}
		ui.PrintError("Export failed", err.Error())
		os.Exit(1)
	}

	tracker.PrintSummary()
	ui.PrintInfo("Server", result.Channel.ServerName)
	ui.PrintInfo("Messages exported", humanize.Comma(int64(result.TotalAppended)))
	ui.PrintInfo("Messages scanned", humanize.Comma(int64(result.TotalScraped)))
	ui.PrintInfo("Artifact", result.ArtifactPath)
}

// storedAccount resolves a credential from the store, preferring the
// account named on the command line
func storedAccount() *auth.Account {
	manager, err := auth.NewManager()
	if err != nil {
		return nil
	}

	if accountName != "" {
		account, err := manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Stored credential not found", accountName)
			os.Exit(1)
		}
		return account
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return nil
	}
	return account
}
