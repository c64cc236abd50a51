package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcexport/pkg/config"
	errs "dcexport/pkg/errors"
)

func testClientConfig(baseURL string) *config.DiscordConfig {
	return &config.DiscordConfig{
		Token:          "test-token",
		TokenType:      "Bot",
		APIBase:        baseURL,
		UserAgent:      "dcexport-test",
		RequestTimeout: 5 * time.Second,
	}
}

func TestFetchMessages(t *testing.T) {
	var gotAuth, gotPath, gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"200","timestamp":"2024-01-02T00:00:00Z","content":"b"},{"id":"100","timestamp":"2024-01-01T00:00:00Z","content":"a"}]`)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil)

	page, err := client.FetchMessages(context.Background(), "555", "300", 100)
	require.NoError(t, err)
	require.Len(t, page, 2)

	assert.Equal(t, "Bot test-token", gotAuth)
	assert.Equal(t, "/channels/555/messages", gotPath)
	assert.Equal(t, "before=300&limit=100", gotQuery)
	assert.Equal(t, "200", page[0].ID)
	assert.Equal(t, "100", page[1].ID)
}

func TestFetchMessagesClampsLimit(t *testing.T) {
	var gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil)

	_, err := client.FetchMessages(context.Background(), "1", "", 500)
	require.NoError(t, err)
	assert.Equal(t, "100", gotLimit, "limit above the API ceiling must be clamped")
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		status   int
		expected errs.ErrorType
	}{
		{http.StatusUnauthorized, errs.ErrorTypeAuth},
		{http.StatusForbidden, errs.ErrorTypeAccessDenied},
		{http.StatusNotFound, errs.ErrorTypeNotFound},
		{http.StatusTooManyRequests, errs.ErrorTypeRateLimit},
		{http.StatusInternalServerError, errs.ErrorTypeServerError},
		{http.StatusBadGateway, errs.ErrorTypeServerError},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("status_%d", test.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if test.status == http.StatusTooManyRequests {
					w.Header().Set("Retry-After", "1")
				}
				w.WriteHeader(test.status)
			}))
			defer server.Close()

			client := NewClient(testClientConfig(server.URL), nil)

			_, err := client.FetchMessages(context.Background(), "1", "", 100)
			require.Error(t, err)

			apiErr, ok := err.(*errs.Error)
			require.True(t, ok, "expected typed error, got %T", err)
			assert.Equal(t, test.expected, apiErr.Type)
			assert.Equal(t, test.status, apiErr.Code)
		})
	}
}

func TestFetchChannelAndGuild(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/channels/42":
			json.NewEncoder(w).Encode(Channel{ID: "42", GuildID: "7", Name: "general", Type: 0})
		case "/guilds/7":
			json.NewEncoder(w).Encode(Guild{ID: "7", Name: "My Server"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil)

	channel, err := client.FetchChannel(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "general", channel.Name)
	assert.Equal(t, "7", channel.GuildID)

	guild, err := client.FetchGuild(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "My Server", guild.Name)
}

func TestBearerTokenType(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	cfg := testClientConfig(server.URL)
	cfg.TokenType = "Bearer"
	client := NewClient(cfg, nil)

	_, err := client.FetchMessages(context.Background(), "1", "", 100)
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestRequestCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchMessages(ctx, "1", "", 100)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"an array"`)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), nil)

	_, err := client.FetchMessages(context.Background(), "1", "", 100)
	require.Error(t, err)

	apiErr, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeSerialization, apiErr.Type)
}
