package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MockDiscordServer simulates the Discord REST API endpoints the exporter
// consumes, with configurable throttling and error injection.
type MockDiscordServer struct {
	server       *httptest.Server
	requestCount int32

	mu             sync.Mutex
	messageCount   int
	throttleNext   int            // number of 429 responses to serve before succeeding
	errorResponses map[string]int // endpoint pattern to status code
	fetchCursors   []string
}

// NewMockDiscordServer creates a mock Discord API serving one guild with
// one channel. Messages are numbered 1..count oldest to newest.
func NewMockDiscordServer(messageCount int) *MockDiscordServer {
	m := &MockDiscordServer{
		messageCount:   messageCount,
		errorResponses: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/channels/"+TestChannelID+"/messages", m.handleMessages)
	mux.HandleFunc("/channels/"+TestChannelID, m.handleChannel)
	mux.HandleFunc("/guilds/"+TestGuildID, m.handleGuild)

	m.server = httptest.NewServer(mux)
	return m
}

const (
	TestChannelID   = "200000000000000001"
	TestGuildID     = "100000000000000001"
	TestChannelName = "general"
	TestGuildName   = "Integration Test Server"
)

// GetURL returns the mock server's base URL
func (m *MockDiscordServer) GetURL() string {
	return m.server.URL
}

// Close shuts down the mock server
func (m *MockDiscordServer) Close() {
	m.server.Close()
}

// RequestCount returns the total number of requests served
func (m *MockDiscordServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// FetchCursors returns the before parameters of successful message fetches
func (m *MockDiscordServer) FetchCursors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetchCursors...)
}

// SetMessageCount changes how many messages the channel holds
func (m *MockDiscordServer) SetMessageCount(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messageCount = count
}

// ThrottleNext makes the next n message fetches return 429
func (m *MockDiscordServer) ThrottleNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttleNext = n
}

// SetErrorResponse makes an endpoint return a fixed status code
func (m *MockDiscordServer) SetErrorResponse(endpoint string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[endpoint] = code
}

func (m *MockDiscordServer) messageJSON(n int) map[string]interface{} {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute)
	return map[string]interface{}{
		"id":         strconv.Itoa(n),
		"type":       0,
		"channel_id": TestChannelID,
		"timestamp":  ts.Format(time.RFC3339),
		"content":    fmt.Sprintf("integration message %d, \"quoted\",\nsecond line", n),
		"author": map[string]interface{}{
			"id":       "300000000000000001",
			"username": "integration-bot",
		},
		"attachments": []interface{}{},
	}
}

func (m *MockDiscordServer) handleMessages(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if code, ok := m.errorResponses["messages"]; ok {
		w.WriteHeader(code)
		return
	}

	if m.throttleNext > 0 {
		m.throttleNext--
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":     "You are being rate limited.",
			"retry_after": 1.0,
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	before := r.URL.Query().Get("before")
	m.fetchCursors = append(m.fetchCursors, before)

	newest := m.messageCount
	if before != "" {
		b, _ := strconv.Atoi(before)
		newest = b - 1
	}

	page := []map[string]interface{}{}
	for n := newest; n > 0 && len(page) < limit; n-- {
		page = append(page, m.messageJSON(n))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func (m *MockDiscordServer) handleChannel(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	code, hasErr := m.errorResponses["channel"]
	m.mu.Unlock()
	if hasErr {
		w.WriteHeader(code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       TestChannelID,
		"guild_id": TestGuildID,
		"name":     TestChannelName,
		"type":     0,
	})
}

func (m *MockDiscordServer) handleGuild(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	code, hasErr := m.errorResponses["guild"]
	m.mu.Unlock()
	if hasErr {
		w.WriteHeader(code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":   TestGuildID,
		"name": TestGuildName,
	})
}
