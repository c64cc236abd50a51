package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcexport/pkg/discord"
	errs "dcexport/pkg/errors"
)

var testMeta = Metadata{
	ServerName:  "My Server",
	ServerID:    "7",
	ChannelName: "general",
	ChannelID:   "42",
}

func mustMessage(t *testing.T, payload string) discord.Message {
	t.Helper()
	var msg discord.Message
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	return msg
}

func TestOpenWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, testMeta, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Re-open: header must not be duplicated or altered
	w, err = Open(dir, testMeta, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(ArtifactPath(dir, testMeta.ChannelID))
	require.NoError(t, err)

	content := string(data)
	assert.Equal(t, 1, strings.Count(content, "server_name"), "header must appear exactly once")
	assert.True(t, strings.HasPrefix(content, "server_name,server_id,channel_name,channel_id,data\n"))
}

func TestAppendBatch(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, testMeta, nil)
	require.NoError(t, err)

	messages := []discord.Message{
		mustMessage(t, `{"id":"3","timestamp":"2024-01-03T00:00:00Z","content":"plain"}`),
		mustMessage(t, `{"id":"2","timestamp":"2024-01-02T00:00:00Z","content":"has,comma \"quoted\"\nnewline"}`),
		mustMessage(t, `{"id":"1","timestamp":"2024-01-01T00:00:00Z","content":"older"}`),
	}

	res, err := w.AppendBatch(messages, 2)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 3, res.Appended)
	assert.Equal(t, "3", res.FirstAppendedID)
	assert.Empty(t, res.RecordErrors)

	stats, err := Scan(ArtifactPath(dir, testMeta.ChannelID))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.RowCount)
}

func TestPayloadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Content exercising the quoting rule: delimiter, quote character and
	// embedded newlines all inside the JSON blob
	payload := `{"id":"1","timestamp":"2024-01-01T00:00:00Z","content":"a,b \"c\"\nd\ne","extra":{"k":"v,with,commas"}}`

	w, err := Open(dir, testMeta, nil)
	require.NoError(t, err)

	_, err = w.AppendBatch([]discord.Message{mustMessage(t, payload)}, 100)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	file, err := os.Open(ArtifactPath(dir, testMeta.ChannelID))
	require.NoError(t, err)
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, []string{"My Server", "7", "general", "42"}, row[:4])
	assert.Equal(t, payload, row[4], "data column must round-trip byte-for-byte")

	// And the blob must still parse to a deep-equal structure
	var original, restored map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &original))
	require.NoError(t, json.Unmarshal([]byte(row[4]), &restored))
	assert.Equal(t, original, restored)
}

func TestAppendBatchIsolatesSerializationFailures(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, testMeta, nil)
	require.NoError(t, err)

	good := mustMessage(t, `{"id":"2","timestamp":"2024-01-02T00:00:00Z"}`)
	bad := discord.Message{ID: "broken"} // no payload
	alsoGood := mustMessage(t, `{"id":"1","timestamp":"2024-01-01T00:00:00Z"}`)

	res, err := w.AppendBatch([]discord.Message{good, bad, alsoGood}, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 2, res.Appended)
	require.Len(t, res.RecordErrors, 1)
	assert.Contains(t, res.RecordErrors[0], "broken")

	stats, err := Scan(ArtifactPath(dir, testMeta.ChannelID))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RowCount)
}

func TestAppendBatchFirstAppendedSkipsFailedLeader(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, testMeta, nil)
	require.NoError(t, err)

	// The newest record cannot be serialized, so the first id that actually
	// reaches the artifact is the older one.
	bad := discord.Message{ID: "99"}
	good := mustMessage(t, `{"id":"42","timestamp":"2024-01-01T00:00:00Z"}`)

	res, err := w.AppendBatch([]discord.Message{bad, good}, 100)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 1, res.Appended)
	assert.Equal(t, "42", res.FirstAppendedID)
	require.Len(t, res.RecordErrors, 1)
}

func TestAppendBatchNothingAppended(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, testMeta, nil)
	require.NoError(t, err)

	res, err := w.AppendBatch([]discord.Message{{ID: "only"}}, 100)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, 0, res.Appended)
	assert.Empty(t, res.FirstAppendedID)
	require.Len(t, res.RecordErrors, 1)
}

func TestScanMissingArtifact(t *testing.T) {
	stats, err := Scan(ArtifactPath(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.False(t, stats.Exists)
	assert.Equal(t, 0, stats.RowCount)
	assert.Equal(t, int64(0), stats.SizeBytes)
}

func TestScanCountsLogicalRows(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, testMeta, nil)
	require.NoError(t, err)

	// Payload with embedded newlines: one logical row spanning several
	// physical lines
	multi := mustMessage(t, `{"id":"1","timestamp":"2024-01-01T00:00:00Z","content":"line one\nline two\nline three"}`)
	_, err = w.AppendBatch([]discord.Message{multi}, 100)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	stats, err := Scan(ArtifactPath(dir, testMeta.ChannelID))
	require.NoError(t, err)
	assert.True(t, stats.Exists)
	assert.Equal(t, 1, stats.RowCount)
	assert.Greater(t, stats.SizeBytes, int64(0))
}

func TestOpenFailsOnUnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0500))
	defer os.Chmod(dir, 0755)

	_, err := Open(dir, testMeta, nil)
	require.Error(t, err)

	apiErr, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeIO, apiErr.Type)
}
