package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dcexport/pkg/discord"
	errs "dcexport/pkg/errors"
	"dcexport/pkg/logger"
)

// header is the fixed artifact schema. The variable message payload lives
// entirely inside the data column, so the schema never changes as the
// payload's internal shape evolves.
var header = []string{"server_name", "server_id", "channel_name", "channel_id", "data"}

// Metadata identifies the channel an artifact belongs to. Resolved once per
// run and stamped on every row.
type Metadata struct {
	ServerName  string
	ServerID    string
	ChannelName string
	ChannelID   string
}

// Writer appends messages to a per-channel CSV artifact. Rows are only ever
// added; the header is written exactly once, when the artifact is created.
type Writer struct {
	path   string
	meta   Metadata
	file   *os.File
	csv    *csv.Writer
	logger logger.Logger
}

// ArtifactPath returns the artifact location for a channel
func ArtifactPath(dir, channelID string) string {
	return filepath.Join(dir, channelID+".csv")
}

// Open initializes the artifact for a channel. If no artifact exists it is
// created with the header row; if one exists it is opened for append without
// touching existing content. Repeated runs therefore only ever add rows.
func Open(dir string, meta Metadata, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeIO,
			Message: fmt.Sprintf("failed to create export directory: %v", err),
		}
	}

	path := ArtifactPath(dir, meta.ChannelID)

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeIO,
			Message: fmt.Sprintf("failed to open artifact: %v", err),
		}
	}

	w := &Writer{
		path:   path,
		meta:   meta,
		file:   file,
		csv:    csv.NewWriter(file),
		logger: log,
	}

	if isNew {
		if err := w.csv.Write(header); err != nil {
			file.Close()
			return nil, &errs.Error{
				Type:    errs.ErrorTypeIO,
				Message: fmt.Sprintf("failed to write header: %v", err),
			}
		}
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			file.Close()
			return nil, &errs.Error{
				Type:    errs.ErrorTypeIO,
				Message: fmt.Sprintf("failed to flush header: %v", err),
			}
		}
		log.InfoWithFields("export artifact created", map[string]interface{}{
			"path": path,
		})
	} else {
		log.InfoWithFields("appending to existing artifact", map[string]interface{}{
			"path": path,
		})
	}

	return w, nil
}

// Path returns the artifact location
func (w *Writer) Path() string {
	return w.path
}

// AppendResult reports what one AppendBatch call actually wrote.
// FirstAppendedID identifies the first row that reached the artifact, which
// may differ from the first input message when leading records fail to
// serialize.
type AppendResult struct {
	Appended        int
	FirstAppendedID string
	RecordErrors    []string
}

// AppendBatch writes messages in fixed-size batches. A serialization failure
// for one record is recorded and skipped without blocking the rest of the
// batch; an I/O failure on the artifact aborts immediately.
func (w *Writer) AppendBatch(messages []discord.Message, batchSize int) (AppendResult, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	var res AppendResult

	for start := 0; start < len(messages); start += batchSize {
		end := start + batchSize
		if end > len(messages) {
			end = len(messages)
		}

		for _, msg := range messages[start:end] {
			payload, err := serializePayload(msg)
			if err != nil {
				res.RecordErrors = append(res.RecordErrors, err.Error())
				w.logger.WarnWithFields("skipping unserializable message", map[string]interface{}{
					"message_id": msg.ID,
					"error":      err.Error(),
				})
				continue
			}

			row := []string{w.meta.ServerName, w.meta.ServerID, w.meta.ChannelName, w.meta.ChannelID, payload}
			if err := w.csv.Write(row); err != nil {
				return res, &errs.Error{
					Type:    errs.ErrorTypeIO,
					Message: fmt.Sprintf("failed to append row: %v", err),
				}
			}
			if res.Appended == 0 {
				res.FirstAppendedID = msg.ID
			}
			res.Appended++
		}

		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			return res, &errs.Error{
				Type:    errs.ErrorTypeIO,
				Message: fmt.Sprintf("failed to flush batch: %v", err),
			}
		}
	}

	return res, nil
}

// serializePayload turns a message into the data column value. The raw
// payload is already self-describing JSON, so it is embedded as-is after a
// validity check; quoting is the CSV layer's concern.
func serializePayload(msg discord.Message) (string, error) {
	if len(msg.Raw) == 0 {
		return "", &errs.Error{
			Type:    errs.ErrorTypeSerialization,
			Message: fmt.Sprintf("message %s has no payload", msg.ID),
		}
	}
	if !json.Valid(msg.Raw) {
		return "", &errs.Error{
			Type:    errs.ErrorTypeSerialization,
			Message: fmt.Sprintf("message %s payload is not valid JSON", msg.ID),
		}
	}
	return string(msg.Raw), nil
}

// Close flushes buffered rows and syncs the artifact to disk
func (w *Writer) Close() error {
	w.csv.Flush()
	flushErr := w.csv.Error()

	if err := w.file.Sync(); err != nil && flushErr == nil {
		flushErr = err
	}
	if err := w.file.Close(); err != nil && flushErr == nil {
		flushErr = err
	}

	if flushErr != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeIO,
			Message: fmt.Sprintf("failed to close artifact: %v", flushErr),
		}
	}
	return nil
}
