// Package export implements the append-only CSV persistence layer.
//
// Each channel gets one artifact with a fixed five column schema:
// server_name, server_id, channel_name, channel_id, data. The data column
// holds the full original message payload as a JSON blob, escaped by the
// CSV layer with standard RFC 4180 quoting (fields containing the
// delimiter, the quote character or a newline are wrapped in quotes with
// embedded quotes doubled), so the round trip back through a CSV reader is
// exact.
//
// The header row is written exactly once, when the artifact is created;
// subsequent runs open the file for append and only ever add rows. Batches
// isolate per-record serialization failures, while artifact I/O failures
// abort the run.
package export
