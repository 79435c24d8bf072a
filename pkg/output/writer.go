package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Writer outputs JSONL records for reconcile results.
//
// Implementations must be safe for concurrent use from multiple goroutines.
// Each Write* method emits a complete record as a single line of JSON
// followed by a newline.
type Writer interface {
	// WriteAction emits a reconcile decision record.
	WriteAction(ctx context.Context, action *ActionRecord) error

	// WriteError emits an error record.
	WriteError(ctx context.Context, err *ErrorRecord) error

	// WriteSummary emits a summary record.
	WriteSummary(ctx context.Context, sum *SummaryRecord) error

	// Close flushes any buffered output and releases resources.
	Close() error
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// JSONLWriter is safe for concurrent use. Writes are serialized using a
// mutex to ensure atomic line writes (no interleaved output).
type JSONLWriter struct {
	w      io.Writer
	jobID  string
	bucket string
	mu     sync.Mutex

	// closed indicates the writer has been closed.
	closed bool
}

// NewJSONLWriter creates a new JSONL writer.
//
// Parameters:
//   - w: The underlying writer (stdout, file, etc.)
//   - jobID: Correlation ID for this reconcile run
//   - bucket: Bucket being reconciled
func NewJSONLWriter(w io.Writer, jobID, bucket string) *JSONLWriter {
	return &JSONLWriter{
		w:      w,
		jobID:  jobID,
		bucket: bucket,
	}
}

// WriteAction emits a reconcile decision record.
func (jw *JSONLWriter) WriteAction(ctx context.Context, action *ActionRecord) error {
	return jw.writeRecord(ctx, TypeAction, action)
}

// WriteError emits an error record.
func (jw *JSONLWriter) WriteError(ctx context.Context, err *ErrorRecord) error {
	return jw.writeRecord(ctx, TypeError, err)
}

// WriteSummary emits a summary record.
func (jw *JSONLWriter) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	return jw.writeRecord(ctx, TypeSummary, sum)
}

// Close marks the writer as closed.
//
// If the underlying writer implements io.Closer, it is NOT closed.
// The caller is responsible for closing the underlying writer.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.closed = true
	return nil
}

// writeRecord marshals data and writes a complete record line.
//
// This method holds the mutex for the entire operation to ensure atomic
// line writes. The record is written as a single line of JSON followed by
// a newline character.
func (jw *JSONLWriter) writeRecord(ctx context.Context, recordType string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	rec := Record{
		Type:   recordType,
		TS:     time.Now().UTC(),
		JobID:  jw.jobID,
		Bucket: jw.bucket,
		Data:   payload,
	}

	line, err := json.Marshal(&rec)
	if err != nil {
		return err
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return io.ErrClosedPipe
	}

	if _, err := jw.w.Write(line); err != nil {
		return err
	}
	if _, err := jw.w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}

// Discard is a Writer that drops all records. It is the default writer for
// reconcilers that only need the summary.
type Discard struct{}

// WriteAction implements Writer.
func (Discard) WriteAction(ctx context.Context, action *ActionRecord) error { return nil }

// WriteError implements Writer.
func (Discard) WriteError(ctx context.Context, err *ErrorRecord) error { return nil }

// WriteSummary implements Writer.
func (Discard) WriteSummary(ctx context.Context, sum *SummaryRecord) error { return nil }

// Close implements Writer.
func (Discard) Close() error { return nil }
