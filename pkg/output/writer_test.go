package output

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLWriterAction(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "job-1", "my-bucket")

	err := w.WriteAction(context.Background(), &ActionRecord{
		Action:    "create",
		Directory: "docs",
		Key:       "docs/index.html",
		Digest:    "d41d8cd98f00b204e9800998ecf8427e",
		Size:      321,
	})
	require.NoError(t, err)

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, TypeAction, rec.Type)
	assert.Equal(t, "job-1", rec.JobID)
	assert.Equal(t, "my-bucket", rec.Bucket)
	assert.WithinDuration(t, time.Now(), rec.TS, 5*time.Second)

	var action ActionRecord
	require.NoError(t, json.Unmarshal(rec.Data, &action))
	assert.Equal(t, "create", action.Action)
	assert.Equal(t, "docs", action.Directory)
	assert.Equal(t, int64(321), action.Size)
}

func TestJSONLWriterErrorAndSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "job-2", "b")

	require.NoError(t, w.WriteError(context.Background(), &ErrorRecord{
		Code:    ErrCodeWrite,
		Message: "access denied",
		Key:     "index.html",
	}))
	require.NoError(t, w.WriteSummary(context.Background(), &SummaryRecord{
		Directories:       3,
		Created:           2,
		Skipped:           1,
		InvalidationPaths: []string{"/", "/docs/"},
		Duration:          1500 * time.Millisecond,
		DurationHuman:     "1.5s",
	}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var errRec, sumRec Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &errRec))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &sumRec))
	assert.Equal(t, TypeError, errRec.Type)
	assert.Equal(t, TypeSummary, sumRec.Type)

	var sum SummaryRecord
	require.NoError(t, json.Unmarshal(sumRec.Data, &sum))
	assert.Equal(t, 3, sum.Directories)
	assert.Equal(t, []string{"/", "/docs/"}, sum.InvalidationPaths)
}

func TestJSONLWriterOneLinePerRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "job", "b")

	for i := 0; i < 5; i++ {
		require.NoError(t, w.WriteAction(context.Background(), &ActionRecord{Action: "skip"}))
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 5)
	for _, line := range lines {
		assert.True(t, json.Valid([]byte(line)))
	}
}

func TestJSONLWriterClosed(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "job", "b")
	require.NoError(t, w.Close())

	err := w.WriteAction(context.Background(), &ActionRecord{Action: "create"})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestJSONLWriterContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "job", "b")

	err := w.WriteAction(ctx, &ActionRecord{Action: "create"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestDiscardWriter(t *testing.T) {
	w := Discard{}
	ctx := context.Background()

	assert.NoError(t, w.WriteAction(ctx, &ActionRecord{}))
	assert.NoError(t, w.WriteError(ctx, &ErrorRecord{}))
	assert.NoError(t, w.WriteSummary(ctx, &SummaryRecord{}))
	assert.NoError(t, w.Close())
}
