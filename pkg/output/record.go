// Package output provides JSONL output for reconcile results.
//
// Output is structured as typed record envelopes containing reconcile
// decisions, errors, and a final summary. Each line is a self-contained
// JSON object that can be parsed independently.
package output

import (
	"encoding/json"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: s3indexbuilder.<type>.v<version>
const (
	// TypeAction identifies reconcile decision records.
	TypeAction = "s3indexbuilder.action.v1"

	// TypeError identifies error records.
	TypeError = "s3indexbuilder.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "s3indexbuilder.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line of JSONL output contains a Record with a type-specific payload
// in the Data field. The type field determines how to interpret the Data
// payload.
type Record struct {
	// Type identifies the record type (e.g., "s3indexbuilder.action.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this reconcile run.
	JobID string `json:"job_id"`

	// Bucket is the bucket being reconciled.
	Bucket string `json:"bucket"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ActionRecord is the data payload for one reconcile decision.
type ActionRecord struct {
	// Action is the decision: "create", "update", "delete" or "skip".
	Action string `json:"action"`

	// Directory is the directory path the decision applies to.
	// Empty string denotes the root/prefix directory.
	Directory string `json:"directory"`

	// Key is the listing object key written or deleted.
	Key string `json:"key"`

	// PreviousDigest is the stored digest of the existing listing, if any.
	PreviousDigest string `json:"previous_digest,omitempty"`

	// Digest is the digest of the freshly rendered listing.
	// Empty for delete actions.
	Digest string `json:"digest,omitempty"`

	// Size is the rendered body size in bytes. Zero for delete actions.
	Size int64 `json:"size,omitempty"`

	// DryRun indicates the decision was computed but not applied.
	DryRun bool `json:"dry_run,omitempty"`
}

// ErrorRecord is the data payload for errors.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Key is the object key related to this error, if applicable.
	Key string `json:"key,omitempty"`
}

// Error codes for ErrorRecord.Code.
const (
	ErrCodeEnumeration       = "enumeration_failed"
	ErrCodeWrite             = "write_failed"
	ErrCodeIntegrityMismatch = "integrity_mismatch"
	ErrCodeDelete            = "delete_failed"
	ErrCodeInvalidation      = "invalidation_failed"
)

// SummaryRecord is the data payload for the final run summary.
type SummaryRecord struct {
	// Directories is the number of directories considered.
	Directories int `json:"directories"`

	// Created, Updated, Deleted, Skipped and Excluded count the per-directory
	// outcomes of the run.
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
	Excluded int `json:"excluded,omitempty"`

	// InvalidationPaths is the deduplicated set of cache paths registered
	// for invalidation, in sorted order.
	InvalidationPaths []string `json:"invalidation_paths,omitempty"`

	// Duration is the total run time.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is Duration in human-readable form.
	DurationHuman string `json:"duration"`

	// DryRun indicates no mutation was applied.
	DryRun bool `json:"dry_run,omitempty"`
}
