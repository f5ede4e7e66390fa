package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/scriptflow/script"
)

// ErrNotFound is returned when no archived script has the requested id.
var ErrNotFound = errors.New("script not found")

// Record is a finished script together with what produced it.
type Record struct {
	ID        string           `json:"id"`
	Topic     string           `json:"topic"`
	Script    string           `json:"script"`
	Selection script.Selection `json:"selection"`
	Sources   []script.Source  `json:"sources"`
	Analysis  script.Analysis  `json:"analysis"`
	VoiceName string           `json:"voiceName,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewRecord stamps a new record with a random id and the current time.
func NewRecord(topic, text string, sel script.Selection, sources []script.Source, analysis script.Analysis, voiceName string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Topic:     topic,
		Script:    text,
		Selection: sel.Clone(),
		Sources:   append([]script.Source(nil), sources...),
		Analysis:  analysis,
		VoiceName: voiceName,
		CreatedAt: time.Now().UTC(),
	}
}

// ScriptStore archives finished scripts.
type ScriptStore interface {
	// Save stores a record, replacing any record with the same id
	Save(ctx context.Context, record *Record) error

	// Load retrieves a record by ID
	Load(ctx context.Context, id string) (*Record, error)

	// List returns records for topic, newest first. An empty topic lists everything.
	List(ctx context.Context, topic string) ([]*Record, error)

	// Delete removes a record
	Delete(ctx context.Context, id string) error

	// Close releases the backend connection
	Close() error
}

// Encode serializes a record for backends that store opaque values.
func Encode(r *Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &r, nil
}

// SortNewest orders records by creation time, newest first, ties broken by id.
func SortNewest(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
