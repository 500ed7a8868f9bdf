package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the on-disk form used by backends that store a single blob per
// key (bolt, redis, diskv, jsonfile).
type Envelope struct {
	Revision  string          `json:"rev"`
	UpdatedAt time.Time       `json:"updated_at"`
	Value     json.RawMessage `json:"value"`
}

// EncodeEnvelope wraps value with revision.
func EncodeEnvelope(value []byte, revision string, now time.Time) ([]byte, error) {
	if !json.Valid(value) {
		return nil, fmt.Errorf("storage: value is not valid JSON")
	}
	return json.Marshal(Envelope{
		Revision:  revision,
		UpdatedAt: now.UTC(),
		Value:     json.RawMessage(value),
	})
}

// DecodeEnvelope unwraps a stored envelope into an Item.
func DecodeEnvelope(data []byte) (Item, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Item{}, fmt.Errorf("storage: decode envelope: %w", err)
	}
	return Item{
		Value:    append([]byte(nil), env.Value...),
		Revision: env.Revision,
	}, nil
}
