package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scramble/internal/game"
)

// Slot persists the snapshot of one session under a fixed key.
// It implements game.Persister.
type Slot struct {
	kv  KV
	key string
}

var _ game.Persister = (*Slot)(nil)

// NewSlot binds key in kv.
func NewSlot(kv KV, key string) *Slot {
	return &Slot{kv: kv, key: key}
}

// Key returns the storage key of the slot.
func (s *Slot) Key() string { return s.key }

// Save overwrites the slot with snap.
func (s *Slot) Save(ctx context.Context, snap game.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.kv.Put(ctx, s.key, body)
}

// Load returns the saved snapshot, or nil when the slot is empty or holds
// something that is not a resumable session.
func (s *Slot) Load(ctx context.Context) (*game.Snapshot, error) {
	body, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap game.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("discarding malformed snapshot")
		return nil, nil
	}
	if err := snap.Validate(); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("discarding invalid snapshot")
		return nil, nil
	}
	return &snap, nil
}

// Clear empties the slot.
func (s *Slot) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}
