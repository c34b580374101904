// internal/game/types.go
//
// Core type definitions for the scramble game engine.
// Defines:
//   - Phase: lifecycle stage of a session (idle/playing/ended).
//   - Snapshot: the full, serializable state of a session.
//   - Summary: what a finished game reports to its end hook.
//   - Persister: where snapshots are mirrored.

package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalobadob/scramble/internal/words"
)

// Phase is the lifecycle stage of a session.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// Game modes. Daily games draw words from a date-seeded source.
const (
	ModeClassic = "classic"
	ModeDaily   = "daily"
)

const (
	MaxStrikes = 3
	MaxPasses  = 3
)

// Player-facing messages.
const (
	msgCorrect   = "Correct! New word generated."
	msgIncorrect = "Incorrect! Try again."
	msgPassed    = "Word passed! New word generated."
	msgGameOver  = "Game over! You scored %d points."
)

// Snapshot holds every tracked field of a session.
// It is also the persisted record; JSON names are part of the storage format.
type Snapshot struct {
	Phase         Phase    `json:"phase"`
	Mode          string   `json:"mode,omitempty"`
	PendingInput  string   `json:"pendingInput"`
	CurrentWord   string   `json:"currentWord"`
	ScrambledWord string   `json:"scrambledWord"`
	Points        int      `json:"points"`
	Strikes       int      `json:"strikes"`
	Passes        int      `json:"passes"`
	UsedWords     []string `json:"usedWords"`
	Message       string   `json:"message"`
}

// Validate checks that s describes a resumable session.
// Only playing sessions are ever persisted, so anything else is rejected.
func (s *Snapshot) Validate() error {
	switch {
	case s.Phase != PhasePlaying:
		return fmt.Errorf("phase %q is not resumable", s.Phase)
	case s.CurrentWord == "":
		return errors.New("missing current word")
	case !words.IsPermutation(s.CurrentWord, s.ScrambledWord):
		return errors.New("scrambled word is not a permutation of the current word")
	case s.Points < 0:
		return errors.New("negative points")
	case s.Strikes < 0 || s.Strikes >= MaxStrikes:
		return fmt.Errorf("strikes %d out of range", s.Strikes)
	case s.Passes < 0 || s.Passes > MaxPasses:
		return fmt.Errorf("passes %d out of range", s.Passes)
	}
	for _, w := range s.UsedWords {
		if w == s.CurrentWord {
			return nil
		}
	}
	return errors.New("current word missing from used words")
}

// EndReason says why a game finished.
type EndReason string

const (
	EndStrikes   EndReason = "strikes"
	EndExhausted EndReason = "exhausted"
	EndAbandoned EndReason = "abandoned" // replaced or reset while playing
)

// Summary describes a finished game.
type Summary struct {
	Mode    string
	Points  int
	Strikes int
	Passes  int
	Words   int
	Reason  EndReason
}

// Persister mirrors the state of one session.
// Load returns nil, nil when there is no saved session.
type Persister interface {
	Save(ctx context.Context, s Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
	Clear(ctx context.Context) error
}

// nopPersister is used when a game is built without storage.
type nopPersister struct{}

func (nopPersister) Save(context.Context, Snapshot) error     { return nil }
func (nopPersister) Load(context.Context) (*Snapshot, error) { return nil, nil }
func (nopPersister) Clear(context.Context) error             { return nil }
