// internal/game/engine.go
//
// State machine for a single scramble session.
// Responsibilities:
//   - Start a session: fresh counters, first word, scrambled display.
//   - Apply guesses and passes; advance to unused words.
//   - End the session on three strikes or when every word has been presented.
//   - Mirror the state to a Persister after every transition.
//
// Transitions never fail for player misuse: guessing while not playing or
// passing without passes left are no-ops. The only errors returned are
// persistence errors, and by then the in-memory transition has been applied.
//
// A Game is not safe for concurrent use; callers serialize access.
package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scramble/internal/words"
)

// Game is the authoritative state of one session.
type Game struct {
	bank    *words.Bank
	src     words.Source
	persist Persister
	onEnd   func(context.Context, Summary)

	phase     Phase
	mode      string
	input     string
	current   string
	scrambled string
	points    int
	strikes   int
	passes    int
	used      []string
	message   string
}

// Option configures a Game.
type Option func(*Game)

// WithPersister mirrors the game into p.
func WithPersister(p Persister) Option {
	return func(g *Game) { g.persist = p }
}

// WithSource replaces the random source used for selection and scrambling.
func WithSource(src words.Source) Option {
	return func(g *Game) { g.src = src }
}

// WithMode tags the sessions started by this game (ModeClassic, ModeDaily).
func WithMode(mode string) Option {
	return func(g *Game) { g.mode = mode }
}

// OnEnd registers fn to be called once each time a session ends.
func OnEnd(fn func(context.Context, Summary)) Option {
	return func(g *Game) { g.onEnd = fn }
}

// New returns an idle game over bank.
func New(bank *words.Bank, opts ...Option) *Game {
	g := &Game{
		bank:    bank,
		src:     words.SystemSource(),
		persist: nopPersister{},
		mode:    ModeClassic,
	}
	for _, o := range opts {
		o(g)
	}
	g.defaults()
	return g
}

// defaults puts every session field back to its initial value.
func (g *Game) defaults() {
	g.phase = PhaseIdle
	g.input = ""
	g.current = ""
	g.scrambled = ""
	g.points = 0
	g.strikes = 0
	g.passes = MaxPasses
	g.used = nil
	g.message = ""
}

// Resume restores a previously saved session, if any.
// It reports whether a session was restored.
func (g *Game) Resume(ctx context.Context) (bool, error) {
	s, err := g.persist.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if s == nil {
		return false, nil
	}
	if err := g.fits(*s); err != nil {
		log.Warn().Err(err).Msg("discarding snapshot from another vocabulary")
		if err := g.persist.Clear(ctx); err != nil {
			return false, fmt.Errorf("clear snapshot: %w", err)
		}
		return false, nil
	}
	g.restore(*s)
	return true, nil
}

// fits reports whether s can continue over the current bank: every used word
// must still be in it and at least one must be left to present.
func (g *Game) fits(s Snapshot) error {
	for _, w := range s.UsedWords {
		if !g.bank.Contains(w) {
			return fmt.Errorf("word %q is not in the vocabulary", w)
		}
	}
	if len(s.UsedWords) >= g.bank.Len() {
		return fmt.Errorf("%d words used of %d", len(s.UsedWords), g.bank.Len())
	}
	return nil
}

func (g *Game) restore(s Snapshot) {
	g.phase = s.Phase
	if s.Mode != "" {
		g.mode = s.Mode
	}
	g.input = s.PendingInput
	g.current = s.CurrentWord
	g.scrambled = s.ScrambledWord
	g.points = s.Points
	g.strikes = s.Strikes
	g.passes = s.Passes
	g.used = append([]string(nil), s.UsedWords...)
	g.message = s.Message
}

// Start begins a new session from any phase.
// With an empty vocabulary nothing changes.
func (g *Game) Start(ctx context.Context) error {
	word, ok := g.bank.Select(nil, g.src)
	if !ok {
		log.Warn().Msg("start: vocabulary is empty")
		return nil
	}
	g.defaults()
	g.present(word)
	g.phase = PhasePlaying
	return g.settle(ctx)
}

// SetInput records the text the player is composing.
func (g *Game) SetInput(ctx context.Context, text string) error {
	if g.phase != PhasePlaying {
		return nil
	}
	g.input = strings.ToUpper(text)
	return g.settle(ctx)
}

// SubmitGuess checks input against the current word. Only case is folded.
// A match scores a point and moves to a new word; anything else is a strike.
func (g *Game) SubmitGuess(ctx context.Context, input string) error {
	if g.phase != PhasePlaying {
		return nil
	}
	guess := strings.ToUpper(input)
	g.input = ""
	if guess != g.current {
		g.strikes++
		g.message = msgIncorrect
		return g.settle(ctx)
	}
	g.points++
	if !g.advance() {
		return g.end(ctx, EndExhausted)
	}
	g.message = msgCorrect
	return g.settle(ctx)
}

// Pass skips the current word, spending one pass.
func (g *Game) Pass(ctx context.Context) error {
	if g.phase != PhasePlaying || g.passes <= 0 {
		return nil
	}
	g.passes--
	if !g.advance() {
		return g.end(ctx, EndExhausted)
	}
	g.message = msgPassed
	return g.settle(ctx)
}

// Reset abandons any session and clears the saved snapshot.
func (g *Game) Reset(ctx context.Context) error {
	g.defaults()
	if err := g.persist.Clear(ctx); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// advance presents a new unused word. It returns false when none is left.
func (g *Game) advance() bool {
	word, ok := g.bank.Select(g.used, g.src)
	if !ok {
		return false
	}
	g.present(word)
	return true
}

func (g *Game) present(word string) {
	g.current = word
	g.scrambled = words.Scramble(word, g.src)
	g.used = append(g.used, word)
}

// settle runs after every transition: it ends the session when either end
// condition holds, otherwise it saves the snapshot.
func (g *Game) settle(ctx context.Context) error {
	if g.phase != PhasePlaying {
		return nil
	}
	switch {
	case g.strikes >= MaxStrikes:
		return g.end(ctx, EndStrikes)
	case len(g.used) >= g.bank.Len():
		return g.end(ctx, EndExhausted)
	}
	if err := g.persist.Save(ctx, g.Snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (g *Game) end(ctx context.Context, reason EndReason) error {
	g.phase = PhaseEnded
	g.message = fmt.Sprintf(msgGameOver, g.points)
	log.Debug().
		Str("mode", g.mode).
		Int("points", g.points).
		Int("words", len(g.used)).
		Str("reason", string(reason)).
		Msg("game ended")
	if g.onEnd != nil {
		g.onEnd(ctx, g.summary(reason))
	}
	if err := g.persist.Clear(ctx); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func (g *Game) summary(reason EndReason) Summary {
	return Summary{
		Mode:    g.mode,
		Points:  g.points,
		Strikes: g.strikes,
		Passes:  g.passes,
		Words:   len(g.used),
		Reason:  reason,
	}
}

// Snapshot returns a copy of the current state for rendering or storage.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Phase:         g.phase,
		Mode:          g.mode,
		PendingInput:  g.input,
		CurrentWord:   g.current,
		ScrambledWord: g.scrambled,
		Points:        g.points,
		Strikes:       g.strikes,
		Passes:        g.passes,
		UsedWords:     append([]string(nil), g.used...),
		Message:       g.message,
	}
}

// Phase returns the current lifecycle stage.
func (g *Game) Phase() Phase { return g.phase }

// VocabularySize is the number of words a session can present.
func (g *Game) VocabularySize() int { return g.bank.Len() }
