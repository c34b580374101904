// Package shell is the terminal client: one game, stored under a fixed key,
// played line by line through readline.
package shell

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/scramble/internal/daily"
	"github.com/robalobadob/scramble/internal/game"
	"github.com/robalobadob/scramble/internal/store"
	"github.com/robalobadob/scramble/internal/words"
)

// SlotKey is where the terminal game is stored.
const SlotKey = "scrambleGame"

const helpText = `Commands:
  start   start a new game
  daily   start today's game (same words for everyone)
  pass    skip the current word
  reset   back to the start screen
  help    show this help
  quit    leave (the game is kept)
Anything else is a guess. Prefix a command with / when it
is also a word in play, e.g. /pass.`

type Shell struct {
	bank *words.Bank
	slot *store.Slot
	salt string
	now  func() time.Time
	out  io.Writer
	game *game.Game
}

// New returns a shell writing to out. The game is backed by kv.
func New(bank *words.Bank, kv store.KV, dailySalt string, out io.Writer) *Shell {
	s := &Shell{
		bank: bank,
		slot: store.NewSlot(kv, SlotKey),
		salt: dailySalt,
		now:  time.Now,
		out:  out,
	}
	s.game = s.newGame(game.ModeClassic, nil)
	return s
}

func (s *Shell) newGame(mode string, src words.Source) *game.Game {
	opts := []game.Option{game.WithPersister(s.slot), game.WithMode(mode)}
	if src != nil {
		opts = append(opts, game.WithSource(src))
	}
	return game.New(s.bank, opts...)
}

// Resume restores the stored game, if any, and shows the board.
func (s *Shell) Resume(ctx context.Context) error {
	ok, err := s.game.Resume(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(s.out, "Welcome back! Your game was restored.")
	}
	s.Render(s.out)
	return nil
}

// Exec runs one input line. quit is true when the player asked to leave.
// During a game a vocabulary word is always a guess, even when it spells a
// command; a leading slash forces the command.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	cmd, forced := strings.CutPrefix(line, "/")
	if !forced && s.game.Phase() == game.PhasePlaying && s.bank.Contains(line) {
		err = s.game.SubmitGuess(ctx, line)
		s.Render(s.out)
		return false, err
	}
	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
		return false, nil
	case "start", "new":
		s.game = s.newGame(game.ModeClassic, nil)
		err = s.game.Start(ctx)
	case "daily":
		s.game = s.newGame(game.ModeDaily, daily.Source(s.now(), s.salt))
		err = s.game.Start(ctx)
	case "pass":
		err = s.game.Pass(ctx)
	case "reset":
		err = s.game.Reset(ctx)
	default:
		if s.game.Phase() != game.PhasePlaying {
			fmt.Fprintln(s.out, "No game in progress. Type start, daily or help.")
			return false, nil
		}
		err = s.game.SubmitGuess(ctx, line)
	}
	s.Render(s.out)
	return false, err
}

// Render prints the board.
func (s *Shell) Render(w io.Writer) {
	snap := s.game.Snapshot()
	switch snap.Phase {
	case game.PhaseIdle:
		fmt.Fprintf(w, "Unscramble the words! %d words, %d strikes allowed. Type start or daily.\n",
			s.game.VocabularySize(), game.MaxStrikes)
	case game.PhasePlaying:
		if snap.Message != "" {
			fmt.Fprintln(w, snap.Message)
		}
		fmt.Fprintf(w, "  %s\n", spaced(snap.ScrambledWord))
		fmt.Fprintf(w, "  points %d | strikes %d/%d | passes %d\n",
			snap.Points, snap.Strikes, game.MaxStrikes, snap.Passes)
	case game.PhaseEnded:
		fmt.Fprintln(w, snap.Message)
		fmt.Fprintf(w, "The last word was %s. Type start to play again.\n", snap.CurrentWord)
	}
}

func spaced(word string) string {
	return strings.Join(strings.Split(word, ""), " ")
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// Loop reads lines until quit, EOF or an interrupt on an empty line.
func (s *Shell) Loop(ctx context.Context, historyFile string) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mscramble>\033[0m ",
		HistoryFile:     historyFile,
		EOFPrompt:       "quit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	s.out = l.Stdout()

	if err := s.Resume(ctx); err != nil {
		return err
	}
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		quit, err := s.Exec(ctx, line)
		if err != nil {
			fmt.Fprintln(l.Stderr(), "Error: "+err.Error())
		}
		if quit {
			break
		}
	}
	log.Debug().Msg("Exiting readline loop...")
	return nil
}
