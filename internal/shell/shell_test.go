package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/robalobadob/scramble/internal/game"
	"github.com/robalobadob/scramble/internal/store"
	"github.com/robalobadob/scramble/internal/words"
)

var vocab = []string{"REACT", "CSS", "HTML", "NODE", "VITE"}

func newShell(kv store.KV) (*Shell, *bytes.Buffer) {
	var out bytes.Buffer
	return New(words.NewBank(vocab), kv, "salt", &out), &out
}

func TestExecPlaysAGame(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	sh, out := newShell(store.NewMemory())

	quit, err := sh.Exec(ctx, "start")
	is.NoErr(err)
	is.True(!quit)
	snap := sh.game.Snapshot()
	is.Equal(snap.Phase, game.PhasePlaying)
	is.True(strings.Contains(out.String(), spaced(snap.ScrambledWord)))

	out.Reset()
	_, err = sh.Exec(ctx, "  definitely wrong ")
	is.NoErr(err)
	is.Equal(sh.game.Snapshot().Strikes, 1)
	is.True(strings.Contains(out.String(), "Incorrect! Try again."))
	is.True(strings.Contains(out.String(), "strikes 1/3"))

	_, err = sh.Exec(ctx, strings.ToLower(snap.CurrentWord))
	is.NoErr(err)
	is.Equal(sh.game.Snapshot().Points, 1)

	_, err = sh.Exec(ctx, "PASS")
	is.NoErr(err)
	is.Equal(sh.game.Snapshot().Passes, 2)

	_, err = sh.Exec(ctx, "reset")
	is.NoErr(err)
	is.Equal(sh.game.Phase(), game.PhaseIdle)
}

func TestExecCommands(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	sh, out := newShell(store.NewMemory())

	quit, err := sh.Exec(ctx, "help")
	is.NoErr(err)
	is.True(!quit)
	is.True(strings.Contains(out.String(), "Anything else is a guess."))

	// A word typed before starting is not a guess.
	out.Reset()
	_, err = sh.Exec(ctx, "react")
	is.NoErr(err)
	is.Equal(sh.game.Phase(), game.PhaseIdle)
	is.True(strings.Contains(out.String(), "No game in progress"))

	quit, err = sh.Exec(ctx, "")
	is.NoErr(err)
	is.True(!quit)

	quit, err = sh.Exec(ctx, "quit")
	is.NoErr(err)
	is.True(quit)
}

func TestStrikesEndTheGame(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	sh, out := newShell(store.NewMemory())

	_, err := sh.Exec(ctx, "start")
	is.NoErr(err)
	for i := 0; i < 3; i++ {
		_, err = sh.Exec(ctx, "nope")
		is.NoErr(err)
	}
	is.Equal(sh.game.Phase(), game.PhaseEnded)
	is.True(strings.Contains(out.String(), "Game over! You scored 0 points."))
	is.True(strings.Contains(out.String(), "The last word was "+sh.game.Snapshot().CurrentWord))
}

func TestDailyIsSharedAcrossShells(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	day := func() time.Time { return time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC) }

	a, _ := newShell(store.NewMemory())
	b, _ := newShell(store.NewMemory())
	a.now, b.now = day, day
	_, err := a.Exec(ctx, "daily")
	is.NoErr(err)
	_, err = b.Exec(ctx, "daily")
	is.NoErr(err)
	is.Equal(a.game.Snapshot().Mode, game.ModeDaily)
	is.Equal(a.game.Snapshot().CurrentWord, b.game.Snapshot().CurrentWord)
}

func TestResumeRestoresGame(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	kv := store.NewMemory()

	first, _ := newShell(kv)
	_, err := first.Exec(ctx, "start")
	is.NoErr(err)
	_, err = first.Exec(ctx, "pass")
	is.NoErr(err)
	want := first.game.Snapshot()

	second, out := newShell(kv)
	is.NoErr(second.Resume(ctx))
	is.Equal(second.game.Snapshot().ScrambledWord, want.ScrambledWord)
	is.Equal(second.game.Snapshot().Passes, 2)
	is.True(strings.Contains(out.String(), "Welcome back!"))

	// Nothing stored: the start screen.
	fresh, out := newShell(store.NewMemory())
	is.NoErr(fresh.Resume(ctx))
	is.Equal(fresh.game.Phase(), game.PhaseIdle)
	is.True(strings.Contains(out.String(), "Unscramble the words! 5 words"))
}

func TestCommandWordsCanBeGuessed(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	var out bytes.Buffer
	sh := New(words.NewBank([]string{"PASS", "QUIT", "START", "RESET"}), store.NewMemory(), "salt", &out)

	_, err := sh.Exec(ctx, "start")
	is.NoErr(err)
	word := sh.game.Snapshot().CurrentWord

	quit, err := sh.Exec(ctx, strings.ToLower(word))
	is.NoErr(err)
	is.True(!quit)
	s := sh.game.Snapshot()
	is.Equal(s.Points, 1)
	is.Equal(s.Passes, 3)
	is.Equal(s.Phase, game.PhasePlaying)

	// A slash forces the command.
	_, err = sh.Exec(ctx, "/pass")
	is.NoErr(err)
	is.Equal(sh.game.Snapshot().Passes, 2)
	quit, err = sh.Exec(ctx, "/quit")
	is.NoErr(err)
	is.True(quit)
}
