package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/robalobadob/scramble/internal/game"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func backends(t *testing.T) map[string]KV {
	return map[string]KV{
		"memory": NewMemory(),
		"sqlite": openTestSQLite(t),
	}
}

func TestKV(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)

			_, err := kv.Get(ctx, "missing")
			is.True(errors.Is(err, ErrNotFound))

			is.NoErr(kv.Put(ctx, "k", []byte(`{"a":1}`)))
			is.NoErr(kv.Put(ctx, "k", []byte(`{"a":2}`)))
			v, err := kv.Get(ctx, "k")
			is.NoErr(err)
			is.Equal(string(v), `{"a":2}`)

			is.NoErr(kv.Delete(ctx, "k"))
			is.NoErr(kv.Delete(ctx, "k"))
			_, err = kv.Get(ctx, "k")
			is.True(errors.Is(err, ErrNotFound))
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	kv := NewMemory()
	buf := []byte("abc")
	is.NoErr(kv.Put(ctx, "k", buf))
	buf[0] = 'z'
	v, err := kv.Get(ctx, "k")
	is.NoErr(err)
	is.Equal(string(v), "abc")
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scramble.db")

	db, err := OpenSQLite(ctx, path)
	is.NoErr(err)
	is.NoErr(db.Put(ctx, "k", []byte("v")))
	is.NoErr(db.Close())

	// Migrations are recorded, so reopening does not re-apply them.
	db, err = OpenSQLite(ctx, path)
	is.NoErr(err)
	defer db.Close()
	v, err := db.Get(ctx, "k")
	is.NoErr(err)
	is.Equal(string(v), "v")
}

func playing() game.Snapshot {
	return game.Snapshot{
		Phase:         game.PhasePlaying,
		Mode:          game.ModeClassic,
		PendingInput:  "JAV",
		CurrentWord:   "JAVASCRIPT",
		ScrambledWord: "TPIRCSAVAJ",
		Points:        2,
		Strikes:       1,
		Passes:        2,
		UsedWords:     []string{"REACT", "CSS", "VUE", "JAVASCRIPT"},
		Message:       "Correct! New word generated.",
	}
}

func TestSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			slot := NewSlot(kv, "scrambleGame")

			got, err := slot.Load(ctx)
			is.NoErr(err)
			is.True(got == nil)

			want := playing()
			is.NoErr(slot.Save(ctx, want))
			is.NoErr(slot.Save(ctx, want))
			got, err = slot.Load(ctx)
			is.NoErr(err)
			is.Equal(*got, want)

			is.NoErr(slot.Clear(ctx))
			got, err = slot.Load(ctx)
			is.NoErr(err)
			is.True(got == nil)
		})
	}
}

func TestSlotMalformed(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	kv := NewMemory()
	slot := NewSlot(kv, "scrambleGame")

	for _, body := range []string{
		`not json`,
		`{"phase":"playing"`,
		`{"phase":"ended","currentWord":"CSS","scrambledWord":"SCS","usedWords":["CSS"]}`,
		`{"phase":"playing","currentWord":"CSS","scrambledWord":"XYZ","usedWords":["CSS"]}`,
		`{"phase":"playing","currentWord":"CSS","scrambledWord":"SSC","strikes":7,"usedWords":["CSS"]}`,
	} {
		is.NoErr(kv.Put(ctx, "scrambleGame", []byte(body)))
		got, err := slot.Load(ctx)
		is.NoErr(err)
		is.True(got == nil)
	}
}

func TestSlotKeysAreIndependent(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	kv := NewMemory()
	a, b := NewSlot(kv, "scrambleGame:a"), NewSlot(kv, "scrambleGame:b")
	is.NoErr(a.Save(ctx, playing()))

	got, err := b.Load(ctx)
	is.NoErr(err)
	is.True(got == nil)
	is.NoErr(b.Clear(ctx))
	got, err = a.Load(ctx)
	is.NoErr(err)
	is.True(got != nil)
}

func TestUsers(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	users := NewUsers(openTestSQLite(t).DB())

	u, err := users.Create(ctx, "ada_l", "correct horse")
	is.NoErr(err)
	is.True(u.ID != "")

	_, err = users.Create(ctx, "ADA_L", "another password")
	is.True(errors.Is(err, ErrUsernameTaken))

	_, err = users.Create(ctx, "x", "correct horse")
	is.True(errors.Is(err, ErrInvalidSignup))
	_, err = users.Create(ctx, "bob", "short")
	is.True(errors.Is(err, ErrInvalidSignup))

	got, err := users.Authenticate(ctx, " Ada_L ", "correct horse")
	is.NoErr(err)
	is.Equal(got.ID, u.ID)

	_, err = users.Authenticate(ctx, "ada_l", "wrong password")
	is.True(errors.Is(err, ErrBadLogin))
	_, err = users.Authenticate(ctx, "nobody", "correct horse")
	is.True(errors.Is(err, ErrBadLogin))

	is.NoErr(users.RecordGame(ctx, u.ID, 4))
	is.NoErr(users.RecordGame(ctx, u.ID, 2))
	got, err = users.ByID(ctx, u.ID)
	is.NoErr(err)
	is.Equal(got.GamesPlayed, 2)
	is.Equal(got.BestPoints, 4)

	_, err = users.ByID(ctx, "missing")
	is.True(errors.Is(err, ErrNotFound))
}

func TestUsersDuplicateInsertIsTaken(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	users := NewUsers(openTestSQLite(t).DB())
	_, err := users.Create(ctx, "grace", "correct horse")
	is.NoErr(err)

	// Past the username lookup, as when another signup got there first.
	err = users.insert(ctx, &User{ID: "other", Username: "GRACE", PasswordHash: "x", CreatedAt: time.Now()})
	is.True(errors.Is(err, ErrUsernameTaken))
}

func TestUsersConcurrentSignups(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	users := NewUsers(openTestSQLite(t).DB())

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = users.Create(ctx, "linus", "correct horse")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		is.True(errors.Is(err, ErrUsernameTaken))
	}
	is.Equal(created, 1)
}
