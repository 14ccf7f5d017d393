package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"famledger/internal/model"
	"famledger/internal/repository/memory"
)

// A failing or panicking hook must not stop the hooks after it.
func TestPostCommitHooksAreBestEffort(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var order []string
	var p postCommit
	p.add("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	p.add("failing", func(context.Context) error {
		order = append(order, "failing")
		return errors.New("downstream unavailable")
	})
	p.add("panicking", func(context.Context) error {
		order = append(order, "panicking")
		panic("boom")
	})
	p.add("last", func(context.Context) error {
		order = append(order, "last")
		return nil
	})

	p.run(context.Background(), log)

	want := []string{"first", "failing", "panicking", "last"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, model.Notification) error {
	return errors.New("notification service down")
}

func (failingNotifier) NotifyParents(context.Context, model.Notification) error {
	return errors.New("notification service down")
}

// A failing notifier never unwinds the committed mutation.
func TestFailingNotifierDoesNotAffectResult(t *testing.T) {
	db := memory.New()
	c := New(db, Options{
		Notifier: failingNotifier{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ch, err := c.CreateChore(context.Background(), parent, "Dishes", child.ID, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.CompleteChore(context.Background(), child, ch.ID)
	if err != nil {
		t.Fatalf("CompleteChore failed because of a side effect: %v", err)
	}
	if got.CreditsAwarded != 10 {
		t.Fatalf("credits not awarded: %+v", got)
	}
	if mustBalance(t, db, child.ID, model.ResourceCredit).CurrentAmount != 10 {
		t.Fatal("balance not credited")
	}
}
