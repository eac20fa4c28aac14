package model_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"advisordesk/src-server/calendar"
	"advisordesk/src-server/model"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bundb.Close() })

	if err := model.CreateSchema(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	return bundb
}

func mustDate(t *testing.T, s string) calendar.Date {
	t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestEventStore(t *testing.T) {
	ctx := context.Background()
	bundb := newTestDB(t)

	ops := make([]string, 0)
	store := model.NewEventStore(bundb, "alice", func(op string, _ time.Duration) {
		ops = append(ops, op)
	})

	for _, e := range []calendar.Event{
		{ID: "b", Title: "Client Meeting", Date: mustDate(t, "2024-02-20"), Time: "14:00", Duration: 60, Type: "Review", Client: "John Smith"},
		{ID: "a", Title: "Team Sync", Date: mustDate(t, "2024-02-20"), Time: "16:00", Duration: 30, Type: "Team Meeting"},
		{ID: "c", Title: "Planning", Date: mustDate(t, "2024-03-01")},
	} {
		if _, err := store.Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	// insertion order, not id order
	func() {
		events, err := store.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 3 {
			t.Fatalf("got %d events", len(events))
		}
		if events[0].ID != "b" || events[1].ID != "a" || events[2].ID != "c" {
			t.Errorf("order %s %s %s", events[0].ID, events[1].ID, events[2].ID)
		}
		if events[0].Client != "John Smith" || events[0].Duration != 60 || events[0].Date != mustDate(t, "2024-02-20") {
			t.Errorf("round trip %#v", events[0])
		}
	}()

	// update
	func() {
		if _, err := store.Update(ctx, calendar.Event{ID: "a", Title: "Team Sync (moved)", Date: mustDate(t, "2024-02-21"), Time: "09:00"}); err != nil {
			t.Fatal(err)
		}
		events, err := store.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if events[1].ID != "a" || events[1].Title != "Team Sync (moved)" || events[1].Date != mustDate(t, "2024-02-21") {
			t.Errorf("got %#v", events[1])
		}
	}()

	// missing records
	func() {
		_, err := store.Update(ctx, calendar.Event{ID: "zzz", Title: "x", Date: mustDate(t, "2024-02-21")})
		if !errors.Is(err, calendar.ErrNotFound) {
			t.Errorf("update missing: %v", err)
		}
		if err := store.Delete(ctx, "zzz"); !errors.Is(err, calendar.ErrNotFound) {
			t.Errorf("delete missing: %v", err)
		}
	}()

	// other users can't see or touch alice's events
	func() {
		bob := model.NewEventStore(bundb, "bob", nil)
		events, err := bob.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 0 {
			t.Errorf("bob sees %d events", len(events))
		}
		if err := bob.Delete(ctx, "b"); !errors.Is(err, calendar.ErrNotFound) {
			t.Errorf("bob deleted alice's event: %v", err)
		}
	}()

	// delete
	func() {
		if err := store.Delete(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		events, err := store.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 2 || events[0].ID != "a" {
			t.Errorf("got %d events", len(events))
		}
	}()

	if len(ops) == 0 || ops[0] != "create" {
		t.Errorf("observed ops %v", ops)
	}
}

func TestEventStoreRejectsInvalidRows(t *testing.T) {
	ctx := context.Background()
	store := model.NewEventStore(newTestDB(t), "alice", nil)

	if _, err := store.Create(ctx, calendar.Event{ID: "x", Date: mustDate(t, "2024-02-20")}); err == nil {
		t.Error("blank title accepted")
	}
	if _, err := store.Create(ctx, calendar.Event{ID: "x", Title: "t", Date: mustDate(t, "2024-02-20"), Duration: -5}); err == nil {
		t.Error("negative duration accepted")
	}
}

func TestControllerOverEventStore(t *testing.T) {
	ctx := context.Background()
	bundb := newTestDB(t)
	store := model.NewEventStore(bundb, "alice", nil)

	ctrl, err := calendar.NewController(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.New()
	title, date := "Portfolio Review", "2024-02-22"
	created, err := ctrl.Submit(ctx, calendar.EventPatch{Title: &title, Date: &date})
	if err != nil {
		t.Fatal(err)
	}

	// a fresh controller sees what the first one committed
	reloaded, err := calendar.NewController(ctx, store)
	if err != nil {
		t.Fatal(err)
	}
	got := reloaded.Index().EventsOn(mustDate(t, "2024-02-22"))
	if len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("got %v", got)
	}

	if err := reloaded.Open(created.ID); err != nil {
		t.Fatal(err)
	}
	if err := reloaded.Delete(ctx); err != nil {
		t.Fatal(err)
	}
	if events, _ := store.List(ctx); len(events) != 0 {
		t.Errorf("still stored: %v", events)
	}
}

func TestNotificationFlag(t *testing.T) {
	ctx := context.Background()
	bundb := newTestDB(t)
	store := model.NewEventStore(bundb, "alice", nil)

	e := calendar.Event{ID: "n1", Title: "Call", Date: mustDate(t, "2024-02-20"), Time: "10:00"}
	if _, err := store.Create(ctx, e); err != nil {
		t.Fatal(err)
	}

	from, to := mustDate(t, "2024-02-19"), mustDate(t, "2024-02-21")
	pending, err := model.EventsPendingNotification(ctx, bundb, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending", len(pending))
	}
	if err := model.MarkNotificationSent(ctx, bundb, []string{"n1"}); err != nil {
		t.Fatal(err)
	}
	if pending, _ := model.EventsPendingNotification(ctx, bundb, from, to); len(pending) != 0 {
		t.Errorf("still pending after mark")
	}

	// renaming keeps the flag
	e.Title = "Call (renamed)"
	if _, err := store.Update(ctx, e); err != nil {
		t.Fatal(err)
	}
	if pending, _ := model.EventsPendingNotification(ctx, bundb, from, to); len(pending) != 0 {
		t.Errorf("rename reset the flag")
	}

	// rescheduling clears it
	e.Time = "11:30"
	if _, err := store.Update(ctx, e); err != nil {
		t.Fatal(err)
	}
	if pending, _ := model.EventsPendingNotification(ctx, bundb, from, to); len(pending) != 1 {
		t.Errorf("reschedule kept the flag")
	}
}

func TestEventStartsAt(t *testing.T) {
	e := model.Event{Date: "2024-02-20", Time: "14:30"}
	at, ok := e.StartsAt(time.UTC)
	if !ok || !at.Equal(time.Date(2024, 2, 20, 14, 30, 0, 0, time.UTC)) {
		t.Errorf("got %v %v", at, ok)
	}
	if _, ok := (&model.Event{Date: "2024-02-20", Time: "after lunch"}).StartsAt(time.UTC); ok {
		t.Error("free text time should not parse")
	}

	// the day clocks jump forward in New York
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	for in, want := range map[string]time.Time{
		"14:00": time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC),
		"01:30": time.Date(2024, 3, 10, 6, 30, 0, 0, time.UTC),
	} {
		at, ok := (&model.Event{Date: "2024-03-10", Time: in}).StartsAt(ny)
		if !ok || !at.Equal(want) {
			t.Errorf("StartsAt(%s) = %v, want %v", in, at, want.In(ny))
		}
		if ok && at.In(ny).Format("15:04") != in {
			t.Errorf("wall clock %s, want %s", at.In(ny).Format("15:04"), in)
		}
	}
}
