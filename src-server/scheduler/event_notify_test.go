package scheduler_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"advisordesk/src-server/calendar"
	"advisordesk/src-server/model"
	"advisordesk/src-server/scheduler"

	"github.com/bwmarrin/discordgo"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type fakeNotifier struct {
	batches [][]*discordgo.MessageEmbed
	fail    bool
}

func (f *fakeNotifier) Notify(_ context.Context, embeds []*discordgo.MessageEmbed) error {
	if f.fail {
		return errors.New("webhook down")
	}
	f.batches = append(f.batches, embeds)
	return nil
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bundb.Close() })
	if err := model.CreateSchema(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	return bundb
}

func TestEventNotifier(t *testing.T) {
	ctx := context.Background()
	bundb := newTestDB(t)
	store := model.NewEventStore(bundb, "alice", nil)

	day := calendar.NewDate(2024, time.February, 20)
	for _, e := range []calendar.Event{
		{ID: "soon", Title: "Client Meeting", Date: day, Time: "14:10", Duration: 60, Client: "John Smith"},
		{ID: "edge", Title: "Edge", Date: day, Time: "14:15"},
		{ID: "later", Title: "Later", Date: day, Time: "16:00"},
		{ID: "past", Title: "Past", Date: day, Time: "13:59"},
		{ID: "vague", Title: "Vague", Date: day, Time: "after lunch"},
	} {
		if _, err := store.Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	fake := &fakeNotifier{}
	now := time.Date(2024, 2, 20, 14, 0, 0, 0, time.UTC)
	notifier := scheduler.NewEventNotifier(bundb, time.UTC, 15*time.Minute, fake).
		WithClock(func() time.Time { return now })

	sent, err := notifier.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sent != 2 || len(fake.batches) != 1 {
		t.Fatalf("sent %d in %d batches", sent, len(fake.batches))
	}
	footers := map[string]bool{}
	for _, embed := range fake.batches[0] {
		footers[embed.Footer.Text] = true
	}
	if !footers["soon"] || !footers["edge"] {
		t.Errorf("got %v", footers)
	}

	// already announced
	if sent, err := notifier.Run(ctx); err != nil || sent != 0 {
		t.Errorf("second run sent %d, %v", sent, err)
	}
}

func TestEventNotifierBatchesAndFailures(t *testing.T) {
	ctx := context.Background()
	bundb := newTestDB(t)
	store := model.NewEventStore(bundb, "alice", nil)

	day := calendar.NewDate(2024, time.February, 20)
	for i := 0; i < 12; i++ {
		e := calendar.Event{ID: fmt.Sprintf("e%02d", i), Title: "Call", Date: day, Time: "09:05"}
		if _, err := store.Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	now := time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC)

	func() {
		down := &fakeNotifier{fail: true}
		sent, err := scheduler.NewEventNotifier(bundb, time.UTC, 15*time.Minute, down).
			WithClock(func() time.Time { return now }).
			Run(ctx)
		if err == nil || sent != 0 {
			t.Errorf("sent %d, %v", sent, err)
		}
	}()

	// nothing was marked, so everything goes out on the retry
	fake := &fakeNotifier{}
	sent, err := scheduler.NewEventNotifier(bundb, time.UTC, 15*time.Minute, fake).
		WithClock(func() time.Time { return now }).
		Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sent != 12 || len(fake.batches) != 2 || len(fake.batches[0]) != 10 {
		t.Errorf("sent %d in %d batches", sent, len(fake.batches))
	}
}
