package model_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"advisordesk/src-server/model"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func TestUser(t *testing.T) {
	ctx := context.Background()
	bundb := newTestDB(t)

	u := &model.User{
		ID:       uuid.NewString(),
		Email:    model.NormalizeEmail("  Advisor@Example.com "),
		FullName: "Jane Advisor",
	}
	if err := u.SetPassword("hunter22"); err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash == "hunter22" {
		t.Fatal("password stored in clear")
	}
	if err := u.Insert(ctx, bundb); err != nil {
		t.Fatal(err)
	}

	taken, err := model.EmailTaken(ctx, bundb, "ADVISOR@example.com")
	if err != nil || !taken {
		t.Errorf("taken %v, %v", taken, err)
	}

	found, err := model.UserByEmail(ctx, bundb, "advisor@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !found.CheckPassword("hunter22") || found.CheckPassword("hunter23") {
		t.Error("password check")
	}
	if err := found.TouchLastLogin(ctx, bundb); err != nil {
		t.Fatal(err)
	}
	byID, err := model.UserByID(ctx, bundb, u.ID)
	if err != nil || byID.LastLogin == 0 {
		t.Errorf("last login not stored: %v", err)
	}

	if _, err := model.UserByEmail(ctx, bundb, "nobody@example.com"); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("got %v", err)
	}

	dup := &model.User{ID: uuid.NewString(), Email: u.Email, PasswordHash: "x"}
	if err := dup.Insert(ctx, bundb); !errors.Is(err, model.ErrEmailTaken) {
		t.Errorf("duplicate email: %v", err)
	}

	// inside a transaction, as registration does
	err = bundb.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		again := &model.User{ID: uuid.NewString(), Email: u.Email, PasswordHash: "x"}
		return again.Insert(ctx, tx)
	})
	if !errors.Is(err, model.ErrEmailTaken) {
		t.Errorf("duplicate email in tx: %v", err)
	}

	// a clashing id is not an email clash
	sameID := &model.User{ID: u.ID, Email: "other@example.com", PasswordHash: "x"}
	if err := sameID.Insert(ctx, bundb); err == nil || errors.Is(err, model.ErrEmailTaken) {
		t.Errorf("duplicate id: %v", err)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	bundb := newTestDB(t)

	seed, err := model.ParseSeed([]byte(`
events:
  - title: Client Meeting - John Smith
    date: "2024-02-20"
    time: "14:00"
    duration: 60
    type: Review
    client: John Smith
    description: Annual portfolio review
  - title: Team Sync
    date: "2024-02-20"
    time: "16:00"
    duration: 30
    type: Team Meeting
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(seed.Events) != 2 {
		t.Fatalf("got %d seed events", len(seed.Events))
	}

	if err := bundb.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := seed.Apply(ctx, tx, "alice"); err != nil {
			return err
		}
		return seed.Apply(ctx, tx, "bob")
	}); err != nil {
		t.Fatal(err)
	}

	alice, err := model.NewEventStore(bundb, "alice", nil).List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	bob, err := model.NewEventStore(bundb, "bob", nil).List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(alice) != 2 || len(bob) != 2 {
		t.Fatalf("alice %d bob %d", len(alice), len(bob))
	}
	if alice[0].ID == bob[0].ID {
		t.Error("seed copies share an id")
	}
	if alice[0].Client != "John Smith" || alice[1].Title != "Team Sync" {
		t.Errorf("got %#v", alice)
	}

	func() {
		if _, err := model.ParseSeed([]byte("events:\n  - title: x\n    date: 20/02/2024\n")); err == nil {
			t.Error("bad date accepted")
		}
		if _, err := model.ParseSeed([]byte("events:\n  - date: \"2024-02-20\"\n")); err == nil {
			t.Error("missing title accepted")
		}
		empty, err := model.LoadSeed("")
		if err != nil || len(empty.Events) != 0 {
			t.Errorf("empty path: %v", err)
		}
	}()
}

func TestTask(t *testing.T) {
	ctx := context.Background()
	bundb := newTestDB(t)

	task := &model.Task{ID: "t1", UserID: "alice", Title: "Call back John", Priority: "high", CreatedAt: 1}
	if err := task.Upsert(ctx, bundb); err != nil {
		t.Fatal(err)
	}
	task.Completed = true
	if err := task.Upsert(ctx, bundb); err != nil {
		t.Fatal(err)
	}
	if err := (&model.Task{ID: "t2", UserID: "alice"}).Upsert(ctx, bundb); err == nil {
		t.Error("blank title accepted")
	}

	tasks, err := model.TasksOf(ctx, bundb, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Errorf("got %#v", tasks)
	}
	if others, _ := model.TasksOf(ctx, bundb, "bob"); len(others) != 0 {
		t.Errorf("bob sees %d tasks", len(others))
	}
}
