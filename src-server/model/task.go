package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Each user has many tasks
type Task struct {
	bun.BaseModel `bun:"table:tasks"`

	ID        string `bun:"id,pk" json:"id"`
	UserID    string `bun:"user_id,notnull" json:"-"`   // required
	Title     string `bun:"title,notnull" json:"title"` // required
	Due       string `bun:"due" json:"due,omitempty"`   // YYYY-MM-DD
	Priority  string `bun:"priority" json:"priority,omitempty"`
	Completed bool   `bun:"completed" json:"completed"`
	CreatedAt int64  `bun:"created_at,notnull" json:"createdAt"`
}

func (t *Task) Upsert(ctx context.Context, db bun.IDB) error {
	if t.ID == "" {
		return fmt.Errorf("(*Task).Upsert: id is required")
	}
	if t.UserID == "" {
		return fmt.Errorf("(*Task).Upsert: user id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("(*Task).Upsert: title is required")
	}

	// upsert to db
	if _, err := db.NewInsert().
		Model(t).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("due = EXCLUDED.due").
		Set("priority = EXCLUDED.priority").
		Set("completed = EXCLUDED.completed").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Task).Upsert: %w", err)
	}

	return nil
}

func TasksOf(ctx context.Context, db bun.IDB, userID string) ([]Task, error) {
	tasks := make([]Task, 0)
	if err := db.NewSelect().
		Model(&tasks).
		Where("user_id = ?", userID).
		Order("created_at ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("TasksOf: %w", err)
	}
	return tasks, nil
}
