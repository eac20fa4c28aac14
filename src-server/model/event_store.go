package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"advisordesk/src-server/calendar"

	"github.com/uptrace/bun"
)

// EventStore persists one user's events. It implements calendar.Repository.
type EventStore struct {
	db      bun.IDB
	userID  string
	observe func(op string, latency time.Duration)
}

// NewEventStore scopes every query to userID. observe may be nil.
func NewEventStore(db bun.IDB, userID string, observe func(op string, latency time.Duration)) *EventStore {
	if observe == nil {
		observe = func(string, time.Duration) {}
	}
	return &EventStore{db: db, userID: userID, observe: observe}
}

var _ calendar.Repository = (*EventStore)(nil)

func (s *EventStore) List(ctx context.Context) ([]calendar.Event, error) {
	defer s.timed("list")()

	eventModels := make([]Event, 0)
	if err := s.db.NewSelect().
		Model(&eventModels).
		Where("user_id = ?", s.userID).
		Order("created_at ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*EventStore).List: %w", err)
	}

	events := make([]calendar.Event, 0, len(eventModels))
	for _, eventModel := range eventModels {
		e, err := eventModel.ToCalendar()
		if err != nil {
			return nil, fmt.Errorf("(*EventStore).List: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *EventStore) Create(ctx context.Context, e calendar.Event) (calendar.Event, error) {
	defer s.timed("create")()

	eventModel := EventFromCalendar(s.userID, e)
	eventModel.CreatedAt = time.Now().UTC().UnixNano()
	if err := eventModel.validate(); err != nil {
		return calendar.Event{}, fmt.Errorf("(*EventStore).Create: %w", err)
	}
	if _, err := s.db.NewInsert().
		Model(eventModel).
		Exec(ctx); err != nil {
		return calendar.Event{}, fmt.Errorf("(*EventStore).Create: %w", err)
	}
	return e, nil
}

func (s *EventStore) Update(ctx context.Context, e calendar.Event) (calendar.Event, error) {
	defer s.timed("update")()

	existing := new(Event)
	if err := s.db.NewSelect().
		Model(existing).
		Where("id = ?", e.ID).
		Where("user_id = ?", s.userID).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calendar.Event{}, fmt.Errorf("(*EventStore).Update: %w", calendar.ErrNotFound)
		}
		return calendar.Event{}, fmt.Errorf("(*EventStore).Update: %w", err)
	}

	eventModel := EventFromCalendar(s.userID, e)
	eventModel.CreatedAt = existing.CreatedAt
	eventModel.UpdatedAt = time.Now().UTC().UnixNano()
	// a rescheduled event gets announced again
	eventModel.NotificationSent = existing.NotificationSent &&
		existing.Date == eventModel.Date &&
		existing.Time == eventModel.Time
	if err := eventModel.validate(); err != nil {
		return calendar.Event{}, fmt.Errorf("(*EventStore).Update: %w", err)
	}

	res, err := s.db.NewUpdate().
		Model(eventModel).
		WherePK().
		Where("user_id = ?", s.userID).
		Exec(ctx)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("(*EventStore).Update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.Event{}, fmt.Errorf("(*EventStore).Update: %w", calendar.ErrNotFound)
	}
	return e, nil
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	defer s.timed("delete")()

	res, err := s.db.NewDelete().
		Model((*Event)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", s.userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("(*EventStore).Delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("(*EventStore).Delete: %w", calendar.ErrNotFound)
	}
	return nil
}

func (s *EventStore) timed(op string) func() {
	start := time.Now()
	return func() {
		s.observe(op, time.Since(start))
	}
}
