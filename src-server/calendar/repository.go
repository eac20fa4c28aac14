package calendar

import (
	"context"
	"fmt"
	"sync"
)

// Repository is the persistence collaborator of the lifecycle controller.
// Update and Delete return ErrNotFound (possibly wrapped) for unknown ids.
type Repository interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, e Event) (Event, error)
	Update(ctx context.Context, e Event) (Event, error)
	Delete(ctx context.Context, id string) error
}

// MemoryRepository keeps events in insertion order in memory. The Fail*
// hooks let tests simulate a failing collaborator.
type MemoryRepository struct {
	mu     sync.Mutex
	events []Event

	FailCreate error
	FailUpdate error
	FailDelete error
}

func NewMemoryRepository(seed ...Event) *MemoryRepository {
	events := make([]Event, len(seed))
	copy(events, seed)
	return &MemoryRepository{events: events}
}

func (m *MemoryRepository) List(_ context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *MemoryRepository) Create(_ context.Context, e Event) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return Event{}, m.FailCreate
	}
	for _, existing := range m.events {
		if existing.ID == e.ID {
			return Event{}, fmt.Errorf("(*MemoryRepository).Create: duplicate id %q", e.ID)
		}
	}
	m.events = append(m.events, e)
	return e, nil
}

func (m *MemoryRepository) Update(_ context.Context, e Event) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdate != nil {
		return Event{}, m.FailUpdate
	}
	for i := range m.events {
		if m.events[i].ID == e.ID {
			m.events[i] = e
			return e, nil
		}
	}
	return Event{}, fmt.Errorf("(*MemoryRepository).Update: %w", ErrNotFound)
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	for i := range m.events {
		if m.events[i].ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("(*MemoryRepository).Delete: %w", ErrNotFound)
}
