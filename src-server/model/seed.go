package model

import (
	"context"
	"fmt"
	"os"
	"strings"

	"advisordesk/src-server/calendar"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// SeedEvent is one entry of the seed file. Dates are YYYY-MM-DD.
type SeedEvent struct {
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Time        string `yaml:"time"`
	Duration    int    `yaml:"duration"`
	Type        string `yaml:"type"`
	Client      string `yaml:"client"`
	Description string `yaml:"description"`
}

type Seed struct {
	Events []SeedEvent `yaml:"events"`
}

// LoadSeed reads the seed file at path. An empty path yields an empty seed.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return &Seed{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSeed: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	seed := new(Seed)
	if err := yaml.Unmarshal(data, seed); err != nil {
		return nil, fmt.Errorf("ParseSeed: %w", err)
	}
	for i, se := range seed.Events {
		if _, err := se.toCalendar(""); err != nil {
			return nil, fmt.Errorf("ParseSeed: event #%d: %w", i, err)
		}
	}
	return seed, nil
}

func (se SeedEvent) toCalendar(id string) (calendar.Event, error) {
	date, err := calendar.ParseDate(strings.TrimSpace(se.Date))
	if err != nil {
		return calendar.Event{}, err
	}
	e := calendar.Event{
		ID:          id,
		Title:       strings.TrimSpace(se.Title),
		Date:        date,
		Time:        se.Time,
		Duration:    se.Duration,
		Type:        se.Type,
		Client:      se.Client,
		Description: se.Description,
	}
	if err := e.Validate(); err != nil {
		return calendar.Event{}, err
	}
	return e, nil
}

// Apply gives userID a copy of every seed event, each under a fresh id.
func (s *Seed) Apply(ctx context.Context, db bun.IDB, userID string) error {
	if s == nil || len(s.Events) == 0 {
		return nil
	}
	store := NewEventStore(db, userID, nil)
	for i, se := range s.Events {
		e, err := se.toCalendar(uuid.NewString())
		if err != nil {
			return fmt.Errorf("(*Seed).Apply: event #%d: %w", i, err)
		}
		if _, err := store.Create(ctx, e); err != nil {
			return fmt.Errorf("(*Seed).Apply: %w", err)
		}
	}
	return nil
}
