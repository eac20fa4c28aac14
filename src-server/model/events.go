package model

import (
	"context"
	"fmt"
	"time"

	"advisordesk/src-server/calendar"

	"github.com/bwmarrin/discordgo"
	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string `bun:"id,pk"`           // required
	UserID      string `bun:"user_id,notnull"` // required
	Title       string `bun:"title,notnull"`   // required
	Date        string `bun:"date,notnull"`    // required, YYYY-MM-DD
	Time        string `bun:"time"`            // free text, e.g. 14:00
	Duration    int    `bun:"duration"`        // minutes
	Type        string `bun:"type"`
	Client      string `bun:"client"`
	Description string `bun:"description"`

	// unix nano, also the insertion order of a user's collection
	CreatedAt int64 `bun:"created_at,notnull"`
	UpdatedAt int64 `bun:"updated_at"`

	NotificationSent bool `bun:"notification_sent"`
}

func (e *Event) validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("event id is blank")
	case e.UserID == "":
		return fmt.Errorf("user id is blank")
	case e.Title == "":
		return fmt.Errorf("title is blank")
	case e.Date == "":
		return fmt.Errorf("date is blank")
	case e.Duration < 0:
		return fmt.Errorf("duration is negative")
	}
	if _, err := calendar.ParseDate(e.Date); err != nil {
		return err
	}
	return nil
}

// EventFromCalendar copies the calendar fields of e into a row owned by userID.
func EventFromCalendar(userID string, e calendar.Event) *Event {
	return &Event{
		ID:          e.ID,
		UserID:      userID,
		Title:       e.Title,
		Date:        e.Date.String(),
		Time:        e.Time,
		Duration:    e.Duration,
		Type:        e.Type,
		Client:      e.Client,
		Description: e.Description,
	}
}

func (e *Event) ToCalendar() (calendar.Event, error) {
	date, err := calendar.ParseDate(e.Date)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("(*Event).ToCalendar: event %s: %w", e.ID, err)
	}
	return calendar.Event{
		ID:          e.ID,
		Title:       e.Title,
		Date:        date,
		Time:        e.Time,
		Duration:    e.Duration,
		Type:        e.Type,
		Client:      e.Client,
		Description: e.Description,
	}, nil
}

// StartsAt is the instant the event begins in loc. ok is false when the
// time of day can't be read.
func (e *Event) StartsAt(loc *time.Location) (time.Time, bool) {
	date, err := calendar.ParseDate(e.Date)
	if err != nil {
		return time.Time{}, false
	}
	minutes, ok := calendar.ClockMinutes(e.Time)
	if !ok {
		return time.Time{}, false
	}
	return date.At(minutes, loc), true
}

// ToDiscordEmbed renders a reminder for the event starting at start.
func (e *Event) ToDiscordEmbed(start time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Start",
				Value:  fmt.Sprintf("<t:%d:f>", start.Unix()),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: e.ID,
		},
	}
	if e.Duration > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "End",
			Value:  fmt.Sprintf("<t:%d:t>", start.Add(time.Duration(e.Duration)*time.Minute).Unix()),
			Inline: true,
		})
	}
	if e.Client != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Client",
			Value: e.Client,
		})
	}
	if e.Type != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Type",
			Value: e.Type,
		})
	}
	return embed
}

// EventsPendingNotification returns events dated within [from, to] that
// haven't been announced yet, across all users.
func EventsPendingNotification(ctx context.Context, db bun.IDB, from, to calendar.Date) ([]Event, error) {
	eventModels := make([]Event, 0)
	if err := db.NewSelect().
		Model(&eventModels).
		Where("date >= ?", from.String()).
		Where("date <= ?", to.String()).
		Where("notification_sent = ?", false).
		Order("date ASC", "created_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("EventsPendingNotification: %w", err)
	}
	return eventModels, nil
}

func MarkNotificationSent(ctx context.Context, db bun.IDB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := db.NewUpdate().
		Model((*Event)(nil)).
		Set("notification_sent = ?", true).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx); err != nil {
		return fmt.Errorf("MarkNotificationSent: %w", err)
	}
	return nil
}
