package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"advisordesk/src-server/calendar"
	"advisordesk/src-server/model"
	"advisordesk/src-server/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
)

// discord rejects messages with more embeds than this
const maxEmbedsPerMessage = 10

// Notifier delivers one batch of reminders.
type Notifier interface {
	Notify(ctx context.Context, embeds []*discordgo.MessageEmbed) error
}

type DiscordWebhook struct {
	session *discordgo.Session
	id      string
	token   string
}

func NewDiscordWebhook(id, token string) (*DiscordWebhook, error) {
	// webhooks need no bot token
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("NewDiscordWebhook: %w", err)
	}
	return &DiscordWebhook{session: session, id: id, token: token}, nil
}

func (d *DiscordWebhook) Notify(ctx context.Context, embeds []*discordgo.MessageEmbed) error {
	if _, err := d.session.WebhookExecute(d.id, d.token, false, &discordgo.WebhookParams{
		Content: "Upcoming appointments",
		Embeds:  embeds,
	}, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("(*DiscordWebhook).Notify: %w", err)
	}
	return nil
}

// EventNotifier announces events starting within the lead time, once each.
type EventNotifier struct {
	db       bun.IDB
	loc      *time.Location
	lead     time.Duration
	notifier Notifier
	now      func() time.Time
}

func NewEventNotifier(db bun.IDB, loc *time.Location, lead time.Duration, notifier Notifier) *EventNotifier {
	return &EventNotifier{db: db, loc: loc, lead: lead, notifier: notifier, now: time.Now}
}

// WithClock replaces time.Now, for tests.
func (n *EventNotifier) WithClock(now func() time.Time) *EventNotifier {
	n.now = now
	return n
}

// Run sends reminders for events starting in (now, now+lead] and returns
// how many were sent.
func (n *EventNotifier) Run(ctx context.Context) (int, error) {
	now := n.now().In(n.loc)
	horizon := now.Add(n.lead)

	eventModels, err := model.EventsPendingNotification(ctx, n.db, calendar.DateOf(now), calendar.DateOf(horizon))
	if err != nil {
		return 0, fmt.Errorf("(*EventNotifier).Run: %w", err)
	}

	embeds := make([]*discordgo.MessageEmbed, 0)
	ids := make([]string, 0)
	for i := range eventModels {
		start, ok := eventModels[i].StartsAt(n.loc)
		if !ok || !start.After(now) || start.After(horizon) {
			continue
		}
		embeds = append(embeds, eventModels[i].ToDiscordEmbed(start))
		ids = append(ids, eventModels[i].ID)
	}

	sent := 0
	for start := 0; start < len(embeds); start += maxEmbedsPerMessage {
		end := min(start+maxEmbedsPerMessage, len(embeds))
		if err := n.notifier.Notify(ctx, embeds[start:end]); err != nil {
			return sent, fmt.Errorf("(*EventNotifier).Run: %w", err)
		}
		if err := model.MarkNotificationSent(ctx, n.db, ids[start:end]); err != nil {
			return sent, fmt.Errorf("(*EventNotifier).Run: %w", err)
		}
		sent += end - start
	}
	return sent, nil
}

// EventNotify schedules reminders on REMINDER_CRON until shutdown. It does
// nothing when no webhook is configured.
func EventNotify(as *utils.AppState) {
	if !as.Config.RemindersEnabled() {
		slog.Info("discord webhook not configured, reminders disabled")
		return
	}
	webhook, err := NewDiscordWebhook(as.Config.GetDiscordWebhookID(), as.Config.GetDiscordWebhookToken())
	if err != nil {
		slog.Error("can't create discord webhook", "error", err)
		return
	}
	notifier := NewEventNotifier(as.BunDB, as.Config.GetLocation(), as.Config.GetReminderLead(), webhook)

	c := cron.New(cron.WithLocation(as.Config.GetLocation()))
	if _, err := c.AddFunc(as.Config.GetReminderCron(), func() {
		sent, err := notifier.Run(context.Background())
		if err != nil {
			slog.Error("EventNotify: can't send reminders", "error", err)
		}
		if sent > 0 {
			slog.Info("EventNotify: reminders sent", "count", sent)
		}
	}); err != nil {
		slog.Error("invalid REMINDER_CRON", "spec", as.Config.GetReminderCron(), "error", err)
		return
	}
	c.Start()
	slog.Debug("reminders scheduled", "cron", as.Config.GetReminderCron())

	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		<-*gracefulShutdownCh
		<-c.Stop().Done()
		slog.Debug("reminder scheduler stopped")
	}()
}
