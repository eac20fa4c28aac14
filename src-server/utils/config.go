package utils

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"advisordesk/src-server/calendar"
)

type Config struct {
	port string

	jwtSecret string
	jwtExpire time.Duration

	location           *time.Location
	databasePath       string
	defaultGranularity calendar.Granularity
	seedFile           string

	frontendURL        string
	staticWebClientDir string
	rateLimitRequests  int
	rateLimitWindow    time.Duration

	discordWebhookID    string
	discordWebhookToken string
	reminderCron        string
	reminderLead        time.Duration

	metricCollectionInterval time.Duration
}

// DefaultConfig returns the defaults without reading the environment.
func DefaultConfig() *Config {
	return &Config{
		port:                     "8080",
		jwtSecret:                "secret",
		jwtExpire:                24 * time.Hour,
		location:                 time.Local,
		databasePath:             "./sqlite.db",
		defaultGranularity:       calendar.Week,
		frontendURL:              "http://localhost:3000",
		rateLimitRequests:        100,
		rateLimitWindow:          15 * time.Minute,
		reminderCron:             "* * * * *",
		reminderLead:             15 * time.Minute,
		metricCollectionInterval: 15 * time.Second,
	}
}

func NewConfig() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		jwtSecret: func() string {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				slog.Warn("JWT_SECRET is not set")
				secret = "secret"
			}
			return secret
		}(),
		jwtExpire: func() time.Duration {
			jwtExpire := os.Getenv("JWT_EXPIRE")
			if jwtExpire == "" {
				jwtExpire = "24h"
			}
			duration, err := time.ParseDuration(jwtExpire)
			if err != nil {
				slog.Error("invalid JWT_EXPIRE", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "JWT_EXPIRE", jwtExpire, "duration", duration)
			return duration
		}(),

		location: func() *time.Location {
			timezoneStr := os.Getenv("TIMEZONE")
			var loc *time.Location
			var err error
			switch timezoneStr {
			case "":
				slog.Warn("TIMEZONE is not set, using local timezone", "timezone", time.Local)
				loc = time.Local
			case "UTC":
				loc = time.UTC
			default:
				loc, err = time.LoadLocation(timezoneStr)
				if err != nil {
					slog.Error("invalid timezone", "timezone", timezoneStr, "error", err)
					os.Exit(1)
				}
			}
			slog.Debug("env", "TIMEZONE", timezoneStr)
			return loc
		}(),
		databasePath: func() string {
			databasePath := os.Getenv("DATABASE_PATH")
			if databasePath == "" {
				databasePath = "./sqlite.db"
			}
			slog.Debug("env", "DATABASE_PATH", databasePath)
			return databasePath
		}(),
		defaultGranularity: func() calendar.Granularity {
			granularityStr := os.Getenv("DEFAULT_GRANULARITY")
			if granularityStr == "" {
				return calendar.Week
			}
			g, err := calendar.ParseGranularity(granularityStr)
			if err != nil {
				slog.Error("invalid DEFAULT_GRANULARITY", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "DEFAULT_GRANULARITY", g)
			return g
		}(),
		seedFile: func() string {
			seedFile := os.Getenv("SEED_FILE")
			if seedFile == "" {
				return ""
			}
			if _, err := os.Stat(seedFile); err != nil {
				slog.Error("can't get info of SEED_FILE", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "SEED_FILE", seedFile)
			return seedFile
		}(),

		frontendURL: func() string {
			frontendURL := os.Getenv("FRONTEND_URL")
			if frontendURL == "" {
				frontendURL = "http://localhost:3000"
			}
			slog.Debug("env", "FRONTEND_URL", frontendURL)
			return frontendURL
		}(),
		staticWebClientDir: func() string {
			staticWebClientDir := os.Getenv("STATIC_WEB_CLIENT_DIR")
			if staticWebClientDir == "" {
				slog.Info("STATIC_WEB_CLIENT_DIR is not set, web client won't be served")
				return ""
			}
			info, err := os.Stat(staticWebClientDir)
			if err != nil {
				slog.Error("can't get info of STATIC_WEB_CLIENT_DIR", "error", err)
				os.Exit(1)
			}
			if !info.IsDir() {
				slog.Error("STATIC_WEB_CLIENT_DIR is not a directory", "dir", staticWebClientDir)
				os.Exit(1)
			}

			slog.Debug("env", "STATIC_WEB_CLIENT_DIR", staticWebClientDir)
			return filepath.Clean(staticWebClientDir)
		}(),
		rateLimitRequests: func() int {
			requestsStr := os.Getenv("RATE_LIMIT_REQUESTS")
			if requestsStr == "" {
				requestsStr = "100"
			}
			requests, err := strconv.Atoi(requestsStr)
			if err != nil || requests < 0 {
				slog.Error("invalid RATE_LIMIT_REQUESTS", "value", requestsStr, "error", err)
				os.Exit(1)
			}
			if requests == 0 {
				slog.Info("RATE_LIMIT_REQUESTS is 0, rate limiting disabled")
			}
			slog.Debug("env", "RATE_LIMIT_REQUESTS", requests)
			return requests
		}(),
		rateLimitWindow: func() time.Duration {
			window := os.Getenv("RATE_LIMIT_WINDOW")
			if window == "" {
				window = "15m"
			}
			duration, err := time.ParseDuration(window)
			if err != nil || duration <= 0 {
				slog.Error("invalid RATE_LIMIT_WINDOW", "value", window, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "RATE_LIMIT_WINDOW", duration)
			return duration
		}(),

		discordWebhookID: func() string {
			discordWebhookID := os.Getenv("DISCORD_WEBHOOK_ID")
			slog.Debug("env", "DISCORD_WEBHOOK_ID", discordWebhookID)
			return discordWebhookID
		}(),
		discordWebhookToken: func() string {
			discordWebhookToken := os.Getenv("DISCORD_WEBHOOK_TOKEN")
			if len(discordWebhookToken) > 3 {
				slog.Debug("env", "DISCORD_WEBHOOK_TOKEN", discordWebhookToken[0:3]+"...")
			}
			return discordWebhookToken
		}(),
		reminderCron: func() string {
			reminderCron := os.Getenv("REMINDER_CRON")
			if reminderCron == "" {
				reminderCron = "* * * * *"
			}
			slog.Debug("env", "REMINDER_CRON", reminderCron)
			return reminderCron
		}(),
		reminderLead: func() time.Duration {
			reminderLead := os.Getenv("REMINDER_LEAD")
			if reminderLead == "" {
				reminderLead = "15m"
			}
			duration, err := time.ParseDuration(reminderLead)
			if err != nil || duration <= 0 {
				slog.Error("invalid REMINDER_LEAD", "value", reminderLead, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "REMINDER_LEAD", duration)
			return duration
		}(),

		metricCollectionInterval: func() time.Duration {
			interval := os.Getenv("METRIC_COLLECTION_INTERVAL")
			if interval == "" {
				interval = "15s"
			}
			duration, err := time.ParseDuration(interval)
			if err != nil || duration <= 0 {
				slog.Error("invalid METRIC_COLLECTION_INTERVAL", "value", interval, "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "METRIC_COLLECTION_INTERVAL", duration)
			return duration
		}(),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get JWT_SECRET env
func (c *Config) GetJWTSecret() string {
	return c.jwtSecret
}

// Get JWT_EXPIRE env
func (c *Config) GetJWTExpire() time.Duration {
	return c.jwtExpire
}

// Get TIMEZONE env
func (c *Config) GetLocation() *time.Location {
	return c.location
}

// Get DATABASE_PATH env
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get DEFAULT_GRANULARITY env
func (c *Config) GetDefaultGranularity() calendar.Granularity {
	return c.defaultGranularity
}

// Get SEED_FILE env
func (c *Config) GetSeedFile() string {
	return c.seedFile
}

// Get FRONTEND_URL env
func (c *Config) GetFrontendURL() string {
	return c.frontendURL
}

// Get STATIC_WEB_CLIENT_DIR env, empty when unset
func (c *Config) GetStaticWebClientDir() string {
	return c.staticWebClientDir
}

// Get RATE_LIMIT_REQUESTS env, 0 disables limiting
func (c *Config) GetRateLimitRequests() int {
	return c.rateLimitRequests
}

// Get RATE_LIMIT_WINDOW env
func (c *Config) GetRateLimitWindow() time.Duration {
	return c.rateLimitWindow
}

// Get DISCORD_WEBHOOK_ID env
func (c *Config) GetDiscordWebhookID() string {
	return c.discordWebhookID
}

// Get DISCORD_WEBHOOK_TOKEN env
func (c *Config) GetDiscordWebhookToken() string {
	return c.discordWebhookToken
}

// Reminders are off unless both webhook variables are set.
func (c *Config) RemindersEnabled() bool {
	return c.discordWebhookID != "" && c.discordWebhookToken != ""
}

// Get REMINDER_CRON env
func (c *Config) GetReminderCron() string {
	return c.reminderCron
}

// Get REMINDER_LEAD env
func (c *Config) GetReminderLead() time.Duration {
	return c.reminderLead
}

// Get METRIC_COLLECTION_INTERVAL env
func (c *Config) GetMetricCollectionInterval() time.Duration {
	return c.metricCollectionInterval
}

// Today is the current date in TIMEZONE.
func (c *Config) Today() calendar.Date {
	return calendar.Today(c.location)
}

// Setters for tests and the seed-less dev setup.

func (c *Config) SetJWTSecret(secret string) *Config {
	c.jwtSecret = secret
	return c
}

func (c *Config) SetLocation(loc *time.Location) *Config {
	c.location = loc
	return c
}

func (c *Config) SetDiscordWebhook(id, token string) *Config {
	c.discordWebhookID = id
	c.discordWebhookToken = token
	return c
}

func (c *Config) SetRateLimit(requests int, window time.Duration) *Config {
	c.rateLimitRequests = requests
	c.rateLimitWindow = window
	return c
}
