package utils

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"advisordesk/src-server/calendar"
	"advisordesk/src-server/model"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config *Config
	RawDB  *sql.DB
	BunDB  *bun.DB

	// natural-language anchor jumps, e.g. "next friday"
	AnchorParser *calendar.AnchorParser
	// events every newly registered user starts with
	Seed *model.Seed

	// receives SIGINT/SIGTERM; also written to when the HTTP server dies
	AppCloseSignalChan chan os.Signal

	shutdownMu    sync.Mutex
	shutdownChans []*chan struct{}
}

func NewAppState() *AppState {
	config := NewConfig()

	rawDB, err := sql.Open(sqliteshim.ShimName, config.GetDatabasePath()+"?mode=rwc")
	if err != nil {
		slog.Error("cannot open sqlite database", "error", err)
		os.Exit(1)
	}
	rawDB.SetMaxIdleConns(8)

	as, err := NewAppStateFrom(config, rawDB)
	if err != nil {
		slog.Error("cannot init app state", "error", err)
		os.Exit(1)
	}
	return as
}

// NewAppStateFrom wires an AppState around an already opened database.
func NewAppStateFrom(config *Config, rawDB *sql.DB) (*AppState, error) {
	as := &AppState{
		Config:             config,
		RawDB:              rawDB,
		AnchorParser:       calendar.NewAnchorParser(),
		AppCloseSignalChan: make(chan os.Signal, 1),
	}

	as.BunDB = bun.NewDB(rawDB, sqlitedialect.New())
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))

	seed, err := model.LoadSeed(config.GetSeedFile())
	if err != nil {
		return nil, fmt.Errorf("NewAppStateFrom: %w", err)
	}
	as.Seed = seed
	slog.Debug("seed loaded", "events", len(seed.Events))

	return as, nil
}

// CreateGracefulShutdownChan hands out a channel that is closed by
// GracefulShutdown. Long-running goroutines select on it.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	as.shutdownMu.Lock()
	defer as.shutdownMu.Unlock()
	ch := make(chan struct{})
	as.shutdownChans = append(as.shutdownChans, &ch)
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.shutdownMu.Lock()
	for _, ch := range as.shutdownChans {
		close(*ch)
	}
	as.shutdownChans = nil
	as.shutdownMu.Unlock()

	if err := as.BunDB.Close(); err != nil {
		slog.Warn("can't close database", "error", err)
	}
}
