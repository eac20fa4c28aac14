package metric

import (
	"errors"
	"log/slog"
	"time"

	"advisordesk/src-server/calendar"
	"advisordesk/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	calendarTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisordesk_calendar_transitions_total",
		Help: "Event lifecycle transitions, by transition and outcome",
	}, []string{"transition", "outcome"})

	storeLatency = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "advisordesk_store_latency_microsec",
		Help: "The latency of the last event store call in microseconds, by operation",
	}, []string{"op"})
)

// Outcome buckets err the way the HTTP layer reports it.
func Outcome(err error) string {
	var verr *calendar.ValidationError
	var cerr *calendar.CollaboratorError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, calendar.ErrNotFound):
		return "not_found"
	case errors.Is(err, calendar.ErrInvalidTransition):
		return "rejected"
	case errors.As(err, &cerr):
		return "collaborator_error"
	default:
		return "error"
	}
}

// ObserveTransition fits calendar.WithObserver.
func ObserveTransition(transition string, err error) {
	calendarTransitions.WithLabelValues(transition, Outcome(err)).Inc()
}

// ObserveStore fits model.NewEventStore.
func ObserveStore(op string, latency time.Duration) {
	storeLatency.WithLabelValues(op).Set(float64(latency.Microseconds()))
}

func databaseEmptyRead(as *utils.AppState, tickerInterval time.Duration) {
	databaseEmptyRead := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "advisordesk_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register advisordesk_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("advisordesk_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("advisordesk_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("advisordesk_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				latency, err := database(as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

func Init(as *utils.AppState) {
	databaseEmptyRead(as, as.Config.GetMetricCollectionInterval())
}
