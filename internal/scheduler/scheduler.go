package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"flight_bot/internal/bot"
	"flight_bot/internal/metrics"
	"flight_bot/internal/model"
	"flight_bot/internal/subscription"
)

// FlightProvider fetches the current state of a flight.
type FlightProvider interface {
	FetchFlight(ctx context.Context, code string) (*model.Flight, error)
}

// Notifier delivers a text message to a user address.
type Notifier interface {
	Notify(ctx context.Context, address, text string) error
}

// Scheduler periodically re-checks tracked flights and notifies users of
// gate and status changes.
type Scheduler struct {
	registry    *subscription.Registry
	provider    FlightProvider
	notifier    Notifier
	metrics     *metrics.Metrics
	log         *slog.Logger
	tick        time.Duration
	concurrency int
	callTimeout time.Duration
}

// New creates a Scheduler with a 3-minute interval.
func New(registry *subscription.Registry, provider FlightProvider, notifier Notifier, log *slog.Logger) *Scheduler {
	return &Scheduler{
		registry:    registry,
		provider:    provider,
		notifier:    notifier,
		log:         log,
		tick:        3 * time.Minute,
		concurrency: 4,
		callTimeout: 10 * time.Second,
	}
}

// SetTickInterval overrides the default 3-minute check interval.
// Intervals below one second are rounded up to one second.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetConcurrency bounds how many provider calls a cycle runs at once.
func (s *Scheduler) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	s.concurrency = n
}

// SetCallTimeout bounds each provider and transport call.
func (s *Scheduler) SetCallTimeout(d time.Duration) {
	s.callTimeout = d
}

// SetMetrics attaches collectors; nil disables metrics.
func (s *Scheduler) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Run checks all subscriptions immediately and then on every tick,
// blocking until ctx is cancelled. A cycle still running when the next
// tick fires causes that tick to be skipped.
func (s *Scheduler) Run(ctx context.Context) {
	s.CheckAll(ctx)

	logger := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(cron.Every(s.tick), cron.FuncJob(func() { s.CheckAll(ctx) }))
	c.Start()

	s.log.Info("detection scheduler started", "interval", s.tick)
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("detection scheduler stopped")
}

// CheckAll runs one detection cycle over a snapshot of the registry.
func (s *Scheduler) CheckAll(ctx context.Context) {
	subs := s.registry.Snapshot()
	if len(subs) == 0 {
		return
	}

	start := time.Now()
	log := s.log.With("cycle", uuid.NewString())
	log.Debug("detection cycle started", "subscriptions", len(subs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, sub := range subs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s.check(ctx, log, sub)
			return nil
		})
	}
	_ = g.Wait()

	s.metrics.ObserveCycle(time.Since(start))
	log.Debug("detection cycle finished", "duration", time.Since(start))
}

func (s *Scheduler) check(ctx context.Context, log *slog.Logger, sub model.Subscription) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	flight, err := s.provider.FetchFlight(callCtx, sub.FlightCode)
	cancel()
	if err != nil {
		log.Warn("fetch flight", "user", sub.UserAddress, "flight", sub.FlightCode, "error", err)
		s.metrics.ProviderError("fetch_flight")
		return
	}

	change, ok := s.registry.Observe(sub.UserAddress, sub.FlightCode, flight.Gate(), flight.Status)
	if !ok {
		log.Debug("subscription changed during fetch, result discarded", "user", sub.UserAddress, "flight", sub.FlightCode)
		return
	}

	if change.GateChanged {
		log.Info("gate change", "user", sub.UserAddress, "flight", sub.FlightCode, "from", change.OldGate, "to", change.NewGate)
		s.notify(ctx, log, sub.UserAddress, metrics.KindGate, bot.FormatGateAlert(change))
	}
	if change.StatusChanged {
		log.Info("status change", "user", sub.UserAddress, "flight", sub.FlightCode, "from", change.OldStatus, "to", change.NewStatus)
		s.notify(ctx, log, sub.UserAddress, metrics.KindStatus, bot.FormatStatusAlert(change))
	}
}

// notify delivers text once. Failures are logged and not retried; the
// registry already holds the new value.
func (s *Scheduler) notify(ctx context.Context, log *slog.Logger, address, kind, text string) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	err := s.notifier.Notify(callCtx, address, text)
	s.metrics.Notified(kind, err)
	if err != nil {
		log.Error("send notification", "user", address, "kind", kind, "error", err)
	}
}

// cronLogger routes robfig/cron logging through slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
