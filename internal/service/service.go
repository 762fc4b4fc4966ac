package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trumpwatch/internal/aggregator"
	"trumpwatch/internal/alerting"
	"trumpwatch/internal/config"
	"trumpwatch/internal/countdown"
	"trumpwatch/internal/display"
	"trumpwatch/internal/scheduler"
	"trumpwatch/internal/storage"
)

// Refresher produces one complete dashboard.
type Refresher interface {
	Refresh(ctx context.Context) aggregator.Dashboard
}

// Service orchestrates refreshing, publication, and the daily digest.
type Service struct {
	scheduler *scheduler.Scheduler
	refresher Refresher
	store     storage.SnapshotStore
	digests   storage.DigestStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	term     countdown.TermWindow
	digestOn bool
	now      func() time.Time

	// cycleMu keeps scheduled and manual refreshes from overlapping.
	cycleMu sync.Mutex
}

// New constructs the refresh service.
func New(cfg *config.Config, sched *scheduler.Scheduler, refresher Refresher, store storage.SnapshotStore, digests storage.DigestStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		refresher: refresher,
		store:     store,
		digests:   digests,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		term:      cfg.Term.Window(),
		digestOn:  cfg.Digest.Enabled,
		now:       time.Now,
	}
}

// Run begins the aligned refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Refresh)
}

// Refresh 执行单个时间桶的刷新逻辑, 已有刷新在运行时跳过该时间桶。
func (s *Service) Refresh(ctx context.Context, bucket time.Time) error {
	if s.refresher == nil {
		return fmt.Errorf("refresher not configured")
	}
	if !s.cycleMu.TryLock() {
		s.logger.Debug().Time("bucket", bucket).Msg("skip bucket because a refresh is already running")
		return nil
	}
	defer s.cycleMu.Unlock()

	s.execute(ctx, bucket)
	return nil
}

// Cycle runs one refresh on demand, waiting for any running cycle first.
func (s *Service) Cycle(ctx context.Context) aggregator.Dashboard {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	return s.execute(ctx, s.now().UTC())
}

// Latest returns the last published snapshot.
func (s *Service) Latest(ctx context.Context) (storage.Snapshot, bool, error) {
	if s.store == nil {
		return storage.Snapshot{}, false, nil
	}
	return s.store.LatestSnapshot(ctx)
}

// Term is the window the service counts down.
func (s *Service) Term() countdown.TermWindow {
	return s.term
}

func (s *Service) execute(ctx context.Context, bucket time.Time) aggregator.Dashboard {
	dash := s.refresher.Refresh(ctx)
	snap := storage.Snapshot{
		Bucket:    bucket,
		Dashboard: dash,
		Countdown: s.term.Snapshot(s.now()),
	}

	if s.store != nil {
		if err := s.store.PutSnapshot(ctx, snap); err != nil {
			s.logger.Error().Err(err).Time("bucket", bucket).Msg("failed to publish snapshot")
		}
	}

	s.logger.Info().Time("bucket", bucket).
		Int("term_day", snap.Countdown.ElapsedDays).
		Int("fallbacks", len(dash.Fallbacks)).
		Dur("duration", dash.Duration).
		Msg("snapshot published")

	if s.digestOn {
		s.sendDigest(ctx, snap)
	}
	return dash
}

// sendDigest sends at most one digest per term day. A failed send is not
// recorded, so the next cycle retries.
func (s *Service) sendDigest(ctx context.Context, snap storage.Snapshot) {
	if s.notifier == nil {
		return
	}
	day := snap.Countdown.ElapsedDays

	if s.digests != nil {
		last, ok, err := s.digests.LastDigest(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to load last digest")
			return
		}
		if ok && last.TermDay == day {
			return
		}
	}

	digest := alerting.Digest{
		Bucket:    snap.Bucket,
		Countdown: snap.Countdown,
		Cards:     display.Cards(snap.Dashboard.Readings(), s.term.Start),
		Warning:   snap.Dashboard.Warning,
	}
	if err := s.notifier.Notify(ctx, digest); err != nil {
		s.logger.Error().Err(err).Int("term_day", day).Msg("failed to dispatch digest")
		return
	}

	if s.digests != nil {
		record := storage.DigestRecord{
			TermDay:  day,
			Bucket:   snap.Bucket,
			Degraded: snap.Dashboard.Degraded(),
		}
		if err := s.digests.RecordDigest(ctx, record); err != nil {
			s.logger.Error().Err(err).Int("term_day", day).Msg("failed to persist digest record")
		}
	}
}
