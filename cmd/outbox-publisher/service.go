package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/comandapos/comanda-backend/pkg/config"
	"github.com/comandapos/comanda-backend/pkg/db/models"
	"github.com/comandapos/comanda-backend/pkg/logger"
	"github.com/comandapos/comanda-backend/pkg/metrics"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 250
	defaultMaxAttempts = 5
	maxBackoff         = 10 * time.Second
	jitterWindow       = 100 * time.Millisecond
	publishRetries     = 2
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type pinger interface {
	Ping(context.Context) error
}

type outboxRepository interface {
	FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
	CountPending() (int64, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         pinger
	Redis      pinger
	Repository outboxRepository
	Publisher  eventPublisher
	Metrics    *metrics.OutboxMetrics
}

// Service drains unpublished outbox rows into the realtime event channel.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           pinger
	redis        pinger
	repo         outboxRepository
	publisher    eventPublisher
	metrics      *metrics.OutboxMetrics
	channel      string
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		redis:        params.Redis,
		repo:         params.Repository,
		publisher:    params.Publisher,
		metrics:      params.Metrics,
		channel:      params.Config.Realtime.Channel,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db); err != nil {
		return err
	}
	return pingDependency(ctx, s.logg, "redis", s.redis)
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, p pinger) error {
	if p == nil {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(s.batchSize, s.maxAttempts)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		s.reportPending(ctx)
		return false, nil
	}

	for _, event := range events {
		s.publishOne(ctx, event)
	}

	s.reportPending(ctx)
	return true, nil
}

func (s *Service) publishOne(ctx context.Context, event models.OutboxEvent) {
	eventCtx := s.logg.WithFields(ctx, map[string]any{
		"event_id":      event.ID.String(),
		"event_type":    string(event.EventType),
		"attempt_count": event.AttemptCount + 1,
	})

	start := time.Now()
	err := retry.Do(ctx, retry.WithMaxRetries(publishRetries, retry.NewExponential(50*time.Millisecond)), func(ctx context.Context) error {
		if err := s.publisher.Publish(ctx, s.channel, []byte(event.Payload)); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	s.metrics.ObservePublishDuration(time.Since(start))

	if err != nil {
		s.metrics.IncFailed(string(event.EventType))
		s.logg.Error(eventCtx, "outbox publish failed", err)
		if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
			s.logg.Error(eventCtx, "outbox mark failed errored", markErr)
		}
		return
	}

	if err := s.repo.MarkPublished(event.ID); err != nil {
		// The event stays unpublished and will be retried; the envelope's
		// event_id lets consumers deduplicate the replay.
		s.logg.Error(eventCtx, "outbox mark published errored", err)
		return
	}

	s.metrics.IncPublished(string(event.EventType))
	s.logg.Info(eventCtx, "outbox event published")
}

func (s *Service) reportPending(ctx context.Context) {
	pending, err := s.repo.CountPending()
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "outbox pending count failed")
		return
	}
	s.metrics.SetPending(pending)
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, floor, ceil time.Duration) time.Duration {
	next := current * 2
	if next < floor {
		next = floor
	}
	if next > ceil {
		next = ceil
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
