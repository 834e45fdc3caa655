package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dsdroute/dsdroute-backend/pkg/config"
	"github.com/dsdroute/dsdroute-backend/pkg/db/models"
	"github.com/dsdroute/dsdroute-backend/pkg/enums"
	"github.com/dsdroute/dsdroute-backend/pkg/logger"
	"github.com/dsdroute/dsdroute-backend/pkg/metrics"
	"github.com/dsdroute/dsdroute-backend/pkg/outbox"
)

const (
	workerName   = "notifier"
	maxBackoff   = 10 * time.Second
	jitterWindow = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type outboxRepository interface {
	FetchUnpublished(limit int, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// fanoutMessage mirrors the outbox payload staged by the notify service.
type fanoutMessage struct {
	Event      enums.NotificationEvent `json:"event"`
	Recipients []uuid.UUID             `json:"recipients"`
	ToAdmins   bool                    `json:"toAdmins"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	Link       *string                 `json:"link,omitempty"`
	Data       any                     `json:"data,omitempty"`
}

// wireMessage is what subscribers receive on each channel.
type wireMessage struct {
	Event      enums.NotificationEvent `json:"event"`
	EventID    string                  `json:"eventId"`
	OccurredAt time.Time               `json:"occurredAt"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	Link       *string                 `json:"link,omitempty"`
	Data       any                     `json:"data,omitempty"`
}

// Service drains the outbox and relays notification events onto redis
// pub/sub channels. Events that keep failing stop being picked up once they
// exhaust the configured attempts.
type Service struct {
	cfg     config.NotifierConfig
	logg    *logger.Logger
	repo    outboxRepository
	pub     channelPublisher
	metrics *metrics.WorkerMetrics
}

// NewService wires the worker.
func NewService(cfg config.NotifierConfig, logg *logger.Logger, repo outboxRepository, pub channelPublisher, workerMetrics *metrics.WorkerMetrics) (*Service, error) {
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if repo == nil {
		return nil, errors.New("outbox repository is required")
	}
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	return &Service{
		cfg:     cfg,
		logg:    logg,
		repo:    repo,
		pub:     pub,
		metrics: workerMetrics,
	}, nil
}

// Run polls until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	interval := s.cfg.PollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "notifier worker context canceled")
			return ctx.Err()
		default:
		}

		start := time.Now()
		processed, err := s.processBatch(ctx)
		if s.metrics != nil {
			s.metrics.ObserveDuration(workerName, time.Since(start))
		}
		if err != nil {
			s.logg.Error(ctx, "notifier batch error", err)
			if s.metrics != nil {
				s.metrics.IncFailure(workerName)
			}
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		if s.metrics != nil {
			s.metrics.IncSuccess(workerName)
		}

		if processed {
			continue
		}
		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(s.cfg.BatchSize, s.cfg.MaxAttempts)
	if err != nil {
		return false, fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		fields := map[string]any{
			"outbox_id":     event.ID.String(),
			"event_type":    event.EventType,
			"aggregate_id":  event.AggregateID.String(),
			"attempt_count": event.AttemptCount,
		}

		if err := s.relay(ctx, event); err != nil {
			logCtx := s.logg.WithFields(ctx, fields)
			logCtx = s.logg.WithField(logCtx, "error", err.Error())
			s.logg.Warn(logCtx, "notifier publish failed")
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				return true, fmt.Errorf("mark failed %s: %w", event.ID, markErr)
			}
			continue
		}

		if markErr := s.repo.MarkPublished(event.ID); markErr != nil {
			return true, fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "notification event relayed")
	}
	return true, nil
}

// relay fans one outbox event out to its pub/sub channels. Partial failures
// are collected so every reachable channel still gets the message.
func (s *Service) relay(ctx context.Context, event models.OutboxEvent) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	var fanout fanoutMessage
	if err := json.Unmarshal(envelope.Data, &fanout); err != nil {
		return fmt.Errorf("decode fanout payload: %w", err)
	}

	wire := wireMessage{
		Event:      fanout.Event,
		EventID:    envelope.EventID,
		OccurredAt: envelope.OccurredAt,
		Title:      fanout.Title,
		Message:    fanout.Message,
		Link:       fanout.Link,
		Data:       fanout.Data,
	}

	publishCtx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()

	var errs error
	for _, channel := range s.channels(fanout) {
		if err := s.pub.Publish(publishCtx, channel, wire); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("publish %s: %w", channel, err))
		}
	}
	return errs
}

func (s *Service) channels(fanout fanoutMessage) []string {
	channels := make([]string, 0, len(fanout.Recipients)+1)
	for _, id := range fanout.Recipients {
		channels = append(channels, fmt.Sprintf("%s:user:%s", s.cfg.ChannelPrefix, id))
	}
	if fanout.ToAdmins {
		channels = append(channels, s.cfg.ChannelPrefix+":admins")
	}
	return channels
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
