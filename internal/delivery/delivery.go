// Package delivery pushes converted host entities into an EntityStore at a
// throttled pace, attaching each host's raw scan data after it is created.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/repository"
)

// Config paces a delivery run
type Config struct {
	// Interval is the minimum spacing between entity deliveries. Zero
	// disables throttling.
	Interval time.Duration
	Burst    int
	// DryRun converts and reports but writes nothing to the store
	DryRun bool
}

// Publisher delivers entities to a store
type Publisher struct {
	store   repository.EntityStore
	limiter *rate.Limiter
	dryRun  bool
	events  *EventBus
	logger  zerolog.Logger
}

// Created pairs an entity key with the id the store assigned
type Created struct {
	Key string
	ID  string
}

// Result summarises one delivery run
type Result struct {
	RunID   string
	Created []Created
	Failed  int
	DryRun  bool
}

// New creates a publisher. events may be nil.
func New(store repository.EntityStore, cfg Config, events *EventBus, logger zerolog.Logger) *Publisher {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}

	return &Publisher{
		store:   store,
		limiter: rate.NewLimiter(limit, burst),
		dryRun:  cfg.DryRun,
		events:  events,
		logger:  logger,
	}
}

// Deliver sends every entity in order. A failing entity is logged and
// the run continues; all failures are joined into the returned error.
// Cancelling ctx stops the run before the next entity.
func (p *Publisher) Deliver(ctx context.Context, entities []domain.HostEntity) (*Result, error) {
	result := &Result{RunID: uuid.NewString(), DryRun: p.dryRun}
	logger := p.logger.With().Str("run_id", result.RunID).Logger()

	if p.dryRun {
		logger.Info().Int("entities", len(entities)).Msg("Dry run, not delivering entities")
		return result, nil
	}

	var errs []error
	for i := range entities {
		e := &entities[i]
		if err := p.limiter.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("delivery interrupted: %w", err))
			break
		}

		id, err := p.deliverOne(ctx, e)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("entity %s: %w", e.Key, err))
			logger.Error().Err(err).Str("entity_key", e.Key).Msg("Failed to deliver entity")
			p.events.Publish(Event{Type: EventEntityFailed, RunID: result.RunID, Key: e.Key, Err: err})
			continue
		}

		result.Created = append(result.Created, Created{Key: e.Key, ID: id})
		logger.Info().Str("entity_id", id).Str("entity_key", e.Key).Msg("Created entity")
		p.events.Publish(Event{Type: EventEntityCreated, RunID: result.RunID, EntityID: id, Key: e.Key})
	}

	logger.Info().
		Int("created", len(result.Created)).
		Int("failed", result.Failed).
		Msg("Finished delivering entities")
	p.events.Publish(Event{Type: EventDeliveryFinished, RunID: result.RunID})

	return result, errors.Join(errs...)
}

func (p *Publisher) deliverOne(ctx context.Context, e *domain.HostEntity) (string, error) {
	id, err := p.store.UpsertEntity(ctx, e)
	if err != nil {
		return "", fmt.Errorf("upsert entity: %w", err)
	}

	if len(e.RawData) > 0 {
		err := p.store.UpsertRawData(ctx, id, repository.RawDataName, repository.RawDataContentType, e.RawData)
		if err != nil {
			return id, fmt.Errorf("upsert raw data: %w", err)
		}
	}
	return id, nil
}
