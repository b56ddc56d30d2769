package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"nmapgraph/internal/adapter"
	"nmapgraph/internal/codec"
	"nmapgraph/internal/convert"
	"nmapgraph/internal/delivery"
)

// Config holds the settings of an IngestService
type Config struct {
	Convert convert.Options
	// DryRun writes entities to Output instead of delivering them
	DryRun   bool
	Exporter codec.Exporter
	Output   io.Writer
}

// IngestService converts scans and delivers the resulting entities
type IngestService struct {
	cfg       Config
	publisher *delivery.Publisher
	logger    zerolog.Logger
}

// IngestResult is the outcome of one ingest run. Delivery is nil on a dry run.
type IngestResult struct {
	Report   *convert.Report
	Delivery *delivery.Result
}

// NewIngestService creates a new ingest service. publisher may be nil when
// cfg.DryRun is set.
func NewIngestService(cfg Config, publisher *delivery.Publisher, logger zerolog.Logger) *IngestService {
	if cfg.Exporter == nil {
		cfg.Exporter = codec.NewJSONCodec()
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	return &IngestService{
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
	}
}

// Run reads one document from src, converts it and hands the entities on.
// Host-level problems are reported in the result, not as an error.
func (s *IngestService) Run(ctx context.Context, src adapter.Source) (*IngestResult, error) {
	doc, err := src.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("read scan from %s: %w", src.Name(), err)
	}

	report := convert.ToHostEntities(doc, s.cfg.Convert)
	s.logger.Info().
		Str("source", src.Name()).
		Str("args", report.Summary.Args).
		Int("hosts_up", report.Summary.HostsUp).
		Int("hosts_total", report.Summary.HostsTotal).
		Int("entities", len(report.Entities)).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failures)).
		Msg("Converted scan")

	result := &IngestResult{Report: report}

	if s.cfg.DryRun {
		if err := s.cfg.Exporter.Export(report.Entities, s.cfg.Output); err != nil {
			return result, fmt.Errorf("export entities: %w", err)
		}
		return result, nil
	}

	if s.publisher == nil {
		return result, fmt.Errorf("no entity store configured")
	}
	result.Delivery, err = s.publisher.Deliver(ctx, report.Entities)
	return result, err
}
