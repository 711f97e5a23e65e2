// Package pipeline runs one fetch → clean → summarize → export pass for a
// configured site.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"usgs-water-summary/config"
	"usgs-water-summary/metrics"
	"usgs-water-summary/models"
	"usgs-water-summary/scraper/nwis"
	"usgs-water-summary/services"
	"usgs-water-summary/storage"
	"usgs-water-summary/utils"
)

// Fetcher returns the raw RDB body for one site and parameter.
type Fetcher interface {
	Fetch(ctx context.Context, siteID, parameterCode string, windowDays int) (string, error)
}

// Result describes how a run ended when it did not fail.
type Result struct {
	RunID   string
	Outcome services.Outcome
	Reason  string
	Series  *models.Series
	Summary *models.Summary
}

// Pipeline wires the stages of a run together.
type Pipeline struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher Fetcher
	cleaner *services.Cleaner
	summary *services.SummaryService
	csv     storage.SeriesWriter
	json    storage.SummaryWriter
	archive storage.ReadingArchive
	metrics *metrics.Recorder
	report  io.Writer
	now     func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithFetcher replaces the NWIS client.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithArchive stores every successful run's readings in a.
func WithArchive(a storage.ReadingArchive) Option {
	return func(p *Pipeline) { p.archive = a }
}

// WithMetrics records run figures in m and writes them to the configured textfile.
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithReport sends the console report to w instead of stdout.
func WithReport(w io.Writer) Option {
	return func(p *Pipeline) { p.report = w }
}

// New builds a Pipeline for cfg. Output paths come from cfg.
func New(cfg *config.Config, logger *utils.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		logger:  logger,
		fetcher: nwis.New(cfg, logger),
		cleaner: services.NewCleaner(cfg.ParameterCode, logger),
		summary: services.NewSummaryService(logger),
		csv:     storage.NewCSVWriter(cfg.CSVOutputPath),
		json:    storage.NewJSONWriter(cfg.JSONOutputPath),
		report:  os.Stdout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one pass. A nil error with OutcomeEmpty means the response
// held no usable readings and nothing was written. Any error means the
// outputs were not (fully) written.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := p.now()
	res := Result{RunID: uuid.NewString()}
	log := p.logger.WithField("run_id", res.RunID)

	log.Info("[pipeline] Run started — site: %s | param: %s | window: P%dD",
		p.cfg.SiteID, p.cfg.ParameterCode, p.cfg.WindowDays)

	raw, err := p.fetcher.Fetch(ctx, p.cfg.SiteID, p.cfg.ParameterCode, p.cfg.WindowDays)
	if err != nil {
		p.observeFailure(log, start)
		return res, fmt.Errorf("fetch: %w", err)
	}

	cleaned := p.cleaner.Clean(raw)
	res.Outcome = cleaned.Outcome
	if cleaned.Outcome == services.OutcomeEmpty {
		res.Reason = cleaned.Reason
		log.Warn("[pipeline] No usable data, skipping export: %s", cleaned.Reason)
		if p.metrics != nil {
			p.metrics.ObserveEmpty(p.now().Sub(start))
			p.flushMetrics(log)
		}
		return res, nil
	}
	res.Series = cleaned.Series

	sum := p.summary.Generate(cleaned.Series)
	res.Summary = &sum

	if err := p.csv.Write(cleaned.Series); err != nil {
		p.observeFailure(log, start)
		return res, fmt.Errorf("export series: %w", err)
	}
	log.Info("[pipeline] Successfully saved sanitized data to %s", p.cfg.CSVOutputPath)

	if err := p.json.Write(services.Document(sum)); err != nil {
		p.observeFailure(log, start)
		return res, fmt.Errorf("export summary: %w", err)
	}
	log.Info("[pipeline] Successfully saved summary to %s", p.cfg.JSONOutputPath)

	if p.archive != nil {
		batch := storage.Batch{
			RunID:         res.RunID,
			SiteID:        p.cfg.SiteID,
			ParameterCode: p.cfg.ParameterCode,
			Readings:      cleaned.Series.Readings,
		}
		if err := p.archive.Save(ctx, batch); err != nil {
			log.Warn("[pipeline] Archive write failed: %v", err)
		} else {
			log.Info("[pipeline] Archived %d readings", len(batch.Readings))
		}
	}

	p.summary.Print(p.report, p.cfg.SiteLabel, p.cfg.SiteID, sum)

	if p.metrics != nil {
		end := p.now()
		p.metrics.ObserveSuccess(sum.Count, sum.Min, sum.Max, sum.Avg, sum.Latest.Discharge, end.Sub(start), end)
		p.flushMetrics(log)
	}

	return res, nil
}

func (p *Pipeline) observeFailure(log *utils.Logger, start time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveFailure(p.now().Sub(start))
	p.flushMetrics(log)
}

func (p *Pipeline) flushMetrics(log *utils.Logger) {
	if p.cfg.MetricsTextfile == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.cfg.MetricsTextfile); err != nil {
		log.Warn("[pipeline] Metrics textfile write failed: %v", err)
	}
}

// Execute runs p once and is the single place hard errors end up: a failure
// is printed to w as "FAILURE: <detail>". It reports whether the run failed.
func Execute(ctx context.Context, p *Pipeline, w io.Writer) bool {
	if _, err := p.Run(ctx); err != nil {
		fmt.Fprintf(w, "FAILURE: %v\n", err)
		return true
	}
	return false
}
