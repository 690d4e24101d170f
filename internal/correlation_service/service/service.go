package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/langowen/corra/deploy/config"
	"github.com/langowen/corra/internal/correlation_service/metrics"
	"github.com/langowen/corra/internal/correlation_service/parser"
	"github.com/langowen/corra/internal/correlation_service/stats"
	"github.com/langowen/corra/internal/entities"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	client    RateFetcher
	journal   Journal
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger

	parser *parser.Parser
	calc   *stats.Calculator

	corraSeries string
	fxSeries    string
	alignment   stats.Alignment
}

type Options struct {
	Journal   Journal
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Option func(o *Options)

func WithJournal(j Journal) Option {
	return func(o *Options) {
		o.Journal = j
	}
}

func WithPublisher(p Publisher) Option {
	return func(o *Options) {
		o.Publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func NewService(client RateFetcher, cfg *config.Config, opts ...Option) (*Service, error) {
	const op = "service.NewService"

	alignment, err := stats.ParseAlignment(cfg.Correlation.Alignment)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New(nil)
	}

	return &Service{
		client:      client,
		journal:     o.Journal,
		publisher:   o.Publisher,
		metrics:     o.Metrics,
		log:         o.Logger,
		parser:      parser.New(o.Logger),
		calc:        stats.NewCalculator(o.Logger),
		corraSeries: cfg.Upstream.CorraSeriesID,
		fxSeries:    cfg.Upstream.FXSeriesID,
		alignment:   alignment,
	}, nil
}

// Analyze downloads both series for the range and computes their statistics and correlation.
// Only an invalid range or a canceled ctx produce an error; upstream and CSV
// failures leave the affected series empty.
func (s *Service) Analyze(ctx context.Context, startDate, endDate string) (*entities.CorrelationResult, error) {
	const op = "service.Analyze"

	started := time.Now()

	dr, err := ParseDateRange(startDate, endDate)
	if err != nil {
		s.metrics.Analysis(metrics.OutcomeInvalid, time.Since(started))
		return nil, errors.Wrap(err, op)
	}

	var corraBody, fxBody []byte

	var g errgroup.Group
	g.Go(func() error {
		corraBody = s.fetch(ctx, s.corraSeries, dr)
		return nil
	})
	g.Go(func() error {
		fxBody = s.fetch(ctx, s.fxSeries, dr)
		return nil
	})
	// fetch logs its own failures and leaves the body empty, so Wait has nothing to report.
	g.Wait()

	if err := ctx.Err(); err != nil {
		s.metrics.Analysis(metrics.OutcomeError, time.Since(started))
		return nil, errors.Wrap(fmt.Errorf("%w: %w", entities.ErrFetch, err), op)
	}

	corra := s.parse(s.corraSeries, corraBody)
	fx := s.parse(s.fxSeries, fxBody)

	res := entities.NewCorrelationResult(
		s.calc.Describe(fx),
		s.calc.Describe(corra),
		s.calc.Correlate(corra, fx, s.alignment),
	)

	s.record(ctx, dr, res)

	s.metrics.Analysis(metrics.OutcomeOK, time.Since(started))

	return res, nil
}

func (s *Service) fetch(ctx context.Context, series string, dr entities.DateRange) []byte {
	body, err := s.client.Fetch(ctx, series, dr.StartDate, dr.EndDate)
	s.metrics.Fetch(series, err)
	if err != nil {
		s.log.Error("download failed", "series", series, "error", err)
		return nil
	}

	return body
}

func (s *Service) parse(series string, body []byte) entities.RateSeries {
	rates, err := s.parser.Parse(body)
	if err != nil {
		s.metrics.ParseFailure(series)
		s.log.Error("parse failed", "series", series, "error", err)
		return entities.RateSeries{}
	}

	return rates
}

func (s *Service) record(ctx context.Context, dr entities.DateRange, res *entities.CorrelationResult) {
	var wg sync.WaitGroup

	if s.journal != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.journal.SaveAnalysis(ctx, dr, res); err != nil {
				s.log.Error("journal write failed", "error", err)
			}
		}()
	}

	if s.publisher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.publisher.PublishAnalysis(ctx, dr, res); err != nil {
				s.log.Error("publish failed", "error", err)
			}
		}()
	}

	wg.Wait()
}

// ParseDateRange accepts any date layout dateparse understands and keeps the original strings.
func ParseDateRange(startDate, endDate string) (entities.DateRange, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return entities.DateRange{}, entities.NewValidationError(entities.MsgInvalidStartDate)
	}

	end, err := parseDate(endDate)
	if err != nil {
		return entities.DateRange{}, entities.NewValidationError(entities.MsgInvalidEndDate)
	}

	if start.After(end) {
		return entities.DateRange{}, entities.NewValidationError(entities.MsgInvertedRange)
	}

	return entities.DateRange{
		StartDate: startDate,
		EndDate:   endDate,
		Start:     start,
		End:       end,
	}, nil
}

var errNoDate = errors.New("no date in input")

// dateparse accepts some strings without any date in them and returns the zero time for those.
func parseDate(s string) (time.Time, error) {
	if !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, errNoDate
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return time.Time{}, errNoDate
	}

	return t, nil
}
