package reporting

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/repository"
	"github.com/mamadbah2/bapokting/internal/service/aggregation"
	"github.com/mamadbah2/bapokting/internal/service/reference"
	"github.com/mamadbah2/bapokting/internal/trace"
)

// noticeUnavailable is shown to dashboard users when the survey store cannot be reached.
const noticeUnavailable = "Survey data is currently unavailable; showing an empty report."

// Dashboard groups the daily, monthly and yearly panels of one market.
type Dashboard struct {
	MarketID string        `json:"market_id,omitempty"`
	Daily    models.Report `json:"daily"`
	Monthly  models.Report `json:"monthly"`
	Yearly   models.Report `json:"yearly"`
}

// Service builds price reports: fetch filtered surveys, aggregate, present.
type Service struct {
	surveys repository.SurveyStore
	refs    reference.Provider
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(surveys repository.SurveyStore, refs reference.Provider, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{surveys: surveys, refs: refs, loc: loc, logger: logger, now: time.Now}
}

// PriceReport aggregates the surveys selected by req. Only an invalid period is an
// error; store failures degrade to an empty report carrying a notice.
func (s *Service) PriceReport(ctx context.Context, req models.ReportRequest) (models.Report, error) {
	period, rng, err := ResolvePeriod(req.Period, s.now(), s.loc, req.From, req.To)
	if err != nil {
		return models.Report{}, err
	}

	ctx, span := trace.StartSpan(ctx, "reporting.price_report",
		attribute.String("period", string(period)),
		attribute.String("market", req.MarketID))
	defer span.End()

	report := models.Report{
		Period:      period,
		From:        rng.From,
		To:          rng.To,
		MarketID:    marketOrEmpty(req.MarketID),
		Rows:        []models.AggregatedReportRow{},
		GeneratedAt: s.now().In(s.loc),
	}

	filter := models.SurveyFilter{MarketID: req.MarketID, From: rng.From, To: rng.To}
	batch, err := s.surveys.ListSurveys(ctx, filter)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to fetch surveys for report",
			zap.String("period", string(period)),
			zap.String("market", req.MarketID),
			zap.Error(err))
		report.Notice = noticeUnavailable
		return report, nil
	}

	ref := s.loadReference(ctx)
	res := aggregation.Aggregate(batch.Records, ref, aggregation.MarketFilter(filter.MarketID))

	report.Rows = res.Rows
	report.Rejected = batch.Rejected
	if len(res.Skipped) > 0 {
		report.Skipped = res.Skipped
	}

	s.logger.Debug("price report built",
		zap.String("period", string(period)),
		zap.String("from", rng.From),
		zap.String("to", rng.To),
		zap.Int("records", len(batch.Records)),
		zap.Int("rows", len(res.Rows)),
		zap.Int("skipped", res.SkippedTotal()),
		zap.Int("rejected", batch.Rejected))

	return report, nil
}

// SurveyListing returns the raw surveys selected by req together with the reference
// snapshot needed to render them.
func (s *Service) SurveyListing(ctx context.Context, req models.ReportRequest) (models.SurveyListing, aggregation.Lookup, error) {
	period, rng, err := ResolvePeriod(req.Period, s.now(), s.loc, req.From, req.To)
	if err != nil {
		return models.SurveyListing{}, nil, err
	}

	ctx, span := trace.StartSpan(ctx, "reporting.survey_listing", attribute.String("period", string(period)))
	defer span.End()

	listing := models.SurveyListing{
		Period:   period,
		From:     rng.From,
		To:       rng.To,
		MarketID: marketOrEmpty(req.MarketID),
		Records:  []models.SurveyRecord{},
	}

	batch, err := s.surveys.ListSurveys(ctx, models.SurveyFilter{MarketID: req.MarketID, From: rng.From, To: rng.To})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to fetch surveys for listing", zap.Error(err))
		listing.Notice = noticeUnavailable
		return listing, s.loadReference(ctx), nil
	}

	listing.Records = batch.Records
	listing.Rejected = batch.Rejected
	return listing, s.loadReference(ctx), nil
}

// Dashboard computes the three standard panels of one market concurrently.
func (s *Service) Dashboard(ctx context.Context, marketID string) (Dashboard, error) {
	dash := Dashboard{MarketID: marketOrEmpty(marketID)}
	g, gctx := errgroup.WithContext(ctx)

	panels := []struct {
		period models.Period
		dst    *models.Report
	}{
		{models.PeriodDaily, &dash.Daily},
		{models.PeriodMonthly, &dash.Monthly},
		{models.PeriodYearly, &dash.Yearly},
	}

	for _, p := range panels {
		g.Go(func() error {
			report, err := s.PriceReport(gctx, models.ReportRequest{Period: p.period, MarketID: marketID})
			if err != nil {
				return fmt.Errorf("%s panel: %w", p.period, err)
			}
			*p.dst = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}

// loadReference degrades to an empty snapshot so names fall back to placeholders.
func (s *Service) loadReference(ctx context.Context) aggregation.Lookup {
	if s.refs == nil {
		return reference.NewData(nil, nil)
	}
	data, err := s.refs.Load(ctx)
	if err != nil {
		s.logger.Warn("reference data unavailable, using placeholders", zap.Error(err))
		return reference.NewData(nil, nil)
	}
	return data
}

func marketOrEmpty(id string) string {
	if (models.SurveyFilter{MarketID: id}).AllMarkets() {
		return ""
	}
	return id
}
