package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/service/export"
)

// ReportBuilder produces the aggregated report archived by the scheduler.
type ReportBuilder interface {
	PriceReport(ctx context.Context, req models.ReportRequest) (models.Report, error)
}

// SnapshotSaver persists report snapshots.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snapshot models.ReportSnapshot) error
}

// SheetAppender appends rows to a spreadsheet tab.
type SheetAppender interface {
	AppendRows(ctx context.Context, tab string, rows [][]interface{}) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	reports  ReportBuilder
	archive  SnapshotSaver
	sheets   SheetAppender
	tab      string
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithArchive stores every snapshot in archive.
func WithArchive(archive SnapshotSaver) Option {
	return func(s *Scheduler) { s.archive = archive }
}

// WithSheets appends every snapshot's rows to tab.
func WithSheets(sheets SheetAppender, tab string) Option {
	return func(s *Scheduler) {
		s.sheets = sheets
		s.tab = tab
	}
}

// NewScheduler creates a new scheduler instance running in loc.
func NewScheduler(schedule string, loc *time.Location, reports ReportBuilder, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		reports:  reports,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the archive job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.loc.String()))

	if _, err := s.cron.AddFunc(s.schedule, s.runArchive); err != nil {
		return fmt.Errorf("schedule report archive %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runArchive() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.ArchiveMonthly(ctx); err != nil {
		s.logger.Error("monthly report archive failed", zap.Error(err))
	}
}

// ArchiveMonthly builds the month-to-date report for every market and stores it.
func (s *Scheduler) ArchiveMonthly(ctx context.Context) error {
	s.logger.Info("generating monthly report snapshot")

	report, err := s.reports.PriceReport(ctx, models.ReportRequest{Period: models.PeriodMonthly})
	if err != nil {
		return fmt.Errorf("build monthly report: %w", err)
	}
	if report.Notice != "" {
		return fmt.Errorf("build monthly report: %s", report.Notice)
	}

	snapshot := models.ReportSnapshot{
		Period:    report.Period,
		From:      report.From,
		To:        report.To,
		MarketID:  report.MarketID,
		Rows:      report.Rows,
		CreatedAt: s.now().UTC(),
	}

	if s.archive != nil {
		if err := s.archive.SaveSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	if s.sheets != nil {
		if err := s.sheets.AppendRows(ctx, s.tab, snapshotRows(snapshot)); err != nil {
			return fmt.Errorf("append snapshot to sheets: %w", err)
		}
	}

	s.logger.Info("monthly report snapshot stored",
		zap.String("from", snapshot.From),
		zap.String("to", snapshot.To),
		zap.Int("rows", len(snapshot.Rows)))
	return nil
}

// snapshotRows prefixes each aggregated row with the snapshot window.
func snapshotRows(snap models.ReportSnapshot) [][]interface{} {
	table := export.AggregatedTable("", snap.Rows)
	rows := make([][]interface{}, 0, len(table.Rows))
	for _, r := range table.Rows {
		row := make([]interface{}, 0, len(r)+2)
		row = append(row, export.DisplayDate(snap.From), export.DisplayDate(snap.To))
		row = append(row, r[1:]...)
		rows = append(rows, row)
	}
	return rows
}
