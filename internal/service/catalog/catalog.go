// Package catalog exposes the create/update/delete operations over surveys,
// commodities and markets.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/repository"
	"github.com/mamadbah2/bapokting/internal/service/reference"
)

// ErrInvalidInput is returned when a write request fails validation.
var ErrInvalidInput = errors.New("invalid input")

// Service validates writes before handing them to the store.
type Service struct {
	surveys     repository.SurveyStore
	refs        repository.ReferenceStore
	invalidator reference.Invalidator
	logger      *zap.Logger
}

// NewService wires the catalog service. invalidator may be nil when the
// reference provider keeps no snapshot.
func NewService(surveys repository.SurveyStore, refs repository.ReferenceStore, invalidator reference.Invalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{surveys: surveys, refs: refs, invalidator: invalidator, logger: logger}
}

// ListSurveys returns the surveys matching filter.
func (s *Service) ListSurveys(ctx context.Context, filter models.SurveyFilter) (repository.SurveyBatch, error) {
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return repository.SurveyBatch{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidInput, filter.From, filter.To)
	}
	return s.surveys.ListSurveys(ctx, filter)
}

// CreateSurvey stores a new survey record.
func (s *Service) CreateSurvey(ctx context.Context, rec models.SurveyRecord) (models.SurveyRecord, error) {
	rec = normalizeSurvey(rec)
	if err := rec.Validate(); err != nil {
		return models.SurveyRecord{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.surveys.CreateSurvey(ctx, rec)
	if err != nil {
		return models.SurveyRecord{}, err
	}
	s.logger.Info("survey created",
		zap.String("id", created.ID),
		zap.String("market_id", created.MarketID),
		zap.String("commodity_id", created.CommodityID))
	return created, nil
}

// UpdateSurvey replaces the survey identified by id.
func (s *Service) UpdateSurvey(ctx context.Context, id string, rec models.SurveyRecord) (models.SurveyRecord, error) {
	if strings.TrimSpace(id) == "" {
		return models.SurveyRecord{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	rec = normalizeSurvey(rec)
	if err := rec.Validate(); err != nil {
		return models.SurveyRecord{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.surveys.UpdateSurvey(ctx, id, rec)
}

// DeleteSurvey removes the survey identified by id.
func (s *Service) DeleteSurvey(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.surveys.DeleteSurvey(ctx, id)
}

// ListCommodities returns every commodity.
func (s *Service) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	return s.refs.ListCommodities(ctx)
}

// CreateCommodity stores a new commodity.
func (s *Service) CreateCommodity(ctx context.Context, c models.Commodity) (models.Commodity, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return models.Commodity{}, fmt.Errorf("%w: commodity name is required", ErrInvalidInput)
	}
	created, err := s.refs.CreateCommodity(ctx, c)
	if err != nil {
		return models.Commodity{}, err
	}
	s.invalidate("commodity created")
	return created, nil
}

// UpdateCommodity replaces the commodity identified by id.
func (s *Service) UpdateCommodity(ctx context.Context, id string, c models.Commodity) (models.Commodity, error) {
	c.Name = strings.TrimSpace(c.Name)
	if strings.TrimSpace(id) == "" || c.Name == "" {
		return models.Commodity{}, fmt.Errorf("%w: id and commodity name are required", ErrInvalidInput)
	}
	updated, err := s.refs.UpdateCommodity(ctx, id, c)
	if err != nil {
		return models.Commodity{}, err
	}
	s.invalidate("commodity updated")
	return updated, nil
}

// DeleteCommodity removes the commodity identified by id.
func (s *Service) DeleteCommodity(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if err := s.refs.DeleteCommodity(ctx, id); err != nil {
		return err
	}
	s.invalidate("commodity deleted")
	return nil
}

// ListMarkets returns markets, optionally only the active ones.
func (s *Service) ListMarkets(ctx context.Context, activeOnly bool) ([]models.Market, error) {
	return s.refs.ListMarkets(ctx, activeOnly)
}

// CreateMarket stores a new market.
func (s *Service) CreateMarket(ctx context.Context, m models.Market) (models.Market, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return models.Market{}, fmt.Errorf("%w: market name is required", ErrInvalidInput)
	}
	created, err := s.refs.CreateMarket(ctx, m)
	if err != nil {
		return models.Market{}, err
	}
	s.invalidate("market created")
	return created, nil
}

// UpdateMarket replaces the market identified by id.
func (s *Service) UpdateMarket(ctx context.Context, id string, m models.Market) (models.Market, error) {
	m.Name = strings.TrimSpace(m.Name)
	if strings.TrimSpace(id) == "" || m.Name == "" {
		return models.Market{}, fmt.Errorf("%w: id and market name are required", ErrInvalidInput)
	}
	updated, err := s.refs.UpdateMarket(ctx, id, m)
	if err != nil {
		return models.Market{}, err
	}
	s.invalidate("market updated")
	return updated, nil
}

// DeleteMarket removes the market identified by id.
func (s *Service) DeleteMarket(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if err := s.refs.DeleteMarket(ctx, id); err != nil {
		return err
	}
	s.invalidate("market deleted")
	return nil
}

func (s *Service) invalidate(reason string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate()
	s.logger.Debug("reference snapshot invalidated", zap.String("reason", reason))
}

func normalizeSurvey(rec models.SurveyRecord) models.SurveyRecord {
	rec.SurveyDate = strings.TrimSpace(rec.SurveyDate)
	rec.MarketID = strings.TrimSpace(rec.MarketID)
	rec.CommodityID = strings.TrimSpace(rec.CommodityID)
	rec.StockStatus = models.StockStatus(strings.ToLower(strings.TrimSpace(string(rec.StockStatus))))
	rec.Quality = models.Quality(strings.ToLower(strings.TrimSpace(string(rec.Quality))))
	rec.OperatorName = strings.TrimSpace(rec.OperatorName)
	return rec
}
