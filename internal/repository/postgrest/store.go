package postgrest

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/repository"
	client "github.com/mamadbah2/bapokting/pkg/clients/postgrest"
)

const (
	surveysTable     = "price_surveys"
	commoditiesTable = "commodities"
	marketsTable     = "markets"

	surveyColumns = "id,survey_date,market_id,commodity_id,price,stock_status,quality,operator_name,notes"

	defaultPageSize = 1000
)

// Store implements repository.Store against a hosted PostgREST endpoint.
// Row-level security is enforced by the service; this adapter only shapes requests.
type Store struct {
	client   *client.Client
	logger   *zap.Logger
	pageSize int
}

var _ repository.Store = (*Store)(nil)

// NewStore wraps a configured PostgREST client.
func NewStore(c *client.Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: c, logger: logger, pageSize: defaultPageSize}
}

// ListSurveys fetches surveys matching filter. Rows that do not decode into a valid
// record are dropped and counted in SurveyBatch.Rejected.
func (s *Store) ListSurveys(ctx context.Context, filter models.SurveyFilter) (repository.SurveyBatch, error) {
	q := client.NewQuery().Select(surveyColumns).Order("survey_date", false).Order("id", false)
	if !filter.AllMarkets() {
		q.Eq("market_id", filter.MarketID)
	}
	if filter.From != "" {
		q.Gte("survey_date", filter.From)
	}
	if filter.To != "" {
		q.Lte("survey_date", filter.To)
	}

	raws, err := s.selectAll(ctx, surveysTable, q)
	if err != nil {
		return repository.SurveyBatch{}, err
	}

	batch := repository.SurveyBatch{Records: make([]models.SurveyRecord, 0, len(raws))}
	for _, raw := range raws {
		rec, err := decodeSurvey(raw)
		if err != nil {
			batch.Rejected++
			s.logger.Debug("reject malformed survey row", zap.ByteString("row", raw), zap.Error(err))
			continue
		}
		batch.Records = append(batch.Records, rec)
	}

	if batch.Rejected > 0 {
		s.logger.Warn("rejected malformed survey rows", zap.Int("rejected", batch.Rejected), zap.Int("accepted", len(batch.Records)))
	}
	return batch, nil
}

// selectAll pages through table until the reported total is reached. Without a
// total it stops at the first page shorter than requested.
func (s *Store) selectAll(ctx context.Context, table string, q *client.Query) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for {
		var page []json.RawMessage
		total, err := s.client.SelectPage(ctx, table, q, len(all), s.pageSize, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		switch {
		case len(page) == 0:
			return all, nil
		case total >= 0:
			if len(all) >= total {
				return all, nil
			}
		case len(page) < s.pageSize:
			return all, nil
		}
	}
}

// CreateSurvey inserts a survey and returns the stored row.
func (s *Store) CreateSurvey(ctx context.Context, rec models.SurveyRecord) (models.SurveyRecord, error) {
	var raws []json.RawMessage
	if err := s.client.Insert(ctx, surveysTable, newSurveyPayload(rec), &raws); err != nil {
		return models.SurveyRecord{}, err
	}
	return firstSurvey(raws)
}

// UpdateSurvey replaces the mutable fields of survey id.
func (s *Store) UpdateSurvey(ctx context.Context, id string, rec models.SurveyRecord) (models.SurveyRecord, error) {
	var raws []json.RawMessage
	if err := s.client.Update(ctx, surveysTable, client.NewQuery().Eq("id", id), newSurveyPayload(rec), &raws); err != nil {
		return models.SurveyRecord{}, err
	}
	return firstSurvey(raws)
}

// DeleteSurvey removes survey id.
func (s *Store) DeleteSurvey(ctx context.Context, id string) error {
	return s.deleteByID(ctx, surveysTable, id)
}

// ListCommodities returns every commodity ordered by name.
func (s *Store) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	var rows []commodityRow
	q := client.NewQuery().Select("id,name,unit,category,is_active").Order("name", false)
	if err := s.client.Select(ctx, commoditiesTable, q, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Commodity, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// CreateCommodity inserts a commodity.
func (s *Store) CreateCommodity(ctx context.Context, c models.Commodity) (models.Commodity, error) {
	var rows []commodityRow
	if err := s.client.Insert(ctx, commoditiesTable, commodityPayload{Name: c.Name, Unit: c.Unit, Category: c.Category, Active: c.Active}, &rows); err != nil {
		return models.Commodity{}, err
	}
	if len(rows) == 0 {
		return models.Commodity{}, fmt.Errorf("insert %s returned no rows", commoditiesTable)
	}
	return rows[0].model(), nil
}

// UpdateCommodity replaces commodity id.
func (s *Store) UpdateCommodity(ctx context.Context, id string, c models.Commodity) (models.Commodity, error) {
	var rows []commodityRow
	body := commodityPayload{Name: c.Name, Unit: c.Unit, Category: c.Category, Active: c.Active}
	if err := s.client.Update(ctx, commoditiesTable, client.NewQuery().Eq("id", id), body, &rows); err != nil {
		return models.Commodity{}, err
	}
	if len(rows) == 0 {
		return models.Commodity{}, repository.ErrNotFound
	}
	return rows[0].model(), nil
}

// DeleteCommodity removes commodity id.
func (s *Store) DeleteCommodity(ctx context.Context, id string) error {
	return s.deleteByID(ctx, commoditiesTable, id)
}

// ListMarkets returns markets ordered by name, optionally only active ones.
func (s *Store) ListMarkets(ctx context.Context, activeOnly bool) ([]models.Market, error) {
	var rows []marketRow
	q := client.NewQuery().Select("id,name,address,is_active").Order("name", false)
	if activeOnly {
		q.Eq("is_active", "true")
	}
	if err := s.client.Select(ctx, marketsTable, q, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Market, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// CreateMarket inserts a market.
func (s *Store) CreateMarket(ctx context.Context, m models.Market) (models.Market, error) {
	var rows []marketRow
	if err := s.client.Insert(ctx, marketsTable, marketPayload{Name: m.Name, Address: m.Address, Active: m.Active}, &rows); err != nil {
		return models.Market{}, err
	}
	if len(rows) == 0 {
		return models.Market{}, fmt.Errorf("insert %s returned no rows", marketsTable)
	}
	return rows[0].model(), nil
}

// UpdateMarket replaces market id.
func (s *Store) UpdateMarket(ctx context.Context, id string, m models.Market) (models.Market, error) {
	var rows []marketRow
	body := marketPayload{Name: m.Name, Address: m.Address, Active: m.Active}
	if err := s.client.Update(ctx, marketsTable, client.NewQuery().Eq("id", id), body, &rows); err != nil {
		return models.Market{}, err
	}
	if len(rows) == 0 {
		return models.Market{}, repository.ErrNotFound
	}
	return rows[0].model(), nil
}

// DeleteMarket removes market id.
func (s *Store) DeleteMarket(ctx context.Context, id string) error {
	return s.deleteByID(ctx, marketsTable, id)
}

// Close is a no-op; the HTTP client holds no long-lived resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	var removed []json.RawMessage
	if err := s.client.Delete(ctx, table, client.NewQuery().Eq("id", id), &removed); err != nil {
		return err
	}
	if len(removed) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func firstSurvey(raws []json.RawMessage) (models.SurveyRecord, error) {
	if len(raws) == 0 {
		return models.SurveyRecord{}, repository.ErrNotFound
	}
	return decodeSurvey(raws[0])
}
