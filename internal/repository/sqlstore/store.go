// Package sqlstore implements the survey store directly over database/sql, for a
// self-hosted Postgres (lib/pq) or a local SQLite file (go-sqlite3).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/repository"
)

const pingAttempts = 5

// Store implements repository.Store on a SQL database.
type Store struct {
	db       *sql.DB
	postgres bool
	logger   *zap.Logger
}

var _ repository.Store = (*Store)(nil)

// Open connects with driver ("postgres" or "sqlite3"), waits for the database and
// creates missing tables.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.Warn("database not ready", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping failed after retries: %w", err)
	}

	s := &Store{db: db, postgres: driver == "postgres", logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS commodities (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			unit      TEXT NOT NULL DEFAULT '',
			category  TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS markets (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			address   TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS price_surveys (
			id            TEXT PRIMARY KEY,
			survey_date   TEXT NOT NULL,
			market_id     TEXT NOT NULL,
			commodity_id  TEXT NOT NULL,
			price         NUMERIC,
			stock_status  TEXT NOT NULL,
			quality       TEXT NOT NULL,
			operator_name TEXT NOT NULL DEFAULT '',
			notes         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_surveys_date ON price_surveys(survey_date)`,
		`CREATE INDEX IF NOT EXISTS idx_price_surveys_market ON price_surveys(market_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ListSurveys fetches surveys matching filter; rows that fail validation are counted as rejected.
func (s *Store) ListSurveys(ctx context.Context, filter models.SurveyFilter) (repository.SurveyBatch, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !filter.AllMarkets() {
		conds = append(conds, "market_id = ?")
		args = append(args, filter.MarketID)
	}
	if filter.From != "" {
		conds = append(conds, "CAST(survey_date AS TEXT) >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conds = append(conds, "CAST(survey_date AS TEXT) <= ?")
		args = append(args, filter.To)
	}

	query := `SELECT CAST(id AS TEXT), CAST(survey_date AS TEXT), CAST(market_id AS TEXT), CAST(commodity_id AS TEXT),
		CAST(price AS TEXT), stock_status, quality, operator_name, notes FROM price_surveys`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY survey_date, id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return repository.SurveyBatch{}, fmt.Errorf("sqlstore: list surveys: %w", err)
	}
	defer rows.Close()

	batch := repository.SurveyBatch{Records: []models.SurveyRecord{}}
	for rows.Next() {
		rec, err := scanSurvey(rows)
		if err != nil {
			if errors.Is(err, models.ErrInvalidSurvey) {
				batch.Rejected++
				s.logger.Debug("reject malformed survey row", zap.Error(err))
				continue
			}
			return repository.SurveyBatch{}, fmt.Errorf("sqlstore: scan survey: %w", err)
		}
		batch.Records = append(batch.Records, rec)
	}
	return batch, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSurvey(row scanner) (models.SurveyRecord, error) {
	var (
		rec         models.SurveyRecord
		price       sql.NullString
		notes       sql.NullString
		stock, qual string
		date        string
	)
	if err := row.Scan(&rec.ID, &date, &rec.MarketID, &rec.CommodityID, &price, &stock, &qual, &rec.OperatorName, &notes); err != nil {
		return models.SurveyRecord{}, err
	}
	if !price.Valid {
		return models.SurveyRecord{}, fmt.Errorf("%w: price is null", models.ErrInvalidSurvey)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(price.String), 64)
	if err != nil {
		return models.SurveyRecord{}, fmt.Errorf("%w: price %q is not a number", models.ErrInvalidSurvey, price.String)
	}

	rec.SurveyDate = date
	if len(date) > 10 {
		rec.SurveyDate = date[:10]
	}
	rec.Price = value
	rec.StockStatus = models.StockStatus(stock)
	rec.Quality = models.Quality(qual)
	rec.Notes = notes.String

	if err := rec.Validate(); err != nil {
		return models.SurveyRecord{}, err
	}
	return rec, nil
}

// CreateSurvey inserts a survey with a generated id.
func (s *Store) CreateSurvey(ctx context.Context, rec models.SurveyRecord) (models.SurveyRecord, error) {
	rec.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO price_surveys
		(id, survey_date, market_id, commodity_id, price, stock_status, quality, operator_name, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.SurveyDate, rec.MarketID, rec.CommodityID, rec.Price,
		string(rec.StockStatus), string(rec.Quality), rec.OperatorName, nullString(rec.Notes))
	if err != nil {
		return models.SurveyRecord{}, fmt.Errorf("sqlstore: insert survey: %w", err)
	}
	return rec, nil
}

// UpdateSurvey replaces survey id.
func (s *Store) UpdateSurvey(ctx context.Context, id string, rec models.SurveyRecord) (models.SurveyRecord, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE price_surveys SET
		survey_date = ?, market_id = ?, commodity_id = ?, price = ?, stock_status = ?, quality = ?, operator_name = ?, notes = ?
		WHERE id = ?`),
		rec.SurveyDate, rec.MarketID, rec.CommodityID, rec.Price,
		string(rec.StockStatus), string(rec.Quality), rec.OperatorName, nullString(rec.Notes), id)
	if err := affected(res, err, "update survey"); err != nil {
		return models.SurveyRecord{}, err
	}
	rec.ID = id
	return rec, nil
}

// DeleteSurvey removes survey id.
func (s *Store) DeleteSurvey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM price_surveys WHERE id = ?`), id)
	return affected(res, err, "delete survey")
}

// ListCommodities returns every commodity ordered by name.
func (s *Store) ListCommodities(ctx context.Context) ([]models.Commodity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT CAST(id AS TEXT), name, unit, category, is_active FROM commodities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list commodities: %w", err)
	}
	defer rows.Close()

	out := []models.Commodity{}
	for rows.Next() {
		var c models.Commodity
		if err := rows.Scan(&c.ID, &c.Name, &c.Unit, &c.Category, &c.Active); err != nil {
			return nil, fmt.Errorf("sqlstore: scan commodity: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCommodity inserts a commodity with a generated id.
func (s *Store) CreateCommodity(ctx context.Context, c models.Commodity) (models.Commodity, error) {
	c.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO commodities (id, name, unit, category, is_active) VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Unit, c.Category, c.Active)
	if err != nil {
		return models.Commodity{}, fmt.Errorf("sqlstore: insert commodity: %w", err)
	}
	return c, nil
}

// UpdateCommodity replaces commodity id.
func (s *Store) UpdateCommodity(ctx context.Context, id string, c models.Commodity) (models.Commodity, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE commodities SET name = ?, unit = ?, category = ?, is_active = ? WHERE id = ?`),
		c.Name, c.Unit, c.Category, c.Active, id)
	if err := affected(res, err, "update commodity"); err != nil {
		return models.Commodity{}, err
	}
	c.ID = id
	return c, nil
}

// DeleteCommodity removes commodity id.
func (s *Store) DeleteCommodity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM commodities WHERE id = ?`), id)
	return affected(res, err, "delete commodity")
}

// ListMarkets returns markets ordered by name, optionally only active ones.
func (s *Store) ListMarkets(ctx context.Context, activeOnly bool) ([]models.Market, error) {
	query := `SELECT CAST(id AS TEXT), name, address, is_active FROM markets`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list markets: %w", err)
	}
	defer rows.Close()

	out := []models.Market{}
	for rows.Next() {
		var m models.Market
		if err := rows.Scan(&m.ID, &m.Name, &m.Address, &m.Active); err != nil {
			return nil, fmt.Errorf("sqlstore: scan market: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateMarket inserts a market with a generated id.
func (s *Store) CreateMarket(ctx context.Context, m models.Market) (models.Market, error) {
	m.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO markets (id, name, address, is_active) VALUES (?, ?, ?, ?)`),
		m.ID, m.Name, m.Address, m.Active)
	if err != nil {
		return models.Market{}, fmt.Errorf("sqlstore: insert market: %w", err)
	}
	return m, nil
}

// UpdateMarket replaces market id.
func (s *Store) UpdateMarket(ctx context.Context, id string, m models.Market) (models.Market, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE markets SET name = ?, address = ?, is_active = ? WHERE id = ?`),
		m.Name, m.Address, m.Active, id)
	if err := affected(res, err, "update market"); err != nil {
		return models.Market{}, err
	}
	m.ID = id
	return m, nil
}

// DeleteMarket removes market id.
func (s *Store) DeleteMarket(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM markets WHERE id = ?`), id)
	return affected(res, err, "delete market")
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func affected(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("sqlstore: %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: %s: %w", op, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
