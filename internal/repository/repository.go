// Package repository declares the persistence contracts shared by the store backends.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

// ErrNotFound indicates the addressed row does not exist.
var ErrNotFound = errors.New("record not found")

// SurveyBatch carries the valid survey rows of one query plus the number of
// external rows rejected at decode time.
type SurveyBatch struct {
	Records  []models.SurveyRecord
	Rejected int
}

// SurveyStore reads and writes price surveys.
type SurveyStore interface {
	ListSurveys(ctx context.Context, filter models.SurveyFilter) (SurveyBatch, error)
	CreateSurvey(ctx context.Context, rec models.SurveyRecord) (models.SurveyRecord, error)
	UpdateSurvey(ctx context.Context, id string, rec models.SurveyRecord) (models.SurveyRecord, error)
	DeleteSurvey(ctx context.Context, id string) error
}

// ReferenceStore reads and writes commodities and markets.
type ReferenceStore interface {
	ListCommodities(ctx context.Context) ([]models.Commodity, error)
	CreateCommodity(ctx context.Context, c models.Commodity) (models.Commodity, error)
	UpdateCommodity(ctx context.Context, id string, c models.Commodity) (models.Commodity, error)
	DeleteCommodity(ctx context.Context, id string) error

	ListMarkets(ctx context.Context, activeOnly bool) ([]models.Market, error)
	CreateMarket(ctx context.Context, m models.Market) (models.Market, error)
	UpdateMarket(ctx context.Context, id string, m models.Market) (models.Market, error)
	DeleteMarket(ctx context.Context, id string) error
}

// Store is the full backend surface.
type Store interface {
	SurveyStore
	ReferenceStore
	Close() error
}
