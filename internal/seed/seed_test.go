package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

type refStore struct {
	commodities []models.Commodity
	markets     []models.Market
}

func (s *refStore) ListCommodities(context.Context) ([]models.Commodity, error) {
	return s.commodities, nil
}

func (s *refStore) CreateCommodity(_ context.Context, c models.Commodity) (models.Commodity, error) {
	s.commodities = append(s.commodities, c)
	return c, nil
}

func (s *refStore) UpdateCommodity(_ context.Context, _ string, c models.Commodity) (models.Commodity, error) {
	return c, nil
}

func (s *refStore) DeleteCommodity(context.Context, string) error { return nil }

func (s *refStore) ListMarkets(context.Context, bool) ([]models.Market, error) {
	return s.markets, nil
}

func (s *refStore) CreateMarket(_ context.Context, m models.Market) (models.Market, error) {
	s.markets = append(s.markets, m)
	return m, nil
}

func (s *refStore) UpdateMarket(_ context.Context, _ string, m models.Market) (models.Market, error) {
	return m, nil
}

func (s *refStore) DeleteMarket(context.Context, string) error { return nil }

const sampleDoc = `
commodities:
  - name: Beras Medium
    unit: kg
    category: Beras
    active: true
  - name: Cabai Rawit
    unit: kg
    category: Sayuran
    active: true
markets:
  - name: Pasar Besar
    address: Jl. Pasar Besar
    active: true
`

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	require.Len(t, doc.Commodities, 2)
	assert.Equal(t, "kg", doc.Commodities[0].Unit)
	assert.True(t, doc.Commodities[1].Active)
	require.Len(t, doc.Markets, 1)
	assert.Equal(t, "Jl. Pasar Besar", doc.Markets[0].Address)
}

func TestDecodeRejectsUnknownFieldsAndBlankNames(t *testing.T) {
	_, err := Decode(strings.NewReader("commodities:\n  - name: Gula\n    colour: white\n"))
	require.Error(t, err)

	_, err = Decode(strings.NewReader("markets:\n  - address: somewhere\n"))
	require.Error(t, err)
}

func TestApplySkipsExistingNames(t *testing.T) {
	store := &refStore{commodities: []models.Commodity{{ID: "1", Name: "beras medium"}}}
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	sum, err := Apply(context.Background(), store, doc, false, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{CommoditiesCreated: 1, CommoditiesSkipped: 1, MarketsCreated: 1}, sum)
	assert.Len(t, store.commodities, 2)
	assert.Len(t, store.markets, 1)

	again, err := Apply(context.Background(), store, doc, false, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{CommoditiesSkipped: 2, MarketsSkipped: 1}, again)
}

func TestApplyDryRunWritesNothing(t *testing.T) {
	store := &refStore{}
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	sum, err := Apply(context.Background(), store, doc, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.CommoditiesCreated)
	assert.Empty(t, store.commodities)
	assert.Empty(t, store.markets)
}
