package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestA1QuotesTabNames(t *testing.T) {
	assert.Equal(t, "'Archive'!A:A", a1("Archive", "A:A"))
	assert.Equal(t, "'Prices monthly 2024-01-15'!A1", a1("Prices monthly 2024-01-15", "A1"))
	assert.Equal(t, "'Pak''s tab'!A:Z", a1("Pak's tab", "A:Z"))
}
