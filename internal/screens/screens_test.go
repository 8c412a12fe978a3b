package screens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/layout"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{DashboardKey, PortfolioKey, BrowseKey}, Keys())
}

func TestDefaults(t *testing.T) {
	d := Defaults(PortfolioKey)
	assert.Equal(t, []string{"summary-cards", "allocation", "holdings"}, d.Order)
	for _, id := range d.Order {
		assert.True(t, d.Visibility[id])
	}

	assert.Empty(t, Defaults("nope").Order)
}

func TestDefaults_MatchDefinitionDefaults(t *testing.T) {
	for _, key := range Keys() {
		assert.True(t, Defaults(key).Equal(layout.Defaults(Definitions(key, nil))), key)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Holdings Table", Label(PortfolioKey, "holdings"))
	assert.Equal(t, "mystery", Label(PortfolioKey, "mystery"))
	assert.Equal(t, "x", Label("nope", "x"))
}

func TestDefinitions_Render(t *testing.T) {
	defs := Definitions(BrowseKey, func(id string, width int) string {
		return id
	})
	require.Len(t, defs, 3)
	assert.Equal(t, "Stocks", defs[2].Title)
	assert.Equal(t, "stocks-display", defs[2].Render(40))
}

func TestAll_ReturnsCopies(t *testing.T) {
	all := All()
	all[0].Panels[0].ID = "mutated"
	assert.Equal(t, "stats", All()[0].Panels[0].ID)
}
