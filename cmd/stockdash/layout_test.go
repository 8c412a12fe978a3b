package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/cache"
	"stockdash/internal/layout"
	"stockdash/internal/screens"
)

func TestPrintLayout_Defaults(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printLayout(&out, cache.NewMemory(), screens.PortfolioKey))

	s := out.String()
	assert.Contains(t, s, "Portfolio (portfolio_layout_v1, defaults)")
	assert.Contains(t, s, "1. Summary Cards")
	assert.Contains(t, s, "3. Holdings Table")
	assert.NotContains(t, s, "hidden")
}

func TestPrintLayout_Cached(t *testing.T) {
	mem := cache.NewMemory()
	require.NoError(t, layout.Persist(mem, screens.PortfolioKey, layout.State{
		Order:      []string{"holdings", "summary-cards", "allocation"},
		Visibility: map[string]bool{"allocation": false},
	}))

	var out bytes.Buffer
	require.NoError(t, printLayout(&out, mem, screens.PortfolioKey))

	s := out.String()
	assert.Contains(t, s, "cached")
	assert.Contains(t, s, "1. Holdings Table")
	assert.Regexp(t, `3\. Portfolio Allocation\s+allocation\s+hidden`, s)
}
