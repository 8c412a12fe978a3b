package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"stockdash/internal/ui/textutil"
)

// Static market data drawn by the demo panels. Prices are not live.
type demoQuote struct {
	Symbol string
	Name   string
	Price  float64
	Change float64 // percent
	Volume string
}

var demoQuotes = []demoQuote{
	{"AAPL", "Apple Inc.", 189.84, 1.24, "52.1M"},
	{"MSFT", "Microsoft Corp.", 415.50, 0.87, "21.4M"},
	{"NVDA", "NVIDIA Corp.", 875.28, 3.12, "44.9M"},
	{"AMZN", "Amazon.com Inc.", 178.22, -0.45, "38.0M"},
	{"TSLA", "Tesla Inc.", 171.05, -2.31, "97.6M"},
	{"GOOGL", "Alphabet Inc.", 152.36, 0.52, "25.3M"},
}

type demoHolding struct {
	Symbol string
	Shares int
	Cost   float64
}

var demoHoldings = []demoHolding{
	{"AAPL", 40, 150.10},
	{"NVDA", 12, 610.00},
	{"MSFT", 15, 380.25},
	{"TSLA", 20, 210.40},
}

// RenderDemoPanel draws the stub content for a panel id at width columns.
func RenderDemoPanel(panelID string, width int) string {
	switch panelID {
	case "stats":
		value, cost := portfolioTotals()
		return strings.Join([]string{
			fmt.Sprintf("Portfolio  $%.2f", value),
			fmt.Sprintf("Invested   $%.2f", cost),
			change("P/L       ", (value-cost)/cost*100),
			fmt.Sprintf("Holdings   %d", len(demoHoldings)),
		}, "\n")
	case "quick-actions":
		return "[b] Buy stock\n[s] Sell stock\n[w] Watchlist\n[h] History"
	case "market-leaders":
		return quoteTable(topMovers(3), width)
	case "featured-stocks", "stocks-display":
		return quoteTable(demoQuotes, width)
	case "top-holdings", "holdings":
		return holdingsTable(width)
	case "market-info":
		return "NYSE    open  09:30-16:00 ET\nNASDAQ  open  09:30-16:00 ET\nS&P 500  5,234.18  +0.61%"
	case "summary-cards":
		value, cost := portfolioTotals()
		return fmt.Sprintf("Value  $%.2f\nCost   $%.2f\n%s", value, cost, change("Return", (value-cost)/cost*100))
	case "allocation":
		return allocationBars(width)
	case "market-stats":
		gainers, losers := 0, 0
		for _, q := range demoQuotes {
			if q.Change >= 0 {
				gainers++
			} else {
				losers++
			}
		}
		return fmt.Sprintf("Listed   %d\nGainers  %d\nLosers   %d", len(demoQuotes), gainers, losers)
	case "search-filters":
		return "Search: ____________\nSector: All  Sort: Symbol\nPrice: any  Change: any"
	default:
		return Styles.Muted.Render("no content")
	}
}

func quoteTable(quotes []demoQuote, width int) string {
	nameW := width - 24
	lines := make([]string, 0, len(quotes))
	for _, q := range quotes {
		line := textutil.PadRight(q.Symbol, 6) + textutil.PadLeft(fmt.Sprintf("%.2f", q.Price), 9) + " " + change("", q.Change)
		if nameW >= 8 {
			line += "  " + Styles.Muted.Render(textutil.Truncate(q.Name, nameW))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func holdingsTable(width int) string {
	lines := make([]string, 0, len(demoHoldings))
	for _, h := range demoHoldings {
		price := quotePrice(h.Symbol)
		pl := (price - h.Cost) / h.Cost * 100
		line := textutil.PadRight(h.Symbol, 6) + textutil.PadLeft(fmt.Sprintf("%d sh", h.Shares), 7)
		if width >= 30 {
			line += textutil.PadLeft(fmt.Sprintf("$%.0f", price*float64(h.Shares)), 9)
		}
		lines = append(lines, line+" "+change("", pl))
	}
	return strings.Join(lines, "\n")
}

func allocationBars(width int) string {
	value, _ := portfolioTotals()
	barW := width - 14
	if barW < 4 {
		barW = 4
	}
	lines := make([]string, 0, len(demoHoldings))
	for _, h := range demoHoldings {
		share := quotePrice(h.Symbol) * float64(h.Shares) / value
		n := int(share * float64(barW))
		lines = append(lines, fmt.Sprintf("%s %s %3.0f%%", textutil.PadRight(h.Symbol, 5), strings.Repeat("█", n)+strings.Repeat("░", barW-n), share*100))
	}
	return strings.Join(lines, "\n")
}

func topMovers(n int) []demoQuote {
	out := append([]demoQuote(nil), demoQuotes...)
	sort.SliceStable(out, func(i, j int) bool { return math.Abs(out[i].Change) > math.Abs(out[j].Change) })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

func portfolioTotals() (value, cost float64) {
	for _, h := range demoHoldings {
		value += quotePrice(h.Symbol) * float64(h.Shares)
		cost += h.Cost * float64(h.Shares)
	}
	return value, cost
}

func quotePrice(symbol string) float64 {
	for _, q := range demoQuotes {
		if q.Symbol == symbol {
			return q.Price
		}
	}
	return 0
}

func change(label string, pct float64) string {
	s := fmt.Sprintf("%+.2f%%", pct)
	if label != "" {
		s = label + " " + s
	}
	if pct < 0 {
		return Styles.Loss.Render(s)
	}
	return Styles.Gain.Render(s)
}
