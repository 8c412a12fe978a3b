package api

import (
	"encoding/json"
	"time"
)

// User is the public view of an account.
type User struct {
	ID      string `json:"id"`
	Login   string `json:"login"`
	IsAdmin bool   `json:"is_admin"`
}

// LoginRequest is the body of POST /api/v1/login.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for subsequent requests.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UserConfig is a user's saved UI configuration. Config is free-form on the
// wire; layout entries are keyed by storage key.
type UserConfig struct {
	UserID    string                     `json:"user_id"`
	Config    map[string]json.RawMessage `json:"config"`
	UpdatedAt *time.Time                 `json:"updated_at"`
}

// ConfigPayload is the body of the user-config save and the broadcast push.
type ConfigPayload struct {
	Config map[string]json.RawMessage `json:"config"`
}

// PushResult is the broadcast response.
type PushResult struct {
	UpdatedUsers int `json:"updated_users"`
}

// ErrorBody is the JSON error envelope returned by the server.
type ErrorBody struct {
	Error string `json:"error"`
}

// BuyScreenConfig configures the buy screen.
type BuyScreenConfig struct {
	ShowPriceChart bool     `json:"show_price_chart" toml:"show_price_chart"`
	Theme          string   `json:"theme" toml:"theme"`
	Fields         []string `json:"fields" toml:"fields"`
	Layout         string   `json:"layout" toml:"layout"`
}

// PortfolioScreenConfig configures the portfolio screen.
type PortfolioScreenConfig struct {
	ShowGainLoss    bool `json:"show_gain_loss" toml:"show_gain_loss"`
	ShowGraph       bool `json:"show_graph" toml:"show_graph"`
	RefreshInterval int  `json:"refresh_interval" toml:"refresh_interval"` // seconds
}

// DashboardScreenConfig configures the dashboard screen.
type DashboardScreenConfig struct {
	ShowAllStocks bool   `json:"show_all_stocks" toml:"show_all_stocks"`
	SortBy        string `json:"sort_by" toml:"sort_by"`
	CardLayout    string `json:"card_layout" toml:"card_layout"`
}

// LMSCacheKey is the local cache entry holding the last fetched LMSConfig.
const LMSCacheKey = "lms_config"

// LMSConfig is the global screen configuration shared by all users.
type LMSConfig struct {
	BuyScreen       BuyScreenConfig       `json:"buy_screen" toml:"buy_screen"`
	PortfolioScreen PortfolioScreenConfig `json:"portfolio_screen" toml:"portfolio_screen"`
	DashboardScreen DashboardScreenConfig `json:"dashboard_screen" toml:"dashboard_screen"`
	Version         string                `json:"version" toml:"version"`
}

// DefaultLMSConfig returns the built-in global configuration.
func DefaultLMSConfig() LMSConfig {
	return LMSConfig{
		BuyScreen: BuyScreenConfig{
			ShowPriceChart: true,
			Theme:          "light",
			Fields:         []string{"stock", "amount"},
			Layout:         "grid",
		},
		PortfolioScreen: PortfolioScreenConfig{
			ShowGainLoss:    true,
			ShowGraph:       false,
			RefreshInterval: 300,
		},
		DashboardScreen: DashboardScreenConfig{
			ShowAllStocks: true,
			SortBy:        "price",
			CardLayout:    "compact",
		},
		Version: "1.0.0",
	}
}
