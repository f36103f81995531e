package models

import "time"

// RatelimitConfig holds a rate limit in ulule format (e.g. "5-S", "20-M").
// ConfigKey selects the route group: "default" or "analysis".
type RatelimitConfig struct {
	ConfigKey string    `json:"config_key"`
	Rate      string    `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
