package models

import "time"

// RateLimitSetting is the request rate applied per client, in
// ulule/limiter notation such as "5-S" or "100-M".
type RateLimitSetting struct {
	Rate      string    `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CORSSetting lists the origins allowed to call the API.
type CORSSetting struct {
	AllowedOrigins   []string  `json:"allowed_origins"`
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"`
	UpdatedAt        time.Time `json:"updated_at"`
}
