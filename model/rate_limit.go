package model

import "time"

// RateLimitConfig describes one endpoint class's request budget.
type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	BlockTime    time.Duration
	Description  string
}
