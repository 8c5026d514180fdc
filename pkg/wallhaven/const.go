package wallhaven

import "time"

// Wallhaven API endpoints.
const (
	BaseURL   = "https://wallhaven.cc"
	SearchURL = BaseURL + "/api/v1/search"
)

// RequestsPerMinute is the documented API rate limit.
const RequestsPerMinute = 45

const (
	maxBodySize  = 4 << 20
	requestBurst = 5

	// requestInterval keeps the client under RequestsPerMinute.
	requestInterval = time.Minute / RequestsPerMinute
)
