package models

import "time"

// DashboardSummary is the super admin overview.
type DashboardSummary struct {
	Users            int                 `json:"users"`
	Clubs            int                 `json:"clubs"`
	Events           int                 `json:"events"`
	EventsByStatus   map[EventStatus]int `json:"eventsByStatus"`
	Ideas            int                 `json:"ideas"`
	Votes            int                 `json:"votes"`
	Comments         int                 `json:"comments"`
	PendingApprovals int                 `json:"pendingApprovals"`
	PendingClubs     int                 `json:"pendingClubs"`
	GeneratedAt      time.Time           `json:"generatedAt"`
}

// StatusCount is one row of a GROUP BY status query.
type StatusCount struct {
	Status EventStatus `db:"status"`
	Count  int         `db:"count"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	NotificationsQueued      int       `json:"notificationsQueued"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
