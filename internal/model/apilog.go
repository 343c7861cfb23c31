// Package model defines domain entities for the application.
package model

import "time"

// LogEntry is one recorded API request, persisted to api_logs by the
// background log worker.
type LogEntry struct {
	Endpoint  string    `json:"endpoint"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	UserID    string    `json:"user_id"`
	RequestID string    `json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EndpointCount is one row of the /stats aggregate.
type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int64  `json:"count"`
}
