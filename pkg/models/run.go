package models

import "time"

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// PipelineRun records one execution of the reconciliation pipeline.
type PipelineRun struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	CertificationCount int        `json:"certification_count"`
	DirectoryCount     int        `json:"directory_count"`
	GoldenCount        int        `json:"golden_count"`
	GeocodedCount      int        `json:"geocoded_count"`
	Error              string     `json:"error,omitempty"`
}
