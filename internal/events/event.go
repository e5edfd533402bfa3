// Package events fans pipeline progress out to TCP and WebSocket
// subscribers as newline-delimited JSON.
package events

import (
	"time"

	"bibhub/pkg/models"
)

// Event types.
const (
	TypeWelcome          = "welcome"
	TypePipelineStarted  = "pipeline.started"
	TypePipelineFinished = "pipeline.finished"
	TypePipelineFailed   = "pipeline.failed"
)

type Event struct {
	Type string              `json:"type"`
	Run  *models.PipelineRun `json:"run,omitempty"`
	At   time.Time           `json:"at"`
}

// ForRun builds the event matching the run status.
func ForRun(run models.PipelineRun) Event {
	t := TypePipelineStarted
	switch run.Status {
	case models.RunStatusSucceeded:
		t = TypePipelineFinished
	case models.RunStatusFailed:
		t = TypePipelineFailed
	}
	return Event{Type: t, Run: &run, At: time.Now().UTC()}
}
