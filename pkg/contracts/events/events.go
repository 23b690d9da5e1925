// Package events defines the WebSocket event contract pushed to open
// dashboards so they refetch when the dataset changes.
package events

import "time"

// EventType identifies what happened to the dataset.
type EventType string

const (
	// EventDatasetAppended fires after rows are appended to the file.
	EventDatasetAppended EventType = "dataset_appended"
	// EventDatasetReplaced fires after an upload replaces the file.
	EventDatasetReplaced EventType = "dataset_replaced"
	// EventDatasetInvalidated fires when the cached parse is discarded.
	EventDatasetInvalidated EventType = "dataset_invalidated"
)

// DatasetEvent is one change notification.
type DatasetEvent struct {
	Type      EventType `json:"type"`
	Rows      int       `json:"rows,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
