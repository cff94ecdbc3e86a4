// Package queue defines the domain events exchanged over RabbitMQ and the
// consumer that turns them into the activity log.
package queue

import (
	"time"

	"github.com/iliyamo/asset-management/internal/model"
)

// ActivityQueue is the durable queue every event is published to.
const ActivityQueue = "asset.activity"

// Event types.
const (
	TypeAssetAssigned     = "asset.assigned"
	TypeMaintenanceLogged = "maintenance.logged"
	TypeServiceRequested  = "service.requested"
)

// Event is the envelope published after a successful write. Fields not
// relevant to Type are left empty.
type Event struct {
	Type       string `json:"type"`
	ActorID    uint64 `json:"actor_id"`
	OccurredAt string `json:"occurred_at"`

	AssetID        uint64  `json:"asset_id,omitempty"`
	AssetName      string  `json:"asset_name,omitempty"`
	UserID         uint64  `json:"user_id,omitempty"`
	PreviousUserID *uint64 `json:"previous_user_id,omitempty"`

	RecordID        uint64 `json:"record_id,omitempty"`
	MaintenanceType string `json:"maintenance_type,omitempty"`
	MaintenanceDate string `json:"maintenance_date,omitempty"`
	Status          string `json:"status,omitempty"`

	RequestID   uint64 `json:"request_id,omitempty"`
	ServiceID   uint64 `json:"service_id,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// AssetAssigned reports that a has been assigned to a user, either on
// creation (previous is nil) or through a reassignment.
func AssetAssigned(actor uint64, a model.Asset, previous *uint64) Event {
	ev := Event{
		Type:           TypeAssetAssigned,
		ActorID:        actor,
		OccurredAt:     now(),
		AssetID:        a.ID,
		AssetName:      a.AssetName,
		PreviousUserID: previous,
	}
	if a.AssignedTo != nil {
		ev.UserID = *a.AssignedTo
	}
	return ev
}

// MaintenanceLogged reports a new maintenance record.
func MaintenanceLogged(actor uint64, m model.MaintenanceRecord) Event {
	return Event{
		Type:            TypeMaintenanceLogged,
		ActorID:         actor,
		OccurredAt:      now(),
		AssetID:         m.AssetID,
		RecordID:        m.ID,
		MaintenanceType: m.MaintenanceType,
		MaintenanceDate: m.MaintenanceDate,
		Status:          m.Status,
	}
}

// ServiceRequested reports a new service request.
func ServiceRequested(r model.ServiceRequest) Event {
	return Event{
		Type:        TypeServiceRequested,
		ActorID:     r.UserID,
		OccurredAt:  now(),
		UserID:      r.UserID,
		RequestID:   r.ID,
		ServiceID:   r.ServiceID,
		ServiceName: r.ServiceName,
	}
}
