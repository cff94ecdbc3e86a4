package model

// MaintenanceRecord is one entry of an asset's maintenance history.
type MaintenanceRecord struct {
	ID              uint64 `json:"id"`
	AssetID         uint64 `json:"asset_id"`
	MaintenanceDate string `json:"maintenance_date"`
	MaintenanceType string `json:"maintenance_type"`
	PerformedBy     string `json:"performed_by"`
	Notes           string `json:"notes"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

// MaintenanceEntry is a record enriched with the name of its asset, as
// returned by the cross-asset listing.
type MaintenanceEntry struct {
	MaintenanceRecord
	AssetName string `json:"asset_name"`
}
