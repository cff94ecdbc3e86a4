package model

// Asset is a physical or IT item tracked by the company. Dates are kept as
// the store's YYYY-MM-DD text; nil pointers serialize as JSON null.
type Asset struct {
	ID             uint64  `json:"id"`
	AssetName      string  `json:"asset_name"`
	AssetType      string  `json:"asset_type"`
	SerialNumber   string  `json:"serial_number"`
	PurchaseDate   *string `json:"purchase_date"`
	WarrantyExpiry *string `json:"warranty_expiry"`
	Status         *string `json:"status"`
	AssignedTo     *uint64 `json:"user_id"`
}

// AssignedToUser reports whether the asset is currently assigned to uid.
func (a Asset) AssignedToUser(uid uint64) bool {
	return a.AssignedTo != nil && *a.AssignedTo == uid
}
