package model

// Service is a catalog entry users can request.
type Service struct {
	ID          uint64  `json:"id"`
	ServiceName string  `json:"service_name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// ServiceRequest links a user to a requested catalog entry.
type ServiceRequest struct {
	ID          uint64  `json:"id"`
	UserID      uint64  `json:"-"`
	ServiceID   uint64  `json:"service_id"`
	ServiceName string  `json:"service_name"`
	Description *string `json:"description"`
	RequestedAt string  `json:"requested_at"`
}
