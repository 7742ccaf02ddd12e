package dto

import (
	"time"

	"github.com/noah-isme/student-records-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ActivityListRequest defines filters for retrieving the audit log.
type ActivityListRequest struct {
	Page       int
	PageSize   int
	EntityType string
	EntityKey  string
	Action     string
	Since      *time.Time
}

// ActivityResponse serializes an audit log entry.
type ActivityResponse struct {
	ID            uint                   `json:"id"`
	Action        string                 `json:"action"`
	EntityType    string                 `json:"entity_type"`
	EntityKey     string                 `json:"entity_key"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"created_at"`
}

// ActivityListResponse wraps a paginated audit log listing.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an audit log model into a DTO.
func NewActivityResponse(model models.ActivityLog) ActivityResponse {
	metadata := make(map[string]interface{}, len(model.Metadata))
	for key, value := range model.Metadata {
		metadata[key] = value
	}

	return ActivityResponse{
		ID:            model.ID,
		Action:        model.Action,
		EntityType:    model.EntityType,
		EntityKey:     model.EntityKey,
		CorrelationID: model.CorrelationID,
		Metadata:      metadata,
		CreatedAt:     model.CreatedAt,
	}
}
