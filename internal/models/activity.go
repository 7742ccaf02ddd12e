package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable writes against student, course and grade records.
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	EntityType    string            `gorm:"size:32;not null;index" json:"entity_type"`
	EntityKey     string            `gorm:"size:64;not null" json:"entity_key"`
	CorrelationID string            `gorm:"size:64" json:"correlation_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Migratable lists every model owned by the service, in dependency order.
func Migratable() []interface{} {
	return []interface{}{&Student{}, &Course{}, &Grade{}, &ActivityLog{}}
}
