package models

import (
	"blueprint/internal/graph"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type FlowchartVisibility string

const (
	FlowchartVisibilityPrivate FlowchartVisibility = "private"
	FlowchartVisibilityPublic  FlowchartVisibility = "public"
)

type OwningFlowchart string

const (
	Owner  OwningFlowchart = "owner"
	Editor OwningFlowchart = "editor"
	Viewer OwningFlowchart = "viewer"
)

// FlowchartData stores the canonical serialized document in a jsonb
// column. Scan/Value go through the document's own wire format so a save
// followed by a fetch round-trips the structure field-for-field.
type FlowchartData struct {
	graph.Document
}

// Scan implements sql.Scanner interface
func (d *FlowchartData) Scan(value interface{}) error {
	if value == nil {
		d.Document = *graph.NewDocument()
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan type %T into FlowchartData", value)
	}
	return json.Unmarshal(raw, &d.Document)
}

// Value implements driver.Valuer interface
func (d FlowchartData) Value() (driver.Value, error) {
	return json.Marshal(d.Document)
}

func (d FlowchartData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Document)
}

func (d *FlowchartData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Document)
}

// Flowchart is the stored aggregate: identity, ownership and the current
// committed document version. Version is the optimistic concurrency token;
// every committed mutation batch bumps it by one.
type Flowchart struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	Name        string              `gorm:"not null;uniqueIndex:idx_flowchart_owner_name" json:"name"`
	Description string              `json:"description"`
	CreatorID   uint                `gorm:"not null;uniqueIndex:idx_flowchart_owner_name" json:"creatorId"`
	Creator     User                `json:"-"`
	Visibility  FlowchartVisibility `gorm:"default:private" json:"visibility"`
	Version     int                 `gorm:"not null;default:1" json:"version"`
	Data        FlowchartData       `gorm:"type:jsonb" json:"data"`
	SharedWith  []User              `gorm:"many2many:flowchart_user_access;" json:"-"`
	CreatedAt   time.Time           `gorm:"autoCreateTime;column:created_at" json:"createdAt"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime;column:updated_at" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt      `gorm:"index;column:deleted_at" json:"-"`
}

func (Flowchart) TableName() string {
	return "flowchart"
}

// FlowchartUserAccess records an explicit share of a flowchart with a user.
type FlowchartUserAccess struct {
	ID          uint            `gorm:"primaryKey"`
	FlowchartID uint            `gorm:"index:idx_flowchart_user,unique;not null"`
	UserID      uint            `gorm:"index:idx_flowchart_user,unique;not null"`
	Role        OwningFlowchart `gorm:"default:viewer"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;column:created_at"`
}

func (FlowchartUserAccess) TableName() string {
	return "flowchart_user_access"
}
