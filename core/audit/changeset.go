package audit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidArgument flags constructor or write inputs that violate a
// required invariant.
var ErrInvalidArgument = errors.New("audit: invalid argument")

// TrailType classifies the mutation a change set records.
type TrailType string

const (
	TrailNone   TrailType = "none"
	TrailCreate TrailType = "create"
	TrailUpdate TrailType = "update"
	TrailDelete TrailType = "delete"
)

// Valid reports whether t is a known trail type.
func (t TrailType) Valid() bool {
	switch t {
	case TrailNone, TrailCreate, TrailUpdate, TrailDelete:
		return true
	default:
		return false
	}
}

// ChangeSet is one audit record: which entity changed, how, by whom, and
// the packed before/after snapshots. Immutable once written.
type ChangeSet struct {
	ID             uuid.UUID `gorm:"primaryKey;column:id;type:char(36)" json:"id"`
	EntityName     string    `gorm:"column:entity_name;type:varchar(128);index" json:"entity_name"`
	PrimaryKey     string    `gorm:"column:primary_key;type:varchar(64)" json:"primary_key"`
	Timestamp      time.Time `gorm:"column:timestamp;index" json:"timestamp"`
	TrailType      TrailType `gorm:"column:trail_type;type:varchar(8)" json:"trail_type"`
	UserID         string    `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	ChangedColumns string    `gorm:"column:changed_columns;type:text" json:"changed_columns"`
	OldValues      *string   `gorm:"column:old_values;type:text" json:"old_values,omitempty"`
	NewValues      *string   `gorm:"column:new_values;type:text" json:"new_values,omitempty"`
}

// TableName sets the GORM table for audit records.
func (ChangeSet) TableName() string { return "audit_trails" }

// NewChangeSet builds an audit record for one mutation. Required inputs
// fail fast; everything past construction is best-effort.
func NewChangeSet(entityName, primaryKey string, trail TrailType, userID string) (*ChangeSet, error) {
	if entityName == "" {
		return nil, fmt.Errorf("%w: entity name is required", ErrInvalidArgument)
	}
	if primaryKey == "" {
		return nil, fmt.Errorf("%w: primary key is required", ErrInvalidArgument)
	}
	if !trail.Valid() {
		return nil, fmt.Errorf("%w: unknown trail type %q", ErrInvalidArgument, trail)
	}
	return &ChangeSet{
		ID:         uuid.New(),
		EntityName: entityName,
		PrimaryKey: primaryKey,
		Timestamp:  time.Now().UTC(),
		TrailType:  trail,
		UserID:     userID,
	}, nil
}

// Columns returns the changed column names in recorded order.
func (c *ChangeSet) Columns() []string {
	if c.ChangedColumns == "" {
		return nil
	}
	return strings.Split(c.ChangedColumns, ",")
}

func (c *ChangeSet) setColumns(cols []string) {
	c.ChangedColumns = strings.Join(cols, ",")
}
