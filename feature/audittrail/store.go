package audittrail

import (
	"context"
	"fmt"

	"github.com/wangkanai/foundation/core/audit"
	"github.com/wangkanai/foundation/core/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store persists and queries audit change sets.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over the given connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the audit table when missing.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&audit.ChangeSet{})
}

// Save inserts one change set. A fresh session keeps the insert out of
// the audited statement's clause state.
func (s *Store) Save(ctx context.Context, cs *audit.ChangeSet) error {
	return s.db.Session(&gorm.Session{NewDB: true}).WithContext(ctx).Create(cs).Error
}

// ListByEntity returns the most recent change sets for an entity,
// newest first.
func (s *Store) ListByEntity(ctx context.Context, entityName string, limit int) ([]audit.ChangeSet, error) {
	if limit <= 0 {
		limit = 50
	}
	var trails []audit.ChangeSet
	err := s.db.WithContext(ctx).
		Where("entity_name = ?", entityName).
		Order("timestamp DESC").
		Limit(limit).
		Find(&trails).Error
	if err != nil {
		return nil, fmt.Errorf("list audit trails for %s: %w", entityName, err)
	}
	return trails, nil
}

// GetByID returns a single change set.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*audit.ChangeSet, error) {
	var cs audit.ChangeSet
	err := s.db.WithContext(ctx).First(&cs, "id = ?", id.String()).Error
	if err != nil {
		return nil, fmt.Errorf("get audit trail %s: %w", id, err)
	}
	return &cs, nil
}

// CheckSchema verifies the audit table carries the two nullable state
// columns the codec depends on.
func (s *Store) CheckSchema() error {
	columns, err := database.GetTableColumns(s.db, audit.ChangeSet{}.TableName())
	if err != nil {
		return err
	}
	found := map[string]bool{}
	for _, col := range columns {
		found[col.Field] = true
	}
	for _, required := range []string{"old_values", "new_values"} {
		if !found[required] {
			return fmt.Errorf("audit table missing column %q", required)
		}
	}
	return nil
}
