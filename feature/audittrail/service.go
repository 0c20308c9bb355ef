package audittrail

import (
	"context"
	"fmt"
	"time"

	"github.com/wangkanai/foundation/core/audit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrailView is the decoded, read-side shape of one change set.
type TrailView struct {
	ID             string          `json:"id"`
	EntityName     string          `json:"entity_name"`
	PrimaryKey     string          `json:"primary_key"`
	Timestamp      time.Time       `json:"timestamp"`
	TrailType      audit.TrailType `json:"trail_type"`
	UserID         string          `json:"user_id,omitempty"`
	ChangedColumns []string        `json:"changed_columns,omitempty"`
	OldValues      map[string]any  `json:"old_values,omitempty"`
	NewValues      map[string]any  `json:"new_values,omitempty"`
}

// Service queries recorded trails and decodes their blobs for display.
type Service struct {
	store    *Store
	archiver *Archiver // nil when archiving is disabled
	logger   *zap.Logger
}

// NewService creates the read-side service. The archiver may be nil.
func NewService(store *Store, archiver *Archiver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, archiver: archiver, logger: logger}
}

// List returns the most recent trails for an entity with decoded state.
func (s *Service) List(ctx context.Context, entityName string, limit int) ([]TrailView, error) {
	trails, err := s.store.ListByEntity(ctx, entityName, limit)
	if err != nil {
		return nil, err
	}
	views := make([]TrailView, 0, len(trails))
	for i := range trails {
		views = append(views, s.view(ctx, &trails[i]))
	}
	return views, nil
}

// Get returns a single trail with decoded state.
func (s *Service) Get(ctx context.Context, id string) (*TrailView, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed trail id %q", audit.ErrInvalidArgument, id)
	}
	cs, err := s.store.GetByID(ctx, parsed)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, cs)
	return &v, nil
}

// view decodes one change set. Archive references are resolved when an
// archiver is wired; resolve failures fall back to whatever is inline.
func (s *Service) view(ctx context.Context, cs *audit.ChangeSet) TrailView {
	if s.archiver != nil && (IsArchived(cs.OldValues) || IsArchived(cs.NewValues)) {
		if err := s.archiver.Resolve(ctx, cs); err != nil {
			s.logger.Warn("audit trail: archive resolve failed",
				zap.String("id", cs.ID.String()), zap.Error(err))
		}
	}
	return TrailView{
		ID:             cs.ID.String(),
		EntityName:     cs.EntityName,
		PrimaryKey:     cs.PrimaryKey,
		Timestamp:      cs.Timestamp,
		TrailType:      cs.TrailType,
		UserID:         cs.UserID,
		ChangedColumns: cs.Columns(),
		OldValues:      cs.OldValuesMap(),
		NewValues:      cs.NewValuesMap(),
	}
}
