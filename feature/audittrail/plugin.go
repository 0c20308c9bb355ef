package audittrail

import (
	"reflect"

	"github.com/wangkanai/foundation/core/audit"
	"github.com/wangkanai/foundation/core/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Plugin hooks GORM's mutation pipelines and records one audit change
// set per mutated entity. It implements gorm.Plugin.
type Plugin struct {
	store    *Store
	archiver *Archiver // nil disables blob offloading
	logger   *zap.Logger
}

// NewPlugin creates the audit plugin. The archiver may be nil.
func NewPlugin(store *Store, archiver *Archiver, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugin{store: store, archiver: archiver, logger: logger}
}

// Name implements gorm.Plugin.
func (p *Plugin) Name() string { return "audittrail" }

// Initialize registers the after-mutation callbacks.
func (p *Plugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("audittrail:after_create", p.afterCreate); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("audittrail:after_update", p.afterUpdate); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("audittrail:before_delete", p.beforeDelete)
}

func (p *Plugin) afterCreate(db *gorm.DB)  { p.record(db, audit.TrailCreate) }
func (p *Plugin) afterUpdate(db *gorm.DB)  { p.record(db, audit.TrailUpdate) }
func (p *Plugin) beforeDelete(db *gorm.DB) { p.record(db, audit.TrailDelete) }

var auditTable = audit.ChangeSet{}.TableName()

func (p *Plugin) record(db *gorm.DB, trail audit.TrailType) {
	if db.Error != nil || db.Statement == nil || db.Statement.Schema == nil {
		return
	}
	// Never audit the audit table itself.
	if db.Statement.Schema.Table == auditTable {
		return
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			p.recordOne(db, reflect.Indirect(rv.Index(i)), trail)
		}
	case reflect.Struct:
		p.recordOne(db, rv, trail)
	}
}

// updateColumns returns the column names the update statement actually
// sets, taken from its built SET clause. Nil when no SET clause exists.
func updateColumns(db *gorm.DB) map[string]bool {
	c, ok := db.Statement.Clauses["SET"]
	if !ok {
		return nil
	}
	set, ok := c.Expression.(clause.Set)
	if !ok || len(set) == 0 {
		return nil
	}
	cols := make(map[string]bool, len(set))
	for _, assignment := range set {
		cols[assignment.Column.Name] = true
	}
	return cols
}

// recordOne captures one entity's state. Snapshots land in the new-state
// blob for creates and updates and in the old-state blob for deletes;
// the counterpart side stays absent. Updates are limited to the columns
// the statement set; a before-image would cost an extra select per
// mutation, so only the after-state is recorded.
func (p *Plugin) recordOne(db *gorm.DB, rv reflect.Value, trail audit.TrailType) {
	ctx := db.Statement.Context
	sch := db.Statement.Schema

	pk := ""
	if f := sch.PrioritizedPrimaryField; f != nil {
		if v, isZero := f.ValueOf(ctx, rv); !isZero {
			pk = utils.ToString(v)
		}
	}
	if pk == "" {
		// Nothing to key the record on; skip rather than record garbage.
		p.logger.Debug("audit trail: skipping row without primary key",
			zap.String("entity", sch.Table))
		return
	}

	cs, err := audit.NewChangeSet(sch.Table, pk, trail, UserFromContext(ctx))
	if err != nil {
		p.logger.Warn("audit trail: change set rejected", zap.Error(err))
		return
	}

	var changed map[string]bool
	if trail == audit.TrailUpdate {
		changed = updateColumns(db)
	}

	state := make(map[string]any, len(sch.Fields))
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		if changed != nil && !changed[f.DBName] {
			continue
		}
		if v, isZero := f.ValueOf(ctx, rv); !isZero {
			state[f.DBName] = v
		}
	}

	if trail == audit.TrailDelete {
		err = cs.WriteChanges(state, nil)
	} else {
		err = cs.WriteChanges(nil, state)
	}
	if err != nil {
		p.logger.Warn("audit trail: encode changes failed",
			zap.String("entity", sch.Table), zap.Error(err))
		return
	}

	if p.archiver != nil {
		if err := p.archiver.Offload(ctx, cs); err != nil {
			// Keep the inline blob; offloading is an optimization.
			p.logger.Warn("audit trail: blob offload failed", zap.Error(err))
		}
	}

	if err := p.store.Save(ctx, cs); err != nil {
		p.logger.Warn("audit trail: save failed",
			zap.String("entity", sch.Table), zap.String("primary_key", pk), zap.Error(err))
	}
}
