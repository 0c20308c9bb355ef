package audittrail

import (
	"context"
	"testing"

	"github.com/wangkanai/foundation/core/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type product struct {
	ID    uint `gorm:"primaryKey"`
	Name  string
	Price float64
}

// setupAuditedDB opens a single-connection in-memory database so the
// plugin's fresh-session insert lands in the same database as the
// audited statement, without transactions holding it out.
func setupAuditedDB(t *testing.T) (*gorm.DB, *Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&product{}))

	store := NewStore(db)
	require.NoError(t, store.Migrate())
	require.NoError(t, db.Use(NewPlugin(store, nil, nil)))
	return db, store
}

func trailsFor(t *testing.T, store *Store, entity string) []audit.ChangeSet {
	t.Helper()
	trails, err := store.ListByEntity(context.Background(), entity, 0)
	require.NoError(t, err)
	return trails
}

func TestPluginRecordsCreate(t *testing.T) {
	db, store := setupAuditedDB(t)

	ctx := WithUser(context.Background(), "alice")
	p := product{Name: "widget", Price: 9.5}
	require.NoError(t, db.WithContext(ctx).Create(&p).Error)

	trails := trailsFor(t, store, "products")
	require.Len(t, trails, 1)

	cs := trails[0]
	assert.Equal(t, audit.TrailCreate, cs.TrailType)
	assert.Equal(t, "1", cs.PrimaryKey)
	assert.Equal(t, "alice", cs.UserID)
	assert.Nil(t, cs.OldValues)

	state := cs.NewValuesMap()
	assert.Equal(t, "widget", state["name"])
	assert.Equal(t, 9.5, state["price"])
}

func TestPluginRecordsUpdate(t *testing.T) {
	db, store := setupAuditedDB(t)

	p := product{Name: "widget", Price: 9.5}
	require.NoError(t, db.Create(&p).Error)

	p.Price = 12.0
	require.NoError(t, db.Save(&p).Error)

	trails := trailsFor(t, store, "products")
	require.Len(t, trails, 2)

	var update *audit.ChangeSet
	for i := range trails {
		if trails[i].TrailType == audit.TrailUpdate {
			update = &trails[i]
		}
	}
	require.NotNil(t, update)
	assert.Nil(t, update.OldValues)

	v, found := update.ReadNewValue("price")
	require.True(t, found)
	assert.Equal(t, 12.0, v)
}

func TestPluginUpdateRecordsChangedColumnsOnly(t *testing.T) {
	db, store := setupAuditedDB(t)

	p := product{Name: "widget", Price: 9.5}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Model(&p).Update("price", 50.0).Error)

	trails := trailsFor(t, store, "products")
	require.Len(t, trails, 2)

	var update *audit.ChangeSet
	for i := range trails {
		if trails[i].TrailType == audit.TrailUpdate {
			update = &trails[i]
		}
	}
	require.NotNil(t, update)

	// Only the column the statement set is recorded, not the full row.
	assert.Equal(t, []string{"price"}, update.Columns())
	state := update.NewValuesMap()
	assert.Equal(t, map[string]any{"price": 50.0}, state)
	assert.NotContains(t, state, "name")
}

func TestPluginRecordsDelete(t *testing.T) {
	db, store := setupAuditedDB(t)

	p := product{Name: "widget", Price: 9.5}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Delete(&p).Error)

	trails := trailsFor(t, store, "products")
	require.Len(t, trails, 2)

	var del *audit.ChangeSet
	for i := range trails {
		if trails[i].TrailType == audit.TrailDelete {
			del = &trails[i]
		}
	}
	require.NotNil(t, del)
	assert.Nil(t, del.NewValues)

	state := del.OldValuesMap()
	assert.Equal(t, "widget", state["name"])
}

func TestPluginRecordsBatchCreate(t *testing.T) {
	db, store := setupAuditedDB(t)

	items := []product{
		{Name: "widget", Price: 1},
		{Name: "gadget", Price: 2},
		{Name: "gizmo", Price: 3},
	}
	require.NoError(t, db.Create(&items).Error)

	trails := trailsFor(t, store, "products")
	assert.Len(t, trails, 3)

	keys := map[string]bool{}
	for _, cs := range trails {
		keys[cs.PrimaryKey] = true
		assert.Equal(t, audit.TrailCreate, cs.TrailType)
	}
	assert.Equal(t, map[string]bool{"1": true, "2": true, "3": true}, keys)
}

func TestPluginNeverAuditsAuditTable(t *testing.T) {
	db, store := setupAuditedDB(t)

	cs, err := audit.NewChangeSet("products", "7", audit.TrailCreate, "")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), cs))

	var count int64
	require.NoError(t, db.Model(&audit.ChangeSet{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPluginSkipsRowsWithoutPrimaryKey(t *testing.T) {
	db, store := setupAuditedDB(t)

	// A delete keyed only by a condition carries no struct primary key.
	require.NoError(t, db.Where("name = ?", "ghost").Delete(&product{}).Error)

	trails := trailsFor(t, store, "products")
	assert.Empty(t, trails)
}

func TestStoreGetByID(t *testing.T) {
	db, store := setupAuditedDB(t)

	p := product{Name: "widget", Price: 9.5}
	require.NoError(t, db.Create(&p).Error)

	trails := trailsFor(t, store, "products")
	require.Len(t, trails, 1)

	got, err := store.GetByID(context.Background(), trails[0].ID)
	require.NoError(t, err)
	assert.Equal(t, trails[0].ID, got.ID)
	assert.Equal(t, "products", got.EntityName)
}

func TestStoreListLimit(t *testing.T) {
	db, store := setupAuditedDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&product{Name: "widget", Price: float64(i)}).Error)
	}

	trails, err := store.ListByEntity(context.Background(), "products", 2)
	require.NoError(t, err)
	assert.Len(t, trails, 2)
}

func TestStoreCheckSchema(t *testing.T) {
	_, store := setupAuditedDB(t)
	assert.NoError(t, store.CheckSchema())
}
