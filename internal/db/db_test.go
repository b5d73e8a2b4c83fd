package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(&config.Config{DB: config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"}})
	require.NoError(t, err, "failed to create test database")
	require.NoError(t, Migrate(db), "failed to migrate test database")

	return db
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	require.ErrorIs(t, err, ErrConfigNil)
}

func TestMigrateCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}
}

func TestPermissionNameFollowsResourceAction(t *testing.T) {
	db := openTestDB(t)

	perm := models.Permission{Name: "stale label", Resource: "cases", Action: "read"}
	require.NoError(t, db.Create(&perm).Error)
	assert.Equal(t, "cases.read", perm.Name)

	perm.Action = "update"
	require.NoError(t, db.Save(&perm).Error)

	var stored models.Permission
	require.NoError(t, db.First(&stored, perm.ID).Error)
	assert.Equal(t, "cases.update", stored.Name)
}

func TestSummaryUniquePerLawyer(t *testing.T) {
	db := openTestDB(t)

	lawyer := models.Lawyer{Email: "a@example.com", Name: "A"}
	require.NoError(t, db.Create(&lawyer).Error)

	require.NoError(t, db.Create(&models.EarningsSummary{LawyerID: lawyer.ID}).Error)

	err := db.Create(&models.EarningsSummary{LawyerID: lawyer.ID}).Error
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.EarningsSummary{}).Where("lawyer_id = ?", lawyer.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
