package maintenance

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hireloop/takehome/internal/database"
	"github.com/hireloop/takehome/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestCleaner(db *gorm.DB, at time.Time) *Cleaner {
	cleaner := NewCleaner(db, Config{
		TokenRetention: 720 * time.Hour,
		AuditRetention: 720 * time.Hour,
	})
	cleaner.now = func() time.Time { return at }
	return cleaner
}

func TestPurgeTokens(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)

	repo := &models.CandidateRepo{InviteID: "11111111-1111-1111-1111-111111111111", GitProvider: "github"}
	require.NoError(t, db.Create(repo).Error)

	ancient := now.Add(-1000 * time.Hour)
	recent := now.Add(-time.Hour)

	// long revoked: purged
	require.NoError(t, db.Create(&models.RepoAccessToken{
		CandidateRepoID: repo.ID, TokenHash: "old-revoked",
		ExpiresAt: ancient, RevokedAt: &ancient,
	}).Error)
	// recently revoked: kept
	require.NoError(t, db.Create(&models.RepoAccessToken{
		CandidateRepoID: repo.ID, TokenHash: "new-revoked",
		ExpiresAt: now.Add(time.Hour), RevokedAt: &recent,
	}).Error)
	// long expired, never revoked: purged
	require.NoError(t, db.Create(&models.RepoAccessToken{
		CandidateRepoID: repo.ID, TokenHash: "old-expired",
		ExpiresAt: ancient,
	}).Error)
	// live: kept
	require.NoError(t, db.Create(&models.RepoAccessToken{
		CandidateRepoID: repo.ID, TokenHash: "live",
		ExpiresAt: now.Add(time.Hour),
	}).Error)

	cleaner := newTestCleaner(db, now)
	require.NoError(t, cleaner.PurgeTokens())

	var remaining []models.RepoAccessToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)

	hashes := []string{remaining[0].TokenHash, remaining[1].TokenHash}
	require.ElementsMatch(t, []string{"new-revoked", "live"}, hashes)
}

func TestPurgeAuditEvents(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)

	old := models.AuditEvent{EventType: "invite.started"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&old).Update("created_at", now.Add(-1000*time.Hour)).Error)

	fresh := models.AuditEvent{EventType: "invite.submitted"}
	require.NoError(t, db.Create(&fresh).Error)
	require.NoError(t, db.Model(&fresh).Update("created_at", now.Add(-time.Hour)).Error)

	cleaner := newTestCleaner(db, now)
	require.NoError(t, cleaner.RunAll())

	var remaining []models.AuditEvent
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "invite.submitted", remaining[0].EventType)
}
