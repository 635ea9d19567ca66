package maintenance

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/takehome/internal/models"
	"github.com/hireloop/takehome/pkg/logger"
)

// Config tunes the background cleanup jobs.
type Config struct {
	TokenRetention time.Duration
	TokenSchedule  string
	AuditRetention time.Duration
	AuditSchedule  string
}

// Cleaner periodically purges revoked or long-expired access token rows and
// stale audit events. Token revocation itself is immediate and synchronous;
// this only trims history.
type Cleaner struct {
	db   *gorm.DB
	cfg  Config
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger
}

// NewCleaner constructs a Cleaner. Call Start to begin scheduling.
func NewCleaner(db *gorm.DB, cfg Config) *Cleaner {
	return &Cleaner{
		db:   db,
		cfg:  cfg,
		cron: cron.New(),
		now:  time.Now,
		log:  logger.WithModule("maintenance"),
	}
}

// Start registers the cron entries and launches the scheduler.
func (c *Cleaner) Start() error {
	if c.cfg.TokenSchedule != "" && c.cfg.TokenRetention > 0 {
		if _, err := c.cron.AddFunc(c.cfg.TokenSchedule, func() {
			if err := c.PurgeTokens(); err != nil {
				c.log.Error("token purge failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule token purge: %w", err)
		}
	}

	if c.cfg.AuditSchedule != "" && c.cfg.AuditRetention > 0 {
		if _, err := c.cron.AddFunc(c.cfg.AuditSchedule, func() {
			if err := c.PurgeAuditEvents(); err != nil {
				c.log.Error("audit purge failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule audit purge: %w", err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (c *Cleaner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// RunAll executes every cleanup job once, combining failures.
func (c *Cleaner) RunAll() error {
	return multierr.Combine(
		c.PurgeTokens(),
		c.PurgeAuditEvents(),
	)
}

// PurgeTokens deletes token rows that were revoked, or expired, before the
// retention window. Rows inside the window are kept for audit.
func (c *Cleaner) PurgeTokens() error {
	cutoff := c.now().UTC().Add(-c.cfg.TokenRetention)

	result := c.db.
		Where("revoked_at IS NOT NULL AND revoked_at < ?", cutoff).
		Or("expires_at < ?", cutoff).
		Delete(&models.RepoAccessToken{})
	if result.Error != nil {
		return fmt.Errorf("maintenance: purge tokens: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		c.log.Info("purged stale access tokens", zap.Int64("count", result.RowsAffected))
	}
	return nil
}

// PurgeAuditEvents deletes audit events older than the retention window.
func (c *Cleaner) PurgeAuditEvents() error {
	cutoff := c.now().UTC().Add(-c.cfg.AuditRetention)

	result := c.db.
		Where("created_at < ?", cutoff).
		Delete(&models.AuditEvent{})
	if result.Error != nil {
		return fmt.Errorf("maintenance: purge audit events: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		c.log.Info("purged stale audit events", zap.Int64("count", result.RowsAffected))
	}
	return nil
}
