package cronjob

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/pkg/logutils"
)

// Sweeper periodically deactivates grants and allocations whose time
// window has passed, so the authorization resolver only ever sees rows
// that are both flagged active and within their window.
type Sweeper struct {
	db   *gorm.DB
	cron *cron.Cron
}

func NewSweeper(db *gorm.DB) *Sweeper {
	return &Sweeper{
		db:   db,
		cron: cron.New(cron.WithLocation(time.Local)),
	}
}

// Start schedules the sweep with the given cron spec and runs one sweep
// immediately so restarts don't leave stale grants active until the next
// tick.
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	go s.sweep()
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	now := time.Now()

	grants := s.db.Model(&model.UserPrivilege{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("is_active", false)
	if grants.Error != nil {
		logutils.Log.Errorf("sweep user privileges: %v", grants.Error)
	} else if grants.RowsAffected > 0 {
		logutils.Log.Infof("deactivated %d expired user privilege grants", grants.RowsAffected)
	}

	allocations := s.db.Model(&model.ProjectAllocation{}).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date <= ?", true, now).
		Update("is_active", false)
	if allocations.Error != nil {
		logutils.Log.Errorf("sweep allocations: %v", allocations.Error)
	} else if allocations.RowsAffected > 0 {
		logutils.Log.Infof("deactivated %d ended project allocations", allocations.RowsAffected)
	}
}
