package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/savanna-table/savanna-backend/internal/metrics"
	"github.com/savanna-table/savanna-backend/pkg/logger"
)

const popularJobName = "popular_items"

// PopularityRefresher is satisfied by the menu service
type PopularityRefresher interface {
	RefreshPopular(topN int) ([]uint, error)
}

// PopularityScheduler periodically flags the most ordered menu items as popular
type PopularityScheduler struct {
	cron      *cron.Cron
	refresher PopularityRefresher
	spec      string
	topN      int
}

func NewPopularityScheduler(refresher PopularityRefresher, spec string, topN int) *PopularityScheduler {
	return &PopularityScheduler{
		cron:      cron.New(),
		refresher: refresher,
		spec:      spec,
		topN:      topN,
	}
}

// Start registers the job and starts the cron loop
func (s *PopularityScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunNow() }); err != nil {
		logger.Error("Failed to add cron job for popular items", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Popular items scheduler started", map[string]interface{}{
		"spec":  s.spec,
		"top_n": s.topN,
	})
	return nil
}

// RunNow recomputes popular items synchronously
func (s *PopularityScheduler) RunNow() error {
	logger.Info("Starting scheduled popular items refresh")

	ids, err := s.refresher.RefreshPopular(s.topN)
	metrics.SchedulerRun(popularJobName, err == nil)
	if err != nil {
		logger.Error("Failed to refresh popular items from scheduler", err)
		return err
	}

	logger.Info("Popular items refreshed from scheduler", map[string]interface{}{
		"popular": ids,
	})
	return nil
}

// Stop waits for a running job to finish
func (s *PopularityScheduler) Stop() {
	logger.Info("Stopping popular items scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Popular items scheduler stopped")
}
