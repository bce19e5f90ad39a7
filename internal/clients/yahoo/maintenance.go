package yahoo

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/marketdata"
)

// staleRetention keeps recently-expired entries around so the fetch
// coordinator's stale fallback still has something to serve after a purge.
const staleRetention = 24 * time.Hour

// MaintenanceJob periodically evicts long-expired cache entries and persists
// a snapshot. It is scheduled from the composition root via cron.
type MaintenanceJob struct {
	snapshotter *Snapshotter
	quotes      *marketdata.TTLCache
	data        *marketdata.TTLCache
	log         zerolog.Logger
}

func NewMaintenanceJob(snapshotter *Snapshotter, quotes, data *marketdata.TTLCache, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		snapshotter: snapshotter,
		quotes:      quotes,
		data:        data,
		log:         log.With().Str("component", "maintenance").Logger(),
	}
}

// Run satisfies cron.Job.
func (j *MaintenanceJob) Run() {
	removed := j.quotes.PurgeExpired(staleRetention) + j.data.PurgeExpired(staleRetention)
	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("Purged expired cache entries")
	}
	if err := j.snapshotter.Save(); err != nil {
		j.log.Error().Err(err).Msg("Failed to save cache snapshot")
	}
}
