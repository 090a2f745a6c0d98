package reclaim

import (
	"sync"
	"time"

	"github.com/GrandEngineering/engine/pkg/log"
	"github.com/GrandEngineering/engine/pkg/metrics"
	"github.com/GrandEngineering/engine/pkg/taskstore"
	"github.com/rs/zerolog"
)

// Reclaimer runs C6's periodic sweep: it wakes every cleanInterval,
// takes the engine's writer lock, and asks the store to move
// processing entries older than threshold back onto their queues.
type Reclaimer struct {
	store  *taskstore.Store
	locker sync.Locker

	cleanInterval time.Duration
	threshold     time.Duration

	logger zerolog.Logger
	stopCh chan struct{}
}

// New builds a Reclaimer. locker must be the same writer lock the
// Dispatch Service serializes RPC handlers under (spec §5).
func New(store *taskstore.Store, locker sync.Locker, cleanInterval, threshold time.Duration) *Reclaimer {
	return &Reclaimer{
		store:         store,
		locker:        locker,
		cleanInterval: cleanInterval,
		threshold:     threshold,
		logger:        log.WithComponent("reclaim"),
		stopCh:        make(chan struct{}),
	}
}

// Start begins the reclaim loop in its own goroutine.
func (r *Reclaimer) Start() {
	go r.run()
}

// Stop halts the loop. It does not wait for an in-flight cycle.
func (r *Reclaimer) Stop() {
	close(r.stopCh)
}

func (r *Reclaimer) run() {
	ticker := time.NewTicker(r.cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cycle()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Reclaimer) cycle() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReclaimCycleDuration)

	r.locker.Lock()
	defer r.locker.Unlock()

	count, err := r.store.ReclaimCycle(r.threshold)
	if err != nil {
		r.logger.Error().Err(err).Msg("reclaim cycle failed, prior state retained")
		metrics.UpdateComponent("dispatch", false, "reclaim cycle failed: "+err.Error())
		return
	}

	// Refreshing "dispatch" here, not just on boot, is what lets
	// metrics.GetHealth detect a wedged ticker: if this stops running,
	// the component goes stale and /health degrades well before queued
	// tasks visibly pile up.
	metrics.UpdateComponent("dispatch", true, "reclaim loop running")

	if count > 0 {
		metrics.TasksReclaimedTotal.WithLabelValues("*", "*").Add(float64(count))
		r.logger.Info().Int("count", count).Msg("reclaimed stale processing tasks")
	} else {
		r.logger.Debug().Msg("reclaim cycle found nothing stale")
	}
}
