// workers/reconcile_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"github.com/SquirrelThief/playhvz/store"
)

// Reconciler re-runs membership sync for one player.
type Reconciler interface {
	UpdateMembershipOnAllegianceChange(ctx context.Context, gameID, playerID string) error
}

// ReconcileWorker periodically re-syncs every player of every game so that a
// crash between sub-steps of a mutation cannot leave membership stale.
type ReconcileWorker struct {
	store      *store.Store
	reconciler Reconciler
	interval   time.Duration
}

func NewReconcileWorker(st *store.Store, reconciler Reconciler, interval time.Duration) *ReconcileWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReconcileWorker{store: st, reconciler: reconciler, interval: interval}
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	log.Printf("🔁 Starting Reconcile Worker (every %s)…", w.interval)
	go w.run(ctx)
}

func (w *ReconcileWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)
		case <-ctx.Done():
			log.Println("⏹️ Reconcile Worker stopped")
			return
		}
	}
}

// Sweep reconciles every player once and returns how many succeeded and failed.
func (w *ReconcileWorker) Sweep(ctx context.Context) (synced, failed int) {
	games, err := w.store.Games(ctx)
	if err != nil {
		log.Printf("[RECONCILE] ❌ list games: %v", err)
		return 0, 0
	}
	for _, game := range games {
		players, err := w.store.Players.List(ctx, game.ID)
		if err != nil {
			log.Printf("[RECONCILE] ❌ list players of %s: %v", game.ID, err)
			failed++
			continue
		}
		for _, p := range players {
			if ctx.Err() != nil {
				return synced, failed
			}
			if p.UserID == "" {
				continue
			}
			if err := w.reconciler.UpdateMembershipOnAllegianceChange(ctx, game.ID, p.ID); err != nil {
				log.Printf("[RECONCILE] ⚠️ %s/%s: %v", game.ID, p.ID, err)
				failed++
				continue
			}
			synced++
		}
	}
	log.Printf("[RECONCILE] ✅ sweep done: %d synced, %d failed", synced, failed)
	return synced, failed
}
