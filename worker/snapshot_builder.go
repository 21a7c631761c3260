package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"twitter-insights/internal/insight"
	"twitter-insights/internal/storage"
)

// SnapshotBuilder produces one scheduled snapshot per line and period. The
// period marker in redis keeps the scheduler from re-running a period it
// already handled; concurrent manual triggers are deliberately not deduped.
type SnapshotBuilder struct {
	Insights  *insight.Service
	Markers   *storage.PostStore
	LineID    uuid.UUID
	Frequency string // daily or weekly
	Hours     int    // analysis window per run
	Interval  time.Duration
}

func (w *SnapshotBuilder) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
	}
	if w.Hours <= 0 {
		w.Hours = 24
	}
	// run immediately then on interval
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SnapshotBuilder) runOnce(ctx context.Context) {
	period := periodKey(w.Frequency, time.Now().UTC())
	done, err := w.Markers.IsSnapshotted(ctx, w.LineID.String(), period)
	if err != nil {
		log.Printf("snapshot-builder: check period err=%v", err)
		return
	}
	if done {
		return
	}
	snap, err := w.Insights.TriggerSnapshot(ctx, w.LineID, w.Hours)
	if err != nil {
		log.Printf("snapshot-builder: trigger err line=%s err=%v", w.LineID, err)
		return
	}
	if err := w.Markers.MarkSnapshotted(ctx, w.LineID.String(), period, markerTTL(w.Frequency)); err != nil {
		log.Printf("snapshot-builder: mark period err=%v", err)
		return
	}
	log.Printf("snapshot-builder: created snapshot %s for line %s period %s", snap.ID, w.LineID, period)
}

func markerTTL(freq string) time.Duration {
	if freq == "weekly" {
		return 14 * 24 * time.Hour
	}
	return 3 * 24 * time.Hour
}

func periodKey(freq string, t time.Time) string {
	utc := t.UTC()
	switch freq {
	case "weekly":
		y, w := utc.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	default: // daily
		return utc.Format("2006-01-02")
	}
}
