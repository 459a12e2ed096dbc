package collab

import (
	"context"
	"fmt"
	"time"

	"github.com/syncpad/syncpad/internal/registry"
	"github.com/syncpad/syncpad/internal/store"
	"github.com/syncpad/syncpad/pkg/logger"
	"github.com/syncpad/syncpad/pkg/metrics"
)

// Scheduler applies snapshot writes on the persistence cadence. Each active
// session runs its own flush loop on Interval; the scheduler is the shared
// write path that gates by role and talks to the durable store.
type Scheduler struct {
	reg      *registry.Registry
	store    store.Store
	interval time.Duration
}

func NewScheduler(reg *registry.Registry, st store.Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Scheduler{reg: reg, store: st, interval: interval}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// Snapshot overwrites the document's stored content, last write wins: no
// version vector, no conflict detection between concurrent writers. Viewer
// and none snapshots are ignored. A durable-store failure is returned to the
// initiating session only and retried on its next tick; the in-memory record
// keeps the new content either way, so relay traffic is unaffected.
func (s *Scheduler) Snapshot(ctx context.Context, docID, identity, content string) error {
	role, err := s.reg.Resolve(docID, identity)
	if err != nil {
		return err
	}
	if !role.CanEdit() {
		logger.Debugf("scheduler: ignored snapshot from %s on %s (role=%s)", identity, docID, role)
		return nil
	}
	if err := s.reg.SetData(docID, content); err != nil {
		return err
	}
	if err := s.store.Put(ctx, docID, content); err != nil {
		metrics.SnapshotFailures.Inc()
		return fmt.Errorf("persist %s: %w", docID, err)
	}
	metrics.SnapshotsPersisted.Inc()
	return nil
}

// Purge removes the persisted snapshot for id. Run after a document is
// deleted so a later find-or-create of the same id starts empty instead of
// warming from the dead document's content.
func (s *Scheduler) Purge(ctx context.Context, docID string) error {
	if err := s.store.Delete(ctx, docID); err != nil && err != store.ErrNotFound {
		return fmt.Errorf("purge %s: %w", docID, err)
	}
	return nil
}

// Load returns the persisted snapshot for id, or "" when none exists yet.
// Used to warm the in-memory record when a document is first opened.
func (s *Scheduler) Load(ctx context.Context, docID string) (string, error) {
	content, err := s.store.Get(ctx, docID)
	if err != nil {
		if err == store.ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return content, nil
}
