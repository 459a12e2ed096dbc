package collab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syncpad/syncpad/internal/document"
	"github.com/syncpad/syncpad/internal/registry"
	"github.com/syncpad/syncpad/internal/store"
)

// failingStore rejects every write, for persistence-failure paths.
type failingStore struct{}

func (failingStore) Put(ctx context.Context, id, content string) error {
	return errors.New("disk on fire")
}

func (failingStore) Get(ctx context.Context, id string) (string, error) {
	return "", store.ErrNotFound
}

func (failingStore) Delete(ctx context.Context, id string) error {
	return errors.New("disk on fire")
}

func TestSnapshotLastWriteWins(t *testing.T) {
	reg := registry.New()
	st := store.NewMemoryStore()
	sched := NewScheduler(reg, st, time.Second)
	reg.FindOrCreate("d1", "a@x.com")

	ctx := context.Background()
	require.NoError(t, sched.Snapshot(ctx, "d1", "a@x.com", "first"))
	require.NoError(t, sched.Snapshot(ctx, "d1", "a@x.com", "second"))

	doc, err := reg.Get("d1")
	require.NoError(t, err)
	require.Equal(t, "second", doc.Data)

	persisted, err := st.Get(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "second", persisted)
}

func TestSnapshotIgnoresViewer(t *testing.T) {
	reg := registry.New()
	st := store.NewMemoryStore()
	sched := NewScheduler(reg, st, time.Second)
	reg.FindOrCreate("d1", "a@x.com")
	reg.UpdateMembership("d1", "a@x.com", "v@x.com", document.RoleViewer)

	ctx := context.Background()
	require.NoError(t, sched.Snapshot(ctx, "d1", "a@x.com", "real"))
	require.NoError(t, sched.Snapshot(ctx, "d1", "v@x.com", "vandalism"))

	doc, _ := reg.Get("d1")
	require.Equal(t, "real", doc.Data)
	persisted, _ := st.Get(ctx, "d1")
	require.Equal(t, "real", persisted)
}

func TestSnapshotStoreFailureKeepsMemoryState(t *testing.T) {
	reg := registry.New()
	sched := NewScheduler(reg, failingStore{}, time.Second)
	reg.FindOrCreate("d1", "a@x.com")

	err := sched.Snapshot(context.Background(), "d1", "a@x.com", "content")
	require.Error(t, err)

	// the in-memory record still advanced: other participants are unaffected
	doc, getErr := reg.Get("d1")
	require.NoError(t, getErr)
	require.Equal(t, "content", doc.Data)
}

func TestSnapshotUnknownDocument(t *testing.T) {
	reg := registry.New()
	sched := NewScheduler(reg, store.NewMemoryStore(), time.Second)
	err := sched.Snapshot(context.Background(), "missing", "a@x.com", "x")
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestLoadMissingSnapshotIsEmpty(t *testing.T) {
	sched := NewScheduler(registry.New(), store.NewMemoryStore(), time.Second)
	content, err := sched.Load(context.Background(), "never-saved")
	require.NoError(t, err)
	require.Equal(t, "", content)
}

func TestPurgeRemovesSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	sched := NewScheduler(registry.New(), st, time.Second)
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, "d1", "content"))

	require.NoError(t, sched.Purge(ctx, "d1"))
	_, err := st.Get(ctx, "d1")
	require.ErrorIs(t, err, store.ErrNotFound)

	// purging an id with no snapshot is not an error
	require.NoError(t, sched.Purge(ctx, "never-saved"))
}

func TestPurgeStoreFailure(t *testing.T) {
	sched := NewScheduler(registry.New(), failingStore{}, time.Second)
	require.Error(t, sched.Purge(context.Background(), "d1"))
}

func TestDefaultInterval(t *testing.T) {
	sched := NewScheduler(registry.New(), store.NewMemoryStore(), 0)
	require.Equal(t, 2*time.Second, sched.Interval())
}
