package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpad/syncpad/internal/room"
)

func presenceUpdates(c *room.Conn) [][]string {
	var out [][]string
	for {
		select {
		case e := <-c.Out():
			if e.Event == room.EventActiveUsers {
				out = append(out, e.Data.([]string))
			}
		default:
			return out
		}
	}
}

func TestJoinBroadcastsPresence(t *testing.T) {
	hub := room.NewHub()
	tr := NewTracker(hub, 10*time.Millisecond)
	defer tr.Stop()

	a := room.NewConn("a@x.com", 8)
	hub.Join("d1", a)
	tr.Join("d1", "a@x.com")

	b := room.NewConn("b@x.com", 8)
	hub.Join("d1", b)
	tr.Join("d1", "b@x.com")

	got := presenceUpdates(a)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a@x.com"}, got[0])
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got[1])
}

func TestLeaveIsDebounced(t *testing.T) {
	hub := room.NewHub()
	tr := NewTracker(hub, 30*time.Millisecond)
	defer tr.Stop()

	a := room.NewConn("a@x.com", 8)
	b := room.NewConn("b@x.com", 8)
	hub.Join("d1", a)
	tr.Join("d1", "a@x.com")
	hub.Join("d1", b)
	tr.Join("d1", "b@x.com")
	presenceUpdates(a) // clear

	hub.Leave("d1", b.ID())
	tr.Leave("d1", "b@x.com")

	// nothing announced inside the window
	require.Empty(t, presenceUpdates(a))

	require.Eventually(t, func() bool {
		got := presenceUpdates(a)
		return len(got) == 1 && len(got[0]) == 1 && got[0][0] == "a@x.com"
	}, time.Second, 5*time.Millisecond)
}

func TestRejoinWithinWindowSupersedesDeparture(t *testing.T) {
	hub := room.NewHub()
	tr := NewTracker(hub, 40*time.Millisecond)
	defer tr.Stop()

	watcher := room.NewConn("w@x.com", 32)
	hub.Join("d1", watcher)
	tr.Join("d1", "w@x.com")

	b := room.NewConn("b@x.com", 8)
	hub.Join("d1", b)
	tr.Join("d1", "b@x.com")
	presenceUpdates(watcher) // clear

	// disconnect then reconnect before the window elapses (tab reload)
	hub.Leave("d1", b.ID())
	tr.Leave("d1", "b@x.com")
	b2 := room.NewConn("b@x.com", 8)
	hub.Join("d1", b2)
	tr.Join("d1", "b@x.com")

	// wait past the original window, then assert no update ever dropped b
	time.Sleep(80 * time.Millisecond)
	for _, users := range presenceUpdates(watcher) {
		assert.Contains(t, users, "b@x.com")
	}
}

func TestCurrentCollapsesTabs(t *testing.T) {
	hub := room.NewHub()
	tr := NewTracker(hub, 10*time.Millisecond)
	defer tr.Stop()

	hub.Join("d1", room.NewConn("a@x.com", 8))
	hub.Join("d1", room.NewConn("a@x.com", 8))
	require.Equal(t, []string{"a@x.com"}, tr.Current("d1"))
}
