package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: a single event is added
	d.Add(Event{
		Path:      "/data/report.txt",
		Operation: OpCreate,
		Timestamp: time.Now(),
	})

	// Then: the event passes through after the debounce window
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, "/data/report.txt", events[0].Path)
		assert.Equal(t, OpCreate, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_MultipleEventsForSamePath_Coalesces(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	// When: multiple events for the same path are added rapidly
	for i := 0; i < 5; i++ {
		d.Add(Event{
			Path:      "/var/log/app.log",
			Operation: OpModify,
			Timestamp: time.Now(),
		})
		time.Sleep(10 * time.Millisecond)
	}

	// Then: only one event comes out
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, "/var/log/app.log", events[0].Path)
		assert.Equal(t, OpModify, events[0].Operation)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for debounced events")
	}
}

func TestDebouncer_CreateThenModify_KeepsCreate(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: CREATE followed by MODIFY for the same path
	d.Add(Event{Path: "/data/new.txt", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(Event{Path: "/data/new.txt", Operation: OpModify, Timestamp: time.Now()})

	// Then: a single CREATE is emitted (the path is still new)
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpCreate, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_CreateThenDelete_NoEvent(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: CREATE followed by DELETE for the same path
	d.Add(Event{Path: "/tmp/scratch.txt", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(Event{Path: "/tmp/scratch.txt", Operation: OpDelete, Timestamp: time.Now()})

	// Then: no event is emitted (the path never really existed)
	select {
	case events := <-d.Output():
		t.Fatalf("expected no events, got %d", len(events))
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_DeleteThenCreate_BecomesModify(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: DELETE followed by CREATE for the same path (atomic replace)
	d.Add(Event{Path: "/etc/app.conf", Operation: OpDelete, Timestamp: time.Now()})
	d.Add(Event{Path: "/etc/app.conf", Operation: OpCreate, Timestamp: time.Now()})

	// Then: a single MODIFY is emitted (the path was replaced)
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpModify, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_ModifyThenDelete_KeepsDelete(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: MODIFY followed by DELETE for the same path
	d.Add(Event{Path: "/data/old.txt", Operation: OpModify, Timestamp: time.Now()})
	d.Add(Event{Path: "/data/old.txt", Operation: OpDelete, Timestamp: time.Now()})

	// Then: a single DELETE is emitted
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpDelete, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_DistinctPaths_EmittedTogether(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: events for different paths arrive within the window
	d.Add(Event{Path: "/data/a.txt", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(Event{Path: "/data/b.txt", Operation: OpModify, Timestamp: time.Now()})
	d.Add(Event{Path: "/data/c.txt", Operation: OpDelete, Timestamp: time.Now()})

	// Then: all three come out in one batch
	select {
	case events := <-d.Output():
		require.Len(t, events, 3)
		paths := make(map[string]Operation, len(events))
		for _, e := range events {
			paths[e.Path] = e.Operation
		}
		assert.Equal(t, OpCreate, paths["/data/a.txt"])
		assert.Equal(t, OpModify, paths["/data/b.txt"])
		assert.Equal(t, OpDelete, paths["/data/c.txt"])
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced events")
	}
}

func TestDebouncer_RenameThenCreate_BecomesModify(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: RENAME followed by CREATE for the same path
	d.Add(Event{Path: "/data/moved.txt", Operation: OpRename, Timestamp: time.Now()})
	d.Add(Event{Path: "/data/moved.txt", Operation: OpCreate, Timestamp: time.Now()})

	// Then: a single MODIFY is emitted
	select {
	case events := <-d.Output():
		require.Len(t, events, 1)
		assert.Equal(t, OpModify, events[0].Operation)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_StopIsIdempotent(t *testing.T) {
	// Given: a debouncer
	d := NewDebouncer(50 * time.Millisecond)

	// When: stopped twice
	d.Stop()
	d.Stop()

	// Then: no panic, and adds after stop are ignored
	d.Add(Event{Path: "/data/late.txt", Operation: OpCreate, Timestamp: time.Now()})
	_, open := <-d.Output()
	assert.False(t, open)
}
