package core

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSweepStale(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	now := time.Now()

	stuck := store.seedImport()
	fresh := store.seedImport()
	done := store.seedImport()
	untouched := store.seedImport()

	store.mu.Lock()
	set := func(id uuid.UUID, status ImportStatus, changed time.Time) {
		imp := store.data.imports[id]
		imp.Status = status
		imp.StatusChangedAt = changed
		store.data.imports[id] = imp
	}
	set(stuck, StatusMapping, now.Add(-3*time.Hour))
	set(fresh, StatusMapping, now.Add(-time.Minute))
	set(done, StatusSuccess, now.Add(-3*time.Hour))
	store.mu.Unlock()

	got := SweepStale(ctx, store, time.Hour, now)
	if len(got) != 1 || got[0].ID != stuck {
		t.Fatalf("stale = %+v, want only %s", got, stuck)
	}

	// The sweep only reports.
	if st := store.importByID(stuck).Status; st != StatusMapping {
		t.Errorf("status = %s, want Mapping", st)
	}
	if st := store.importByID(untouched).Status; st != StatusUploaded {
		t.Errorf("untouched status = %s, want Uploaded", st)
	}
}

func TestSweepConfigDefaults(t *testing.T) {
	c := SweepConfig{}.withDefaults()
	if c.Interval != 15*time.Minute || c.StaleAfter != time.Hour {
		t.Errorf("defaults = %+v", c)
	}
}
