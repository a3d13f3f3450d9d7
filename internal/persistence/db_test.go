package persistence

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "hexworlds.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMapRecord(t *testing.T) {
	db := openTemp(t)

	if _, err := db.LoadMap(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadMap on empty db: %v", err)
	}

	at := time.UnixMilli(1_700_000_000_123)
	if err := db.SaveMap(at, []byte(`{"hexes":[]}`)); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMap(at.Add(3*time.Second), []byte(`{"hexes":[{"q":1,"r":2}]}`)); err != nil {
		t.Fatal(err)
	}

	rec, err := db.LoadMap()
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != CurrentMapID || rec.Data != `{"hexes":[{"q":1,"r":2}]}` {
		t.Errorf("record = %+v", rec)
	}
	if !rec.Time().Equal(at.Add(3 * time.Second)) {
		t.Errorf("timestamp = %v", rec.Time())
	}

	if err := db.ClearMap(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadMap(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadMap after clear: %v", err)
	}
}

func TestShares(t *testing.T) {
	db := openTemp(t)
	id, err := db.SaveShare(time.Now(), []byte(`{"version":"1.2"}`))
	if err != nil {
		t.Fatal(err)
	}
	rec, err := db.LoadShare(id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != id || rec.Data != `{"version":"1.2"}` {
		t.Errorf("share = %+v", rec)
	}

	for _, bad := range []string{"nope", "3f1c1b9a-0000-4000-8000-000000000000"} {
		if _, err := db.LoadShare(bad); !errors.Is(err, ErrNotFound) {
			t.Errorf("LoadShare(%q) = %v", bad, err)
		}
	}
}

func TestEventsAndMeta(t *testing.T) {
	db := openTemp(t)
	err := db.AppendEvents([]Event{
		{At: 1, Kind: "import", Detail: "12 hexes"},
		{At: 2, Kind: "clear", Detail: ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	events, err := db.RecentEvents(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Kind != "clear" {
		t.Errorf("events = %+v", events)
	}

	if _, err := db.GetMeta("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMeta missing = %v", err)
	}
	db.SaveMeta("schema", "1.2")
	if v, err := db.GetMeta("schema"); err != nil || v != "1.2" {
		t.Errorf("GetMeta = %q, %v", v, err)
	}
}
