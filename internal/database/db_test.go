package database

import (
	"reflect"
	"testing"
	"testing/fstest"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_rows.up.sql":   {Data: []byte("SELECT 2")},
		"001_runs.up.sql":   {Data: []byte("SELECT 1")},
		"001_runs.down.sql": {Data: []byte("SELECT 0")},
		"README.md":         {Data: []byte("notes")},
		"sub/003.up.sql":    {Data: []byte("SELECT 3")},
	}

	got, err := PendingMigrations(fsys, map[string]bool{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"001_runs.up.sql", "002_rows.up.sql"}; !reflect.DeepEqual(got, want) {
		t.Errorf("pending = %v, want %v", got, want)
	}

	got, err = PendingMigrations(fsys, map[string]bool{"001_runs.up.sql": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"002_rows.up.sql"}; !reflect.DeepEqual(got, want) {
		t.Errorf("pending = %v, want %v", got, want)
	}
}
