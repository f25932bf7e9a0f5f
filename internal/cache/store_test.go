package cache

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileStoreWriteRead(t *testing.T) {
	s := NewFileStore(t.TempDir())
	key := StatementKey(1, "2324")

	if s.Has(key) {
		t.Fatal("Has() = true before write")
	}
	if err := s.Write(key, []byte(`{"data":[]}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Has(key) {
		t.Fatal("Has() = false after write")
	}
	got, err := s.Read(key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != `{"data":[]}` {
		t.Errorf("Read = %s", got)
	}
}

func TestFileStoreWriteIfAbsent(t *testing.T) {
	s := NewFileStore(t.TempDir())
	key := FinancialYearsKey

	if err := s.Write(key, []byte(`{"data":1}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	err := s.Write(key, []byte(`{"data":2}`))
	if !errors.Is(err, ErrExists) {
		t.Fatalf("second Write err = %v, want ErrExists", err)
	}
	got, _ := s.Read(key)
	if string(got) != `{"data":1}` {
		t.Errorf("entry overwritten: %s", got)
	}
}

func TestFileStoreRejectsInvalidJSON(t *testing.T) {
	s := NewFileStore(t.TempDir())
	err := s.Write(FinancialYearsKey, []byte(`<html>`))
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("err = %v, want ErrInvalidJSON", err)
	}
	if s.Has(FinancialYearsKey) {
		t.Error("invalid payload was stored")
	}
}

func TestFileStoreEmptyFileIsAbsent(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	p := filepath.Join(dir, filepath.FromSlash(string(AllAccountsKey)))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if s.Has(AllAccountsKey) {
		t.Error("Has() = true for empty file")
	}
	if _, err := s.Read(AllAccountsKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read err = %v, want ErrNotFound", err)
	}
	if err := s.Write(AllAccountsKey, []byte(`{"data":[]}`)); err != nil {
		t.Errorf("Write over empty file: %v", err)
	}
}

func TestFileStoreReadMissing(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if _, err := s.Read(FinancialYearsKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreList(t *testing.T) {
	s := NewFileStore(t.TempDir())
	for _, k := range []Key{
		StatementKey(2, "2425"),
		AccountFinancialYearsKey(2),
		StatementKey(10, "2324"),
		TransactionDataKey(5),
	} {
		if err := s.Write(k, []byte(`{}`)); err != nil {
			t.Fatalf("Write %s: %v", k, err)
		}
	}

	got, err := s.List(StatementsDir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []Key{
		"financials/get-account-statements/10/2324.json",
		"financials/get-account-statements/2/2425.json",
		"financials/get-account-statements/2/financial-years.json",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestFileStoreWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	key := TransactionDataKey(42)
	if err := s.Write(key, []byte(`{"data":[]}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, filepath.FromSlash(string(TransactionDataDir))))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "42.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only 42.json", names)
	}
}

func TestFileStoreListSkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	if err := s.Write(TransactionDataKey(1), []byte(`{}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// an interrupted atomic write leaves a hidden sibling behind
	leftover := filepath.Join(dir, filepath.FromSlash(string(TransactionDataDir)), ".2.json")
	if err := os.WriteFile(leftover, []byte(`{"partial`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.List(TransactionDataDir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []Key{TransactionDataKey(1)}; !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestFileStoreRoot(t *testing.T) {
	dir := t.TempDir()
	if got := NewFileStore(dir).Root(); got != dir {
		t.Errorf("Root() = %q, want %q", got, dir)
	}
}

func TestFileStoreListMissingDir(t *testing.T) {
	s := NewFileStore(t.TempDir())
	got, err := s.List(BalanceBudgetsDir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List = %v, want empty", got)
	}
}

func TestReadJSON(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if err := s.Write(FinancialYearsKey, []byte(`{"data":[1,2]}`)); err != nil {
		t.Fatal(err)
	}
	var dest struct {
		Data []int `json:"data"`
	}
	if err := ReadJSON(s, FinancialYearsKey, &dest); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(dest.Data) != 2 {
		t.Errorf("Data = %v", dest.Data)
	}
}
