package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtlprog/condoexport/internal/aggregate"
	"github.com/mtlprog/condoexport/internal/cache"
	"github.com/mtlprog/condoexport/internal/config"
)

var upstreamRoutes = map[string]string{
	"/financials/get-financial-years":      `{"data":[{"nomAbrege":"2425","displayYears":"2024-2025","isCurrent":true}]}`,
	"/financials/get-balance-budgets/2425": `{"data":[{"accountNumber":1,"accountType":7,"amount":12}]}`,
	"/financials/get-payable-balances":     `{"data":[{"accountNumber":2,"accountType":5,"supplier":"Hydro","amount":3}]}`,
	"/financials/get-receivable-balances":  `{"data":[]}`,
	"/financials/get-all-accounts":         `{"data":[{"accountNumber":1,"accountType":7,"unitNumber":" 101 "}]}`,
	"/financials/get-financial-years/1/":   `{"data":[{"nomAbrege":"2425","userHasData":true}]}`,
	"/financials/get-account-statement/1": `{"data":[{"accountNumber":1,"accountType":7,"balance":50,"address":"1 Main",
		"transactions":[{"transactionNumber":42,"transactionDate":"2024-05-01","refusedData":null}]}]}`,
	"/financials/get-account-statement-transaction-data": `{"data":[{"transactionNumber":42,"transactionDate":"2024-05-01"}]}`,
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := upstreamRoutes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		CacheDir:  filepath.Join(dir, "data"),
		ExportDir: filepath.Join(dir, "csv"),
	}
}

func TestScrapeThenTabulate(t *testing.T) {
	server := newUpstream(t)
	cfg := testConfig(t)
	ctx := context.Background()

	err := newApp(cfg).RunContext(ctx, []string{
		"condoexport", "scrape",
		"--token", "t", "--manager-slug", "acme", "--manager-id", "3", "--association-id", "9",
		"--base-url", server.URL, "--delay", "0s",
	})
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.CacheDir, "financials", "get-account-statement-transaction-data", "42.json")); err != nil {
		t.Fatalf("transaction 42 not cached: %v", err)
	}

	xlsxPath := filepath.Join(t.TempDir(), "export.xlsx")
	if err := newApp(cfg).RunContext(ctx, []string{"condoexport", "tabulate", "--xlsx", xlsxPath}); err != nil {
		t.Fatalf("tabulate: %v", err)
	}

	for _, name := range []string{
		"financial-years.csv",
		"account-statements.csv",
		"accounts.csv",
		"payable-balances.csv",
		"receivable-balances.csv",
		"annual-budgets/2024-2025.csv",
		"transactions.csv",
	} {
		if _, err := os.Stat(filepath.Join(cfg.ExportDir, name)); err != nil {
			t.Errorf("missing export %s: %v", name, err)
		}
	}
	if _, err := os.Stat(xlsxPath); err != nil {
		t.Errorf("missing workbook: %v", err)
	}

	accounts, err := os.ReadFile(filepath.Join(cfg.ExportDir, "accounts.csv"))
	if err != nil {
		t.Fatalf("reading accounts.csv: %v", err)
	}
	want := "accountTypeName,accountNumber,accountType,unitNumber,balance,address\nOwners,1,7,101,50,1 Main\n"
	if string(accounts) != want {
		t.Errorf("accounts.csv = %q, want %q", accounts, want)
	}

	statements, err := os.ReadFile(filepath.Join(cfg.ExportDir, "account-statements.csv"))
	if err != nil {
		t.Fatalf("reading account-statements.csv: %v", err)
	}
	if strings.Contains(string(statements), "refusedData") {
		t.Errorf("account-statements.csv exports refusedData: %q", statements)
	}
}

func TestScrapeMissingCredentialFailsBeforeIO(t *testing.T) {
	t.Setenv("CONDOWEB_TOKEN", "")
	os.Unsetenv("CONDOWEB_TOKEN")

	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer server.Close()

	cfg := testConfig(t)
	err := newApp(cfg).RunContext(context.Background(), []string{
		"condoexport", "scrape",
		"--manager-slug", "acme", "--manager-id", "3", "--association-id", "9",
		"--base-url", server.URL,
	})
	if err == nil {
		t.Fatal("expected error for missing --token")
	}
	if !strings.Contains(err.Error(), "token") {
		t.Errorf("error %q does not name the missing flag", err)
	}
	if hits != 0 {
		t.Errorf("upstream hit %d times", hits)
	}
	if _, err := os.Stat(cfg.CacheDir); !os.IsNotExist(err) {
		t.Errorf("cache dir created: %v", err)
	}
}

func TestTabulateStrictRejectsMissingAccountType(t *testing.T) {
	cfg := testConfig(t)
	store := cache.NewFileStore(cfg.CacheDir)
	for key, body := range map[cache.Key]string{
		cache.FinancialYearsKey:     `{"data":[{"nomAbrege":"2425","displayYears":"2024-2025","isCurrent":true}]}`,
		cache.AllAccountsKey:        `{"data":[{"accountNumber":1}]}`,
		cache.PayableBalancesKey:    `{"data":[]}`,
		cache.ReceivableBalancesKey: `{"data":[]}`,
	} {
		if err := store.Write(key, []byte(body)); err != nil {
			t.Fatalf("writing %s: %v", key, err)
		}
	}

	err := newApp(cfg).RunContext(context.Background(), []string{"condoexport", "tabulate", "--strict"})
	if !errors.Is(err, aggregate.ErrIntegrity) {
		t.Fatalf("err = %v, want ErrIntegrity", err)
	}
	if _, err := os.Stat(cfg.ExportDir); !os.IsNotExist(err) {
		t.Errorf("export dir written under --strict: %v", err)
	}

	if err := newApp(cfg).RunContext(context.Background(), []string{"condoexport", "tabulate"}); err != nil {
		t.Fatalf("tabulate without --strict: %v", err)
	}
	accounts, err := os.ReadFile(filepath.Join(cfg.ExportDir, "accounts.csv"))
	if err != nil {
		t.Fatalf("reading accounts.csv: %v", err)
	}
	if want := "accountTypeName,accountNumber,unitNumber,balance,address\n,1,,0,\n"; string(accounts) != want {
		t.Errorf("accounts.csv = %q, want %q", accounts, want)
	}
}
