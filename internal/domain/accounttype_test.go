package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAccountTypeName(t *testing.T) {
	tests := []struct {
		code AccountType
		want string
	}{
		{0, "Assets"},
		{1, "Expenses"},
		{2, "Receivables"},
		{3, "Liabilities"},
		{4, "Revenues"},
		{5, "Suppliers"},
		{6, "Capital"},
		{7, "Owners"},
	}
	for _, tt := range tests {
		got, err := tt.code.Name()
		if err != nil {
			t.Errorf("AccountType(%d).Name() error: %v", tt.code, err)
			continue
		}
		if got != tt.want {
			t.Errorf("AccountType(%d).Name() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestAccountTypeNameOutOfRange(t *testing.T) {
	for _, code := range []AccountType{-1, 8, 99} {
		name, err := code.Name()
		if !errors.Is(err, ErrUnknownAccountType) {
			t.Errorf("AccountType(%d).Name() err = %v, want ErrUnknownAccountType", code, err)
		}
		if name != "" {
			t.Errorf("AccountType(%d).Name() = %q, want empty", code, name)
		}
		if code.Valid() {
			t.Errorf("AccountType(%d).Valid() = true", code)
		}
	}
}

func TestAccountTypeString(t *testing.T) {
	if got := AccountTypeRevenues.String(); got != "Revenues" {
		t.Errorf("String() = %q, want Revenues", got)
	}
	if got := AccountType(99).String(); got != "AccountType(99)" {
		t.Errorf("String() = %q, want AccountType(99)", got)
	}
}

func TestAccountTypeMissingOrNull(t *testing.T) {
	tests := map[string]string{
		"missing": `{"accountNumber":1}`,
		"null":    `{"accountNumber":1,"accountType":null}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			var a Account
			if err := json.Unmarshal([]byte(body), &a); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.AccountType != AccountTypeMissing {
				t.Errorf("AccountType = %v, want missing", a.AccountType)
			}
			if _, err := a.AccountType.Name(); !errors.Is(err, ErrUnknownAccountType) {
				t.Errorf("Name() err = %v, want ErrUnknownAccountType", err)
			}

			var s AccountStatement
			if err := json.Unmarshal([]byte(body), &s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.AccountType != AccountTypeMissing {
				t.Errorf("statement AccountType = %v, want missing", s.AccountType)
			}
		})
	}
}

func TestAccountTypeZeroIsAssets(t *testing.T) {
	var a Account
	if err := json.Unmarshal([]byte(`{"accountNumber":1,"accountType":0}`), &a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.AccountType != AccountTypeAssets {
		t.Errorf("AccountType = %v, want Assets", a.AccountType)
	}
}

func TestAccountTypeRejectsText(t *testing.T) {
	var a Account
	if err := json.Unmarshal([]byte(`{"accountType":"four"}`), &a); err == nil {
		t.Error("expected error for non-numeric account type")
	}
}
