package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gsheet "google.golang.org/api/sheets/v4"
)

func TestA1Ranges(t *testing.T) {
	tests := []struct {
		tab       string
		wantRange string
		wantCell  string
	}{
		{tab: "Costs Raw", wantRange: "'Costs Raw'", wantCell: "'Costs Raw'!A1"},
		{tab: "Bob's Costs", wantRange: "'Bob''s Costs'", wantCell: "'Bob''s Costs'!A1"},
	}
	for _, tt := range tests {
		if got := tabRange(tt.tab); got != tt.wantRange {
			t.Errorf("tabRange(%q) = %q, want %q", tt.tab, got, tt.wantRange)
		}
		if got := topLeft(tt.tab); got != tt.wantCell {
			t.Errorf("topLeft(%q) = %q, want %q", tt.tab, got, tt.wantCell)
		}
	}
}

func TestHasTab(t *testing.T) {
	ss := &gsheet.Spreadsheet{Sheets: []*gsheet.Sheet{
		{Properties: &gsheet.SheetProperties{Title: "Costs Raw"}},
		{Properties: nil},
		nil,
	}}
	if !hasTab(ss, "Costs Raw") {
		t.Error("expected existing tab to be found")
	}
	if hasTab(ss, "Costs Pivot") || hasTab(nil, "x") {
		t.Error("unexpected tab match")
	}
}

func TestCredentialsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		creds   Credentials
		want    string
		wantErr bool
	}{
		{name: "inline json wins", creds: Credentials{JSON: `{"inline":true}`, File: path}, want: `{"inline":true}`},
		{name: "file", creds: Credentials{File: path}, want: `{"type":"service_account"}`},
		{name: "missing file", creds: Credentials{File: filepath.Join(t.TempDir(), "nope.json")}, wantErr: true},
		{name: "nothing", creds: Credentials{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.creds.load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Fatalf("load() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewRejectsInvalidCredentials(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		creds Credentials
	}{
		{name: "not json", id: "sheet-id", creds: Credentials{JSON: "this is not a service account key"}},
		{name: "truncated json", id: "sheet-id", creds: Credentials{JSON: `{"type":"service_account",`}},
		{name: "no credentials", id: "sheet-id", creds: Credentials{}},
		{name: "no spreadsheet", id: " ", creds: Credentials{JSON: `{"type":"service_account"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.id, tt.creds)
			if err == nil {
				t.Fatalf("New() = %+v, want error", c)
			}
		})
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/adc.json")
	if c := CredentialsFromEnv(); c.File != "/tmp/adc.json" {
		t.Fatalf("expected ADC path fallback, got %+v", c)
	}
}
