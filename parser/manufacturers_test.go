package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/go-scrape-creds/models"
	"github.com/google/go-cmp/cmp"
)

func TestLoadManufacturers(t *testing.T) {
	input := "11\tAcme Corp\n3\tADB / Pirelli  \r\n\n 7 \tZyXEL\n"

	got, err := LoadManufacturers(strings.NewReader(input))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := []models.Manufacturer{
		{BrandID: 11, BrandName: "Acme Corp"},
		{BrandID: 3, BrandName: "ADB / Pirelli"},
		{BrandID: 7, BrandName: "ZyXEL"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("manufacturers mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadManufacturersSingleLine(t *testing.T) {
	got, err := LoadManufacturers(strings.NewReader("11\tAcme Corp\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0] != (models.Manufacturer{BrandID: 11, BrandName: "Acme Corp"}) {
		t.Fatalf("got %+v, want [{11 Acme Corp}]", got)
	}
}

func TestLoadManufacturersMalformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "missing tab", input: "1\tGood\n2 Bad\n", wantErr: "line 2"},
		{name: "extra field", input: "1\tName\textra\n", wantErr: "line 1"},
		{name: "non numeric id", input: "x\tName\n", wantErr: "invalid brand id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadManufacturers(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if got != nil {
				t.Fatalf("expected no partial result, got %+v", got)
			}
		})
	}
}

func TestLoadManufacturersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manufacturers.txt")
	if err := os.WriteFile(path, []byte("1\tLinksys\n2\tNetgear\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadManufacturersFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if len(got) != 2 || got[1].BrandName != "Netgear" {
		t.Fatalf("unexpected manufacturers: %+v", got)
	}

	if _, err := LoadManufacturersFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
