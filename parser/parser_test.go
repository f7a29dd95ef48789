package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-creds/models"
)

func TestValidateScrapedRow(t *testing.T) {
	tests := []struct {
		name    string
		row     *models.ScrapedRow
		wantErr bool
	}{
		{
			name: "valid row",
			row: &models.ScrapedRow{
				BrandID:   1,
				BrandName: "Linksys",
				ModelID:   42,
				ModelName: "WRT54G",
				Username:  "admin",
				Password:  "admin",
			},
			wantErr: false,
		},
		{
			name: "empty password allowed",
			row: &models.ScrapedRow{
				BrandName: "Linksys",
				ModelID:   42,
				ModelName: "WRT54G",
				Username:  "admin",
			},
			wantErr: false,
		},
		{
			name:    "nil row",
			row:     nil,
			wantErr: true,
		},
		{
			name: "missing brand",
			row: &models.ScrapedRow{
				ModelID:   42,
				ModelName: "WRT54G",
			},
			wantErr: true,
		},
		{
			name: "missing model id",
			row: &models.ScrapedRow{
				BrandName: "Linksys",
				ModelName: "WRT54G",
			},
			wantErr: true,
		},
		{
			name: "missing model name",
			row: &models.ScrapedRow{
				BrandName: "Linksys",
				ModelID:   42,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScrapedRow(tt.row)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScrapedRow() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain ascii",
			input:    "admin",
			expected: "admin",
		},
		{
			name:     "surrounding whitespace",
			input:    "\n\t admin \r\n",
			expected: "admin",
		},
		{
			name:     "byte order mark",
			input:    "WS325 \ufeff",
			expected: "WS325 &#65279;",
		},
		{
			name:     "accented letters",
			input:    "Sagemcom Fast® 3504",
			expected: "Sagemcom Fast&#174; 3504",
		},
		{
			name:     "inner whitespace kept",
			input:    "P-660H-T1 v2 \t V3.40",
			expected: "P-660H-T1 v2 \t V3.40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.expected {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
