package parser

import (
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-creds/models"
)

// ValidateScrapedRow ensures an intermediate record carries the fields the
// normalizer needs.
func ValidateScrapedRow(row *models.ScrapedRow) error {
	if row == nil {
		return fmt.Errorf("row is nil")
	}
	if strings.TrimSpace(row.BrandName) == "" {
		return fmt.Errorf("row missing brand name for model %d", row.ModelID)
	}
	if row.ModelID <= 0 {
		return fmt.Errorf("row has invalid model id %d", row.ModelID)
	}
	if strings.TrimSpace(row.ModelName) == "" {
		return fmt.Errorf("row missing model name for model %d", row.ModelID)
	}
	return nil
}

// SanitizeText escapes every non-ASCII rune as an XML character reference
// and trims surrounding whitespace.
func SanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, "&#%d;", r)
	}
	return strings.TrimSpace(b.String())
}
