package normalize

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/aluiziolira/go-scrape-creds/models"
)

const (
	placeholder     = "a"
	unknownProtocol = "Unknown"
)

var credentialPlaceholders = Rules{
	{"n/a", ""},
	{"(blank)", ""},
}

// Normalizer converts scraped rows to published rows. It holds no state
// between rows.
type Normalizer struct {
	referenceBase string
	logger        *slog.Logger
}

// New returns a Normalizer that resolves relative references against
// referenceBase. A nil logger uses slog.Default.
func New(referenceBase string, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		referenceBase: strings.TrimSuffix(referenceBase, "/"),
		logger:        logger,
	}
}

// Row normalizes one scraped row.
func (n *Normalizer) Row(row models.ScrapedRow) models.NormalizedRow {
	return models.NormalizedRow{
		Username:   Credential(row.Username),
		Password:   Credential(row.Password),
		Part:       placeholder,
		Vendor:     n.Vendor(row.BrandName),
		Product:    n.Product(row.ModelName),
		Version:    placeholder,
		Update:     placeholder,
		Edition:    placeholder,
		Language:   placeholder,
		Protocol:   unknownProtocol,
		References: n.References(row.Reference),
	}
}

// Credential blanks the site's "no value" markers.
func Credential(s string) string {
	return credentialPlaceholders.Apply(s)
}

// References resolves a scraped reference path. The result is never nil.
func (n *Normalizer) References(ref string) []string {
	if ref == "" {
		return []string{}
	}
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return []string{ref}
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return []string{n.referenceBase + ref}
}
