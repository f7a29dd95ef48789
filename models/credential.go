// Package models defines data structures for the scraper.
package models

import "time"

// Manufacturer is one brand entry of the local manufacturer list.
type Manufacturer struct {
	BrandID   int    `json:"brand_id"`
	BrandName string `json:"brand_name"`
}

// Model is one device listed under a manufacturer.
type Model struct {
	ModelID   int    `json:"model_id"`
	ModelName string `json:"model_name"`
}

// CredentialRecord holds the default login scraped from a detail page.
// Reference is empty when the page carries no link.
type CredentialRecord struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Reference string `json:"reference,omitempty"`
}

// ScrapedRow is one line of the intermediate file.
type ScrapedRow struct {
	BrandID   int    `json:"brand_id"`
	BrandName string `json:"brand_name"`
	ModelID   int    `json:"model_id"`
	ModelName string `json:"model_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Reference string `json:"reference,omitempty"`
}

// NewScrapedRow merges the three sources of a row.
func NewScrapedRow(m Manufacturer, model Model, cred CredentialRecord) ScrapedRow {
	return ScrapedRow{
		BrandID:   m.BrandID,
		BrandName: m.BrandName,
		ModelID:   model.ModelID,
		ModelName: model.ModelName,
		Username:  cred.Username,
		Password:  cred.Password,
		Reference: cred.Reference,
	}
}

// NormalizedRow is the record shape of the emitted data file. Field order
// is the serialized key order.
type NormalizedRow struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	Part       string   `json:"part"`
	Vendor     string   `json:"vendor"`
	Product    string   `json:"product"`
	Version    string   `json:"version"`
	Update     string   `json:"update"`
	Edition    string   `json:"edition"`
	Language   string   `json:"language"`
	Protocol   string   `json:"protocol"`
	References []string `json:"references"`
}

// ScrapeResult summarises a scrape run.
type ScrapeResult struct {
	StartTime          time.Time
	EndTime            time.Time
	ManufacturerCount  int
	ModelCount         int
	RowCount           int
	MissingCredentials int
	RequestCount       int
	ErrorCount         int
	ErrorsByType       map[string]int
	RetryCount         int
	CacheHits          int
}
