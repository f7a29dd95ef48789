package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-creds/models"
)

// DualWriter outputs the JavaScript module and the plain JSON array together.
type DualWriter struct {
	moduleWriter *ModuleWriter
	jsonWriter   *JSONWriter
	mu           sync.Mutex
}

// NewDualWriter creates both artifacts.
func NewDualWriter(moduleFilename, jsonFilename string) (*DualWriter, error) {
	moduleWriter, err := NewModuleWriter(moduleFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create module writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		moduleWriter.Close()
		return nil, fmt.Errorf("failed to create JSON writer: %w", err)
	}

	return &DualWriter{
		moduleWriter: moduleWriter,
		jsonWriter:   jsonWriter,
	}, nil
}

// Write writes rows to both artifacts.
func (dw *DualWriter) Write(rows []models.NormalizedRow) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.moduleWriter.Write(rows); err != nil {
		return fmt.Errorf("module write failed: %w", err)
	}
	if err := dw.jsonWriter.Write(rows); err != nil {
		return fmt.Errorf("JSON write failed: %w", err)
	}
	return nil
}

// Close closes both writers
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	var errs []error
	if err := dw.moduleWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("module close failed: %w", err))
	}
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("JSON close failed: %w", err))
	}
	return errors.Join(errs...)
}

// Validate validates both output files
func (dw *DualWriter) Validate() error {
	var errs []error
	if err := dw.moduleWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("module validation failed: %w", err))
	}
	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("JSON validation failed: %w", err))
	}
	return errors.Join(errs...)
}
