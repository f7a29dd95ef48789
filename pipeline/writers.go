package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-scrape-creds/models"
)

// ErrAlreadyWritten is returned when a single-shot artifact is written twice.
var ErrAlreadyWritten = errors.New("pipeline: artifact already written")

// JSONLWriter writes scraped rows as newline-delimited JSON. Every row is
// flushed on its own so an interrupted run leaves only complete lines.
type JSONLWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLWriter opens filename, truncating it unless appendMode is set.
func NewJSONLWriter(filename string, appendMode bool) (*JSONLWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(filename, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	return &JSONLWriter{
		file:    f,
		writer:  buffer,
		encoder: encoder,
	}, nil
}

// WriteRow appends one row and flushes it.
func (jw *JSONLWriter) WriteRow(row models.ScrapedRow) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.encoder.Encode(row); err != nil {
		return fmt.Errorf("encode jsonl record: %w", err)
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush jsonl writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush jsonl writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSONL file has data.
func (jw *JSONLWriter) Validate() error {
	return validateNonEmpty(jw.file, "jsonl")
}

// ModuleWriter emits the normalized rows as a JavaScript module exporting
// a single "data" binding.
type ModuleWriter struct {
	file    *os.File
	mu      sync.Mutex
	written bool
}

// NewModuleWriter creates the module file.
func NewModuleWriter(filename string) (*ModuleWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create module file: %w", err)
	}
	return &ModuleWriter{file: f}, nil
}

// Write serializes the complete row set. It may be called once.
func (mw *ModuleWriter) Write(rows []models.NormalizedRow) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	if mw.written {
		return ErrAlreadyWritten
	}
	data, err := encodeRows(rows)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("\nvar data = ")
	buf.Write(data)
	buf.WriteString(";\n\nmodule.exports = {\n  data,\n};\n")
	if _, err := mw.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write module file: %w", err)
	}
	mw.written = true
	return nil
}

// Close closes the file handle.
func (mw *ModuleWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.file.Close()
}

// Validate ensures the module file has content.
func (mw *ModuleWriter) Validate() error {
	return validateNonEmpty(mw.file, "module")
}

// JSONWriter emits the normalized rows as one JSON array document.
type JSONWriter struct {
	file    *os.File
	mu      sync.Mutex
	written bool
}

// NewJSONWriter creates the JSON file.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}
	return &JSONWriter{file: f}, nil
}

// Write serializes the complete row set. It may be called once.
func (jw *JSONWriter) Write(rows []models.NormalizedRow) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.written {
		return ErrAlreadyWritten
	}
	data, err := encodeRows(rows)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := jw.file.Write(data); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	jw.written = true
	return nil
}

// Close closes the file handle.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	return validateNonEmpty(jw.file, "json")
}

func encodeRows(rows []models.NormalizedRow) ([]byte, error) {
	if rows == nil {
		rows = []models.NormalizedRow{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rows); err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func validateNonEmpty(f *os.File, kind string) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
