// Package pipeline moves rows between the scrape and normalize stages:
// the intermediate JSONL sink, the normalize pass, and the output artifacts.
package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aluiziolira/go-scrape-creds/models"
	"github.com/aluiziolira/go-scrape-creds/normalize"
	"github.com/aluiziolira/go-scrape-creds/parser"
)

const maxLineSize = 1 << 20

var (
	// ErrPipelineClosed is returned when Run is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// RowWriter receives scraped rows as they are produced.
type RowWriter interface {
	WriteRow(row models.ScrapedRow) error
}

// OutputWriter defines the interface for the final artifact.
type OutputWriter interface {
	Write(rows []models.NormalizedRow) error
	Close() error
	Validate() error
}

// Pipeline reads intermediate rows, normalizes them and writes the result
// through an OutputWriter in one shot.
type Pipeline struct {
	writer     OutputWriter
	normalizer *normalize.Normalizer
	logger     *slog.Logger

	metrics metrics

	mu     sync.Mutex // guards closed
	closed bool
}

// NewPipeline builds a pipeline around writer. writer may be nil when only
// Normalize is used.
func NewPipeline(writer OutputWriter, normalizer *normalize.Normalizer) *Pipeline {
	return &Pipeline{
		writer:     writer,
		normalizer: normalizer,
		logger:     slog.Default(),
		metrics:    newMetrics(),
	}
}

// Run normalizes every line of r and writes the full set once.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) ([]models.NormalizedRow, error) {
	if p.isClosed() {
		return nil, ErrPipelineClosed
	}
	if p.writer == nil {
		return nil, errors.New("pipeline: no output writer")
	}

	rows, err := p.Normalize(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := p.writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	return rows, nil
}

// Normalize reads JSONL scraped rows from r. Lines that fail to decode or
// validate are logged and skipped.
func (p *Pipeline) Normalize(ctx context.Context, r io.Reader) ([]models.NormalizedRow, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rows := make([]models.NormalizedRow, 0)
	reader := bufio.NewReaderSize(r, 64*1024)

	lineNo := 0
	for {
		raw, tooLong, readErr := readLine(reader)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read intermediate rows: %w", readErr)
		}
		atEOF := readErr != nil
		if atEOF && len(raw) == 0 && !tooLong {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++

		if tooLong {
			p.metrics.addValidation("malformed_line")
			p.logger.Warn("skipping oversized line", slog.Int("line", lineNo), slog.Int("limit", maxLineSize))
		} else if row, ok := p.normalizeLine(lineNo, bytes.TrimSpace(raw)); ok {
			rows = append(rows, row)
		}
		if atEOF {
			break
		}
	}

	return rows, nil
}

func (p *Pipeline) normalizeLine(lineNo int, line []byte) (models.NormalizedRow, bool) {
	if len(line) == 0 {
		return models.NormalizedRow{}, false
	}

	row, err := decodeRow(line)
	if err != nil {
		p.metrics.addValidation("malformed_line")
		p.logger.Warn("skipping malformed line", slog.Int("line", lineNo), slog.Any("error", err))
		return models.NormalizedRow{}, false
	}
	if err := parser.ValidateScrapedRow(row); err != nil {
		p.metrics.addValidation("invalid_record")
		p.logger.Warn("skipping invalid record", slog.Int("line", lineNo), slog.Any("error", err))
		return models.NormalizedRow{}, false
	}

	current := p.metrics.incrementProcessed()
	if current%1000 == 0 {
		p.logger.Debug("normalize progress", slog.Int64("rows", current), slog.Int("line", lineNo))
	}
	return p.normalizer.Row(*row), true
}

// readLine returns the next line including its terminator. A line longer
// than maxLineSize is drained and reported with tooLong set and no bytes.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

// Close prevents further runs and closes the writer.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

func (p *Pipeline) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func decodeRow(line []byte) (*models.ScrapedRow, error) {
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.DisallowUnknownFields()

	var row models.ScrapedRow
	if err := decoder.Decode(&row); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("trailing data after record")
	}
	return &row, nil
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	return m.processed
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_rows":    m.processed,
		"validation_errors": copyValidation,
	}
}
