package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/aluiziolira/go-scrape-creds/models"
)

// LoadManufacturersFile opens path and parses it with LoadManufacturers.
func LoadManufacturersFile(path string) ([]models.Manufacturer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manufacturers file: %w", err)
	}
	defer f.Close()

	manufacturers, err := LoadManufacturers(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return manufacturers, nil
}

// LoadManufacturers reads "id<TAB>name" lines in file order. A malformed
// line fails the whole load.
func LoadManufacturers(r io.Reader) ([]models.Manufacturer, error) {
	var manufacturers []models.Manufacturer

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 tab-separated fields, got %d", lineNo, len(fields))
		}

		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid brand id: %w", lineNo, err)
		}

		manufacturers = append(manufacturers, models.Manufacturer{
			BrandID:   id,
			BrandName: strings.TrimRightFunc(fields[1], unicode.IsSpace),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manufacturers: %w", err)
	}

	return manufacturers, nil
}
