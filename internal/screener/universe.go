// internal/screener/universe.go
package screener

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"papertrade/internal/domain"
)

//go:embed universe.csv
var defaultUniverse string

// DefaultUniverse returns the embedded list of large-cap US symbols.
func DefaultUniverse() []string {
	symbols, err := ParseUniverse(strings.NewReader(defaultUniverse))
	if err != nil {
		panic(fmt.Sprintf("screener: embedded universe is invalid: %v", err))
	}
	return symbols
}

// LoadUniverseFile reads a universe CSV from path.
func LoadUniverseFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer f.Close()
	return ParseUniverse(f)
}

// ParseUniverse reads symbols from the "symbol" column of a CSV with a header row.
// Blank and duplicate symbols are skipped.
func ParseUniverse(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read universe header: %w", err)
	}
	column := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "symbol") {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, errors.New("universe has no symbol column")
	}

	seen := make(map[string]bool)
	var symbols []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read universe: %w", err)
		}
		if column >= len(record) {
			continue
		}
		symbol := domain.NormalizeSymbol(record[column])
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return nil, errors.New("universe is empty")
	}
	return symbols, nil
}
