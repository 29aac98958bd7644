// Package refdata loads static reference tables shipped with the repository.
package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"LocalNewsMapper/internal/domain"
)

// LoadStatesFile reads a states table from path into reg.
func LoadStatesFile(path string, reg *domain.Registry) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open states table: %w", err)
	}
	defer f.Close()

	return LoadStates(f, reg)
}

// LoadStates reads "name,postal,lat,lng" rows after a header row and upserts a
// State for each. It returns the number of rows read.
func LoadStates(r io.Reader, reg *domain.Registry) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("read states header: %w", err)
	}

	count := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read states row: %w", err)
		}
		if len(record) < 4 {
			line, _ := reader.FieldPos(0)
			return count, fmt.Errorf("states row %d: expected 4 columns, got %d", line, len(record))
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return count, fmt.Errorf("states row %q: lat: %w", record[0], err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return count, fmt.Errorf("states row %q: lng: %w", record[0], err)
		}

		reg.UpsertState(strings.TrimSpace(record[0]), strings.TrimSpace(record[1]), lat, lng)
		count++
	}
	return count, nil
}
