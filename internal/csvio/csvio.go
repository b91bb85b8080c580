// Package csvio is the I/O collaborator for the analyzer: it loads a
// single-column CSV of storage values into a series and writes an event
// collection back out as the drawdown table.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/hydrolab/drawdown/internal/drawdown"
	"github.com/hydrolab/drawdown/internal/series"
)

// LoadSeries reads a one-column CSV file of float values. A leading header
// row (anything that does not parse as a number) is skipped; any other
// non-numeric cell is an error. Only the first column of each row is used.
func LoadSeries(path string) (series.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open series file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read series file: %w", err)
	}

	s := make(series.Series, 0, len(records))
	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("row %d: invalid value %q: %w", i+1, record[0], err)
		}
		s = append(s, v)
	}
	return s, nil
}

// WriteEvents writes the drawdown table for a collection to path, one row
// per event with magnitude at least threshold. Pass threshold 0 to export
// the complete event record.
func WriteEvents(path string, c *drawdown.Collection, threshold float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{}, drawdown.ColumnNames...)
	header = append(header, "resolved")
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range c.Filter(threshold) {
		row := []string{
			strconv.Itoa(e.PeakIndex),
			strconv.FormatFloat(e.PeakValue, 'g', -1, 64),
			strconv.Itoa(e.TroughIndex),
			strconv.FormatFloat(e.TroughValue, 'g', -1, 64),
			strconv.Itoa(e.RecoveryIndex),
			strconv.FormatFloat(e.Magnitude, 'g', -1, 64),
			strconv.Itoa(e.Draining),
			strconv.Itoa(e.Filling),
			strconv.Itoa(e.Duration),
			strconv.FormatBool(e.Resolved),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write event row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	return nil
}
