// Package baseline flags temperature readings that rise above a rolling
// baseline. It works on tabular CSV measurements rather than images: each
// reading is compared with the mean of the readings just before it.
package baseline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// TemperatureColumn is the required CSV header.
const TemperatureColumn = "temperature"

// Defaults used by the command line.
const (
	DefaultThreshold = 3.0
	DefaultWindow    = 10
)

var (
	// ErrMissingColumn is returned when the CSV header has no temperature
	// column.
	ErrMissingColumn = errors.New("input CSV must contain a 'temperature' column")

	// ErrInvalidTemperature is returned for a reading that is not a number.
	ErrInvalidTemperature = errors.New("invalid temperature value")

	// ErrNoMeasurements is returned for a CSV with a header but no rows.
	ErrNoMeasurements = errors.New("no measurement rows found in the input CSV")

	// ErrInvalidParameter is returned for a non-positive window or threshold.
	ErrInvalidParameter = errors.New("invalid detector parameter")
)

// Measurement is one reading.
type Measurement struct {
	// ID is the value of the first non-temperature column, or the zero-based
	// row index when the CSV has no other column.
	ID          string  `json:"identifier"`
	Temperature float64 `json:"temperature"`
}

// Detection is a reading that exceeded its baseline.
type Detection struct {
	ID          string  `json:"identifier"`
	Temperature float64 `json:"temperature"`
	Delta       float64 `json:"delta"`
}

// ReadMeasurements parses CSV measurements from r.
func ReadMeasurements(r io.Reader) ([]Measurement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingColumn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	tempCol, idCol := -1, -1
	for i, name := range header {
		if name == TemperatureColumn {
			if tempCol < 0 {
				tempCol = i
			}
			continue
		}
		if idCol < 0 {
			idCol = i
		}
	}
	if tempCol < 0 {
		return nil, ErrMissingColumn
	}

	var out []Measurement
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if tempCol >= len(rec) {
			return nil, fmt.Errorf("%w: row %d has no temperature", ErrInvalidTemperature, len(out)+1)
		}

		raw := rec[tempCol]
		temp, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTemperature, raw)
		}

		id := strconv.Itoa(len(out))
		if idCol >= 0 {
			id = ""
			if idCol < len(rec) {
				id = rec[idCol]
			}
		}
		out = append(out, Measurement{ID: id, Temperature: temp})
	}

	if len(out) == 0 {
		return nil, ErrNoMeasurements
	}
	return out, nil
}

// LoadMeasurements reads CSV measurements from the file at path.
func LoadMeasurements(path string) ([]Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open measurements: %w", err)
	}
	defer f.Close()
	return ReadMeasurements(f)
}

// Detect flags every reading whose temperature is at least threshold above
// the mean of the window readings before it. The first window readings only
// fill the baseline and are never flagged. Flagged readings still enter the
// baseline.
func Detect(ms []Measurement, window int, threshold float64) ([]Detection, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window size must be greater than zero", ErrInvalidParameter)
	}
	if !(threshold > 0) {
		return nil, fmt.Errorf("%w: threshold must be greater than zero", ErrInvalidParameter)
	}

	ring := make([]float64, 0, window)
	next := 0
	var out []Detection
	for _, m := range ms {
		if len(ring) == window {
			delta := m.Temperature - stat.Mean(ring, nil)
			if delta >= threshold {
				out = append(out, Detection{ID: m.ID, Temperature: m.Temperature, Delta: delta})
			}
			ring[next] = m.Temperature
			next = (next + 1) % window
			continue
		}
		ring = append(ring, m.Temperature)
	}
	return out, nil
}

// WriteDetections writes ds as CSV with an identifier,temperature,delta
// header.
func WriteDetections(w io.Writer, ds []Detection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"identifier", "temperature", "delta"}); err != nil {
		return err
	}
	for _, d := range ds {
		rec := []string{
			d.ID,
			strconv.FormatFloat(d.Temperature, 'f', -1, 64),
			strconv.FormatFloat(d.Delta, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveDetections writes ds as CSV to the file at path.
func SaveDetections(path string, ds []Detection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := WriteDetections(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("failed to write detections: %w", err)
	}
	return f.Close()
}

// DefaultOutputPath returns <input without extension>_delam_candidates.csv,
// next to input.
func DefaultOutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_delam_candidates.csv"
}
