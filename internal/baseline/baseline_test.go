package baseline

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadMeasurements(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantIDs []string
	}{
		{"identifier column first", "station,temperature\nA,10.5\nB,11\n", []string{"A", "B"}},
		{"identifier column after temperature", "temperature,station,note\n10,X,n\n12,Y,m\n", []string{"X", "Y"}},
		{"row index fallback", "temperature\n1\n2\n3\n", []string{"0", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, err := ReadMeasurements(strings.NewReader(tt.csv))
			if err != nil {
				t.Fatalf("ReadMeasurements failed: %v", err)
			}
			if len(ms) != len(tt.wantIDs) {
				t.Fatalf("got %d measurements, want %d", len(ms), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if ms[i].ID != id {
					t.Errorf("measurement %d: got id %q, want %q", i, ms[i].ID, id)
				}
			}
		})
	}
}

func TestReadMeasurements_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want error
	}{
		{"missing column", "station,temp\nA,1\n", ErrMissingColumn},
		{"empty input", "", ErrMissingColumn},
		{"header only", "station,temperature\n", ErrNoMeasurements},
		{"not a number", "station,temperature\nA,hot\n", ErrInvalidTemperature},
		{"short row", "station,temperature\nA\n", ErrInvalidTemperature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMeasurements(strings.NewReader(tt.csv))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	ms := []Measurement{
		{"a", 10}, {"b", 10}, {"c", 10},
		{"d", 13},
		{"e", 10},
		{"f", 20},
	}

	got, err := Detect(ms, 3, 2)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	want := []Detection{
		{"d", 13, 3},
		{"f", 20, 9},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Temperature != want[i].Temperature ||
			math.Abs(got[i].Delta-want[i].Delta) > 1e-9 {
			t.Errorf("detection %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDetect_WindowNeverFills(t *testing.T) {
	got, err := Detect([]Measurement{{"a", 1}, {"b", 100}}, 5, 1)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d detections, want 0", len(got))
	}
}

func TestDetect_DeltaEqualToThreshold(t *testing.T) {
	got, err := Detect([]Measurement{{"a", 10}, {"b", 12}}, 1, 2)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("delta equal to threshold should be flagged, got %d", len(got))
	}
}

func TestDetect_InvalidParameters(t *testing.T) {
	tests := []struct {
		window    int
		threshold float64
	}{
		{0, 3}, {-1, 3}, {10, 0}, {10, -2}, {10, math.NaN()},
	}
	for _, tt := range tests {
		if _, err := Detect(nil, tt.window, tt.threshold); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("window %d threshold %v: got %v, want ErrInvalidParameter", tt.window, tt.threshold, err)
		}
	}
}

func TestWriteDetections(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDetections(&buf, []Detection{{"A", 13.5, 3.25}, {"B,2", 20, 9}})
	if err != nil {
		t.Fatalf("WriteDetections failed: %v", err)
	}
	want := "identifier,temperature,delta\nA,13.5,3.25\n\"B,2\",20,9\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "deck.csv")
	data := "id,temperature\n1,20\n2,20\n3,25\n"
	if err := os.WriteFile(in, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	ms, err := LoadMeasurements(in)
	if err != nil {
		t.Fatalf("LoadMeasurements failed: %v", err)
	}
	ds, err := Detect(ms, 2, DefaultThreshold)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	out := DefaultOutputPath(in)
	if out != filepath.Join(dir, "deck_delam_candidates.csv") {
		t.Errorf("DefaultOutputPath: got %s", out)
	}
	if err := SaveDetections(out, ds); err != nil {
		t.Fatalf("SaveDetections failed: %v", err)
	}
	written, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(written) != "identifier,temperature,delta\n3,25,5\n" {
		t.Errorf("got %q", written)
	}
}
