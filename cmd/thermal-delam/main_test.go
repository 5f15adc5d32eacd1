package main

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/pipeline"
)

func writeFrame(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 4; y < 14; y++ {
		for x := 4; x < 14; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
}

func TestParseDetectFlags(t *testing.T) {
	o, err := parseDetectFlags([]string{"-i", "/data", "--kernel-size", "5", "--save-masks", "--workers", "4"}, io.Discard)
	if err != nil {
		t.Fatalf("parseDetectFlags failed: %v", err)
	}
	if o.input != "/data" || !o.saveMasks || o.workers != 4 {
		t.Errorf("got %+v", o)
	}
	if o.overrides.KernelSize == nil || *o.overrides.KernelSize != 5 {
		t.Error("kernel size flag should become an override")
	}
	if o.overrides.HotspotPercentile != nil || o.overrides.MinClusterSize != nil {
		t.Error("flags left at their defaults should not become overrides")
	}
}

func TestParseDetectFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"--kernel-size", "5"}},
		{"stray argument", []string{"-i", "/data", "extra"}},
		{"bad number", []string{"-i", "/data", "--hotspot-percentile", "hot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseDetectFlags(tt.args, io.Discard); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseDetectFlags_ServeNeedsNoInput(t *testing.T) {
	o, err := parseDetectFlags([]string{"--serve"}, io.Discard)
	if err != nil || !o.serve {
		t.Errorf("got %+v, %v", o, err)
	}
}

func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermal.yaml")
	doc := "hotspot_percentile: 90\nkernel_size: 7\nunknown_key: 1\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	o := &detectOptions{configPath: path, overrides: pipeline.Overrides{KernelSize: pipeline.Int(5)}}
	cfg, err := resolveConfig(o, initLogger(false, io.Discard))
	if err != nil {
		t.Fatalf("resolveConfig failed: %v", err)
	}
	if cfg.HotspotPercentile != 90 || cfg.KernelSize != 5 || cfg.MinClusterSize != pipeline.DefaultMinClusterSize {
		t.Errorf("got %+v", cfg)
	}
}

func TestResolveConfig_MissingFile(t *testing.T) {
	o := &detectOptions{configPath: filepath.Join(t.TempDir(), "missing.yaml")}
	if _, err := resolveConfig(o, initLogger(false, io.Discard)); err == nil {
		t.Error("missing config file should fail")
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--version"}, &out, io.Discard); code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	if !strings.HasPrefix(out.String(), "thermal-delam "+Version) {
		t.Errorf("got %q", out.String())
	}
}

func TestRun_Batch(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "frame.tif")

	if code := run([]string{"--input", dir, "--save-masks"}, io.Discard, io.Discard); code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	for _, name := range []string{"frame_processed.jpg", "frame_mask.png", "report.json"} {
		if _, err := os.Stat(filepath.Join(dir, "processed", name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestRun_BatchNothingProcessed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if code := run([]string{"-i", dir}, io.Discard, io.Discard); code == 0 {
		t.Error("a run that processes nothing should exit non-zero")
	}
	if code := run([]string{"-i", t.TempDir()}, io.Discard, io.Discard); code == 0 {
		t.Error("an empty folder should exit non-zero")
	}
}

func TestRun_Baseline(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "deck.csv")
	if err := os.WriteFile(input, []byte("temperature\n20\n20\n27\n"), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	var out bytes.Buffer
	if code := run([]string{"baseline", "--input", input, "--window", "2"}, &out, io.Discard); code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	want := filepath.Join(dir, "deck_delam_candidates.csv")
	if !strings.Contains(out.String(), "Flagged 1 readings. Results saved to "+want) {
		t.Errorf("got %q", out.String())
	}

	out.Reset()
	if code := run([]string{"baseline", "--input", input, "--threshold", "50"}, &out, io.Discard); code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	if !strings.Contains(out.String(), "No readings exceeded") {
		t.Errorf("got %q", out.String())
	}

	if code := run([]string{"baseline", "--input", input, "--window", "0"}, io.Discard, io.Discard); code != 1 {
		t.Errorf("window 0: got exit code %d, want 1", code)
	}
}
