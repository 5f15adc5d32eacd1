package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/imaging"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/pipeline"
)

// ReportName is the file written into the output folder after a run.
const ReportName = "report.json"

// DefaultOutputDir is the subfolder of the input used when no output folder
// is given.
const DefaultOutputDir = "processed"

// Options controls a batch run.
type Options struct {
	// Input is the folder scanned for images. Subfolders are not searched.
	Input string

	// Output is the folder receiving overlays, masks and the report.
	// Empty selects <Input>/processed.
	Output string

	// Workers is the number of images analyzed concurrently. Values below 1
	// mean 1.
	Workers int

	// SaveMasks also writes the final mask of every image as PNG.
	SaveMasks bool
}

// Entry describes one successfully processed image.
type Entry struct {
	Source        string  `json:"source"`
	Overlay       string  `json:"overlay"`
	Mask          string  `json:"mask,omitempty"`
	Threshold     float64 `json:"threshold"`
	Hotspots      int     `json:"hotspots"`
	HotspotPixels int     `json:"hotspot_pixels"`
	DurationMS    int64   `json:"duration_ms"`
}

// Failure describes an image that was skipped.
type Failure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Report summarizes a batch run. Processed and Failed keep discovery order.
type Report struct {
	RunID      string          `json:"run_id"`
	Input      string          `json:"input"`
	Output     string          `json:"output"`
	Config     pipeline.Config `json:"config"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMS int64           `json:"duration_ms"`
	Processed  []Entry         `json:"processed"`
	Failed     []Failure       `json:"failed"`
	Canceled   bool            `json:"canceled,omitempty"`
}

// EnsureOutputFolder resolves the output folder for input and creates it.
// An empty output selects <input>/processed.
func EnsureOutputFolder(input, output string) (string, error) {
	if output == "" {
		output = filepath.Join(input, DefaultOutputDir)
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output folder: %w", err)
	}
	return output, nil
}

type outcome struct {
	done  bool
	entry Entry
	err   error
}

// Run analyzes every supported image in opts.Input with one snapshot of the
// processor's configuration and saves the results into the output folder.
//
// A failing image is logged, recorded in Report.Failed and skipped.
// Cancellation is checked between images; images already started finish and
// are reported, and the context error is returned together with the partial
// report. The report is written to the output folder in every case where
// images were found.
//
// # Errors
//
//   - pipeline.ErrNoImages if the input holds no supported image
//   - the discovery or output folder error if either folder is unusable
//
// A nil logger discards log output.
func Run(ctx context.Context, proc *pipeline.Processor, opts Options, logger logrus.FieldLogger) (*Report, error) {
	paths, err := pipeline.DiscoverImages(opts.Input)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", pipeline.ErrNoImages, opts.Input)
	}

	out, err := EnsureOutputFolder(opts.Input, opts.Output)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Input:     opts.Input,
		Output:    out,
		Config:    proc.Config(),
		StartedAt: time.Now(),
		Processed: []Entry{},
		Failed:    []Failure{},
	}
	log := logger.WithField("run_id", report.RunID)
	log.WithFields(logrus.Fields{
		"input":  opts.Input,
		"output": out,
		"images": len(paths),
	}).Info("batch started")

	workers := min(max(opts.Workers, 1), len(paths))
	outcomes := make([]outcome, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = processOne(proc, report.Config, paths[i], out, opts.SaveMasks)
			}
		}()
	}

feed:
	for i := range paths {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i, o := range outcomes {
		if !o.done {
			continue
		}
		fields := logrus.Fields{"file": filepath.Base(paths[i])}
		if o.err != nil {
			log.WithFields(fields).WithError(o.err).Warn("image skipped")
			report.Failed = append(report.Failed, Failure{Source: paths[i], Error: o.err.Error()})
			continue
		}
		fields["hotspots"] = o.entry.Hotspots
		fields["overlay"] = o.entry.Overlay
		log.WithFields(fields).Info("image processed")
		report.Processed = append(report.Processed, o.entry)
	}

	report.Canceled = ctx.Err() != nil
	report.DurationMS = time.Since(report.StartedAt).Milliseconds()

	if err := report.Write(filepath.Join(out, ReportName)); err != nil {
		return report, err
	}

	log.WithFields(logrus.Fields{
		"processed":   len(report.Processed),
		"failed":      len(report.Failed),
		"canceled":    report.Canceled,
		"duration_ms": report.DurationMS,
	}).Info("batch finished")

	if report.Canceled {
		return report, ctx.Err()
	}
	return report, nil
}

func processOne(proc *pipeline.Processor, cfg pipeline.Config, path, out string, saveMask bool) outcome {
	start := time.Now()
	res, err := proc.ProcessImageWith(path, cfg)
	if err != nil {
		return outcome{done: true, err: err}
	}

	overlayPath, maskPath := imaging.OutputPaths(out, path)
	if err := imaging.SaveOverlay(res.Overlay, overlayPath, res.Exif); err != nil {
		return outcome{done: true, err: err}
	}
	if saveMask {
		if err := imaging.SaveMask(res.Mask.Image(), maskPath); err != nil {
			return outcome{done: true, err: err}
		}
	} else {
		maskPath = ""
	}

	return outcome{done: true, entry: Entry{
		Source:        path,
		Overlay:       overlayPath,
		Mask:          maskPath,
		Threshold:     res.Threshold,
		Hotspots:      len(res.Regions),
		HotspotPixels: res.HotspotPixels(),
		DurationMS:    time.Since(start).Milliseconds(),
	}}
}

// Write stores the report as indented JSON at path.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
