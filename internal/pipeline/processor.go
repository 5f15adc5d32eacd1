package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/imaging"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/thermal"
)

// ErrUnsupportedExtension is returned for files whose extension is not in
// SupportedExtensions.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// ErrDecodeFailure is returned when the image codec cannot parse a file.
var ErrDecodeFailure = imaging.ErrDecodeFailure

// SupportedExtensions lists the accepted input extensions, lower case.
var SupportedExtensions = []string{".jpg", ".jpeg", ".rjpg", ".tif", ".tiff"}

// SupportedFile reports whether path has a supported extension. The check is
// case-insensitive.
func SupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Result is the outcome of analyzing one image. The caller owns every field;
// the Processor keeps no reference to it.
type Result struct {
	// SourcePath is the analyzed file, empty for in-memory images.
	SourcePath string

	// Overlay is the false-color rendering with hotspots highlighted.
	Overlay *image.RGBA

	// Mask is the final hotspot mask.
	Mask *thermal.Mask

	// Surface is the normalized intensity surface.
	Surface *thermal.Surface

	// Threshold is the normalized intensity at the configured percentile.
	Threshold float64

	// Config is the configuration snapshot the run used.
	Config Config

	// Regions describes every hotspot in the final mask, largest first.
	Regions []thermal.Region

	// Exif is the source's opaque metadata blob, nil if it had none.
	Exif []byte
}

// HotspotPixels returns the number of pixels in the final mask.
func (r *Result) HotspotPixels() int {
	return r.Mask.Count()
}

// Processor runs the hotspot pipeline with a current configuration.
//
// Processor is safe for concurrent use. Every run reads a snapshot of the
// configuration, so UpdateConfig never affects a run already in progress.
type Processor struct {
	mu      sync.RWMutex
	cfg     Config
	palette *thermal.Palette
	log     logrus.FieldLogger
}

// New creates a Processor with cfg clamped into range. A nil logger discards
// log output.
func New(cfg Config, logger logrus.FieldLogger) *Processor {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Processor{
		cfg:     cfg.Clamp(),
		palette: thermal.DefaultPalette(),
		log:     logger,
	}
}

// Config returns a snapshot of the current configuration.
func (p *Processor) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// UpdateConfig applies the provided override fields, re-clamps the whole
// configuration and returns the new snapshot.
func (p *Processor) UpdateConfig(o Overrides) Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = o.Apply(p.cfg)
	p.log.WithFields(logrus.Fields{
		"hotspot_percentile": p.cfg.HotspotPercentile,
		"min_cluster_size":   p.cfg.MinClusterSize,
		"opening_iterations": p.cfg.OpeningIterations,
		"closing_iterations": p.cfg.ClosingIterations,
		"kernel_size":        p.cfg.KernelSize,
	}).Debug("configuration updated")
	return p.cfg
}

// ProcessImage analyzes the image file at path with the current
// configuration.
//
// # Errors
//
//   - ErrUnsupportedExtension if the extension is not supported
//   - ErrDecodeFailure if the file cannot be decoded
//   - thermal.ErrUnsupportedFormat or thermal.ErrDegenerateInput if the
//     decoded image yields no usable surface
func (p *Processor) ProcessImage(path string) (*Result, error) {
	return p.processImage(path, p.Config())
}

// ProcessImageWith analyzes the image file at path with cfg instead of the
// current configuration. Batch runs use it to hold one snapshot for every
// file.
func (p *Processor) ProcessImageWith(path string, cfg Config) (*Result, error) {
	return p.processImage(path, cfg)
}

func (p *Processor) processImage(path string, cfg Config) (*Result, error) {
	if !SupportedFile(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))
	}

	src, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	return p.analyzeSource(src, cfg)
}

// ProcessSource analyzes an already decoded source with the current
// configuration.
func (p *Processor) ProcessSource(src *imaging.Source) (*Result, error) {
	return p.analyzeSource(src, p.Config())
}

// ProcessSourceWith analyzes src with cfg instead of the current
// configuration.
func (p *Processor) ProcessSourceWith(src *imaging.Source, cfg Config) (*Result, error) {
	return p.analyzeSource(src, cfg)
}

func (p *Processor) analyzeSource(src *imaging.Source, cfg Config) (*Result, error) {
	res, err := Analyze(src.Image, cfg, p.palette)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}
	res.SourcePath = src.Path
	res.Exif = src.Exif

	p.log.WithFields(logrus.Fields{
		"path":           src.Path,
		"threshold":      res.Threshold,
		"hotspots":       len(res.Regions),
		"hotspot_pixels": res.HotspotPixels(),
	}).Debug("image analyzed")
	return res, nil
}

// Analyze runs the pipeline on img with cfg clamped into range: extraction,
// normalization, percentile threshold, opening, closing, component filtering
// and compositing, in that order. A nil palette selects
// thermal.DefaultPalette.
//
// A surface without contrast produces an empty mask: every pixel shares the
// threshold value, so there is nothing that stands out as a hotspot.
func Analyze(img image.Image, cfg Config, palette *thermal.Palette) (*Result, error) {
	if palette == nil {
		palette = thermal.DefaultPalette()
	}
	cfg = cfg.Clamp()

	raw, err := thermal.Extract(img)
	if err != nil {
		return nil, err
	}
	surface, flat, err := thermal.Normalize(raw)
	if err != nil {
		return nil, err
	}

	threshold := thermal.Percentile(surface, cfg.HotspotPercentile)
	var mask *thermal.Mask
	if flat {
		mask = thermal.NewMask(surface.Width, surface.Height)
	} else {
		mask = thermal.ThresholdMask(surface, threshold)
	}

	if cfg.OpeningIterations > 0 {
		mask = thermal.Open(mask, cfg.OpeningIterations, cfg.KernelSize)
	}
	if cfg.ClosingIterations > 0 {
		mask = thermal.Close(mask, cfg.ClosingIterations, cfg.KernelSize)
	}
	mask = thermal.RemoveSmallComponents(mask, cfg.MinClusterSize)

	return &Result{
		Overlay:   thermal.Compose(surface, mask, palette),
		Mask:      mask,
		Surface:   surface,
		Threshold: threshold,
		Config:    cfg,
		Regions:   thermal.Regions(mask, surface),
	}, nil
}
