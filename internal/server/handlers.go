package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/baseline"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/batch"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/imaging"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/pipeline"
	"github.com/thelevimasters-oss/ThermalDelamDetector/internal/thermal"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "thermal_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls into the pipeline, batch or baseline packages
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	switch name {
	// Analysis
	case "thermal_analyze":
		return s.handleThermalAnalyze(args)
	case "thermal_process_folder":
		return s.handleThermalProcessFolder(args)

	// Configuration
	case "thermal_get_config":
		return s.proc.Config(), nil
	case "thermal_update_config":
		return s.handleThermalUpdateConfig(args)
	case "thermal_palette":
		return s.handleThermalPalette()
	case "thermal_cache_clear":
		return s.handleThermalCacheClear(args)

	// Tabular data
	case "thermal_baseline":
		return s.handleThermalBaseline(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeOverrides reads pipeline overrides from args. Unknown keys do not
// fail the call; they are returned as warnings wrapping
// pipeline.ErrInvalidConfig.
func decodeOverrides(args json.RawMessage) (pipeline.Overrides, []string, error) {
	var o pipeline.Overrides
	if err := json.Unmarshal(args, &o); err != nil {
		return o, nil, err
	}
	return o, unknownKeyWarnings(args, &pipeline.Overrides{}), nil
}

// unknownKeyWarnings decodes args strictly into target and returns a warning
// wrapping pipeline.ErrInvalidConfig if args holds a key target lacks.
func unknownKeyWarnings(args json.RawMessage, target interface{}) []string {
	strict := json.NewDecoder(bytes.NewReader(args))
	strict.DisallowUnknownFields()
	if err := strict.Decode(target); err != nil {
		return []string{fmt.Errorf("%w: %v", pipeline.ErrInvalidConfig, err).Error()}
	}
	return nil
}

// === Analysis Handlers ===

type thermalAnalyzeArgs struct {
	Path        string `json:"path"`
	PreviewSize int    `json:"preview_size"`
	MaxRegions  int    `json:"max_regions"`
	Output      string `json:"output"`
	pipeline.Overrides
}

type thermalAnalyzeResult struct {
	Path            string                 `json:"path"`
	Width           int                    `json:"width"`
	Height          int                    `json:"height"`
	Config          pipeline.Config        `json:"config"`
	Threshold       float64                `json:"threshold"`
	HotspotCount    int                    `json:"hotspot_count"`
	HotspotPixels   int                    `json:"hotspot_pixels"`
	HotspotFraction float64                `json:"hotspot_fraction"`
	Regions         []thermal.Region       `json:"regions"`
	Output          string                 `json:"output,omitempty"`
	Preview         *imaging.PreviewResult `json:"preview,omitempty"`
	Warnings        []string               `json:"warnings,omitempty"`
}

func (s *Server) handleThermalAnalyze(args json.RawMessage) (interface{}, error) {
	var a thermalAnalyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if !pipeline.SupportedFile(a.Path) {
		return nil, fmt.Errorf("%w: %q", pipeline.ErrUnsupportedExtension, filepath.Ext(a.Path))
	}
	if ext := strings.ToLower(filepath.Ext(a.Output)); a.Output != "" && ext != ".jpg" && ext != ".jpeg" {
		return nil, fmt.Errorf("output is always JPEG and must end in .jpg or .jpeg, got %q", a.Output)
	}
	if a.MaxRegions <= 0 {
		a.MaxRegions = 20
	}
	warnings := unknownKeyWarnings(args, &thermalAnalyzeArgs{})
	for _, w := range warnings {
		s.log.WithField("path", a.Path).Warn(w)
	}

	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.proc.ProcessSourceWith(src, a.Overrides.Apply(s.proc.Config()))
	if err != nil {
		return nil, err
	}

	out := &thermalAnalyzeResult{
		Path:          a.Path,
		Width:         res.Surface.Width,
		Height:        res.Surface.Height,
		Config:        res.Config,
		Threshold:     res.Threshold,
		HotspotCount:  len(res.Regions),
		HotspotPixels: res.HotspotPixels(),
		Regions:       res.Regions,
		Warnings:      warnings,
	}
	out.HotspotFraction = float64(out.HotspotPixels) / float64(out.Width*out.Height)
	if len(out.Regions) > a.MaxRegions {
		out.Regions = out.Regions[:a.MaxRegions]
	}

	if a.Output != "" {
		if err := imaging.SaveOverlay(res.Overlay, a.Output, res.Exif); err != nil {
			return nil, err
		}
		out.Output = a.Output
	}
	if a.PreviewSize > 0 {
		if out.Preview, err = imaging.Preview(res.Overlay, a.PreviewSize); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type thermalProcessFolderArgs struct {
	Input     string `json:"input"`
	Output    string `json:"output"`
	Workers   int    `json:"workers"`
	SaveMasks bool   `json:"save_masks"`
}

func (s *Server) handleThermalProcessFolder(args json.RawMessage) (interface{}, error) {
	var a thermalProcessFolderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" {
		return nil, errors.New("input is required")
	}

	return batch.Run(context.Background(), s.proc, batch.Options{
		Input:     a.Input,
		Output:    a.Output,
		Workers:   a.Workers,
		SaveMasks: a.SaveMasks,
	}, s.log)
}

// === Configuration Handlers ===

type thermalUpdateConfigResult struct {
	Config   pipeline.Config `json:"config"`
	Warnings []string        `json:"warnings,omitempty"`
}

func (s *Server) handleThermalUpdateConfig(args json.RawMessage) (interface{}, error) {
	o, warnings, err := decodeOverrides(args)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.log.Warn(w)
	}
	return &thermalUpdateConfigResult{Config: s.proc.UpdateConfig(o), Warnings: warnings}, nil
}

type thermalPaletteResult struct {
	Size   int      `json:"size"`
	Colors []string `json:"colors"`
}

func (s *Server) handleThermalPalette() (interface{}, error) {
	p := thermal.DefaultPalette()
	colors := make([]string, thermal.PaletteSize)
	for i := range colors {
		colors[i] = p.Hex(i)
	}
	return &thermalPaletteResult{Size: thermal.PaletteSize, Colors: colors}, nil
}

type thermalCacheClearArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleThermalCacheClear(args json.RawMessage) (interface{}, error) {
	var a thermalCacheClearArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path != "" {
		s.cache.Evict(a.Path)
	} else {
		s.cache.Clear()
	}
	return map[string]int{"cached": s.cache.Len()}, nil
}

// === Tabular Data Handlers ===

type thermalBaselineArgs struct {
	Input     string   `json:"input"`
	Threshold *float64 `json:"threshold"`
	Window    *int     `json:"window"`
	Output    string   `json:"output"`
}

type thermalBaselineResult struct {
	Readings   int                  `json:"readings"`
	Flagged    int                  `json:"flagged"`
	Detections []baseline.Detection `json:"detections"`
	Output     string               `json:"output,omitempty"`
}

func (s *Server) handleThermalBaseline(args json.RawMessage) (interface{}, error) {
	var a thermalBaselineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" {
		return nil, errors.New("input is required")
	}
	threshold, window := baseline.DefaultThreshold, baseline.DefaultWindow
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if a.Window != nil {
		window = *a.Window
	}

	ms, err := baseline.LoadMeasurements(a.Input)
	if err != nil {
		return nil, err
	}
	ds, err := baseline.Detect(ms, window, threshold)
	if err != nil {
		return nil, err
	}

	out := &thermalBaselineResult{Readings: len(ms), Flagged: len(ds), Detections: ds}
	if out.Detections == nil {
		out.Detections = []baseline.Detection{}
	}
	if len(ds) > 0 {
		if a.Output == "" {
			a.Output = baseline.DefaultOutputPath(a.Input)
		}
		if err := baseline.SaveDetections(a.Output, ds); err != nil {
			return nil, err
		}
		out.Output = a.Output
	}
	return out, nil
}
