package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// configProperties returns the schema of the five pipeline settings. Every
// tool that accepts them treats them as optional overrides.
func configProperties() map[string]interface{} {
	return map[string]interface{}{
		"hotspot_percentile": map[string]interface{}{
			"type":        "number",
			"description": "Percentile of normalized intensity used as the hotspot threshold, clamped to [50,100]. Default 97",
		},
		"min_cluster_size": map[string]interface{}{
			"type":        "integer",
			"description": "Smallest hotspot kept, in pixels, clamped to [1,10000]. Default 45",
		},
		"opening_iterations": map[string]interface{}{
			"type":        "integer",
			"description": "Morphological opening passes that remove specks, clamped to [0,5]. Default 1",
		},
		"closing_iterations": map[string]interface{}{
			"type":        "integer",
			"description": "Morphological closing passes that fill gaps, clamped to [0,5]. Default 1",
		},
		"kernel_size": map[string]interface{}{
			"type":        "integer",
			"description": "Side of the square structuring element, clamped to [3,9] and rounded down to odd. Default 3",
		},
	}
}

// withConfig adds the pipeline settings to props.
func withConfig(props map[string]interface{}) map[string]interface{} {
	for k, v := range configProperties() {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Analysis
		{
			Name:        "thermal_analyze",
			Description: "Detect hotspots in a thermal image (JPEG, RJPG or TIFF). Returns the threshold, the hotspot regions largest first and optionally a false-color overlay preview. Settings given here apply to this call only.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withConfig(map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the thermal image",
					},
					"preview_size": map[string]interface{}{
						"type":        "integer",
						"description": "If set, include the overlay as base64 PNG fitted inside this many pixels. Default 0 (no preview)",
						"default":     0,
					},
					"max_regions": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of regions listed. Default 20",
						"default":     20,
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional .jpg or .jpeg path where the overlay is saved with the source EXIF attached. The overlay is always JPEG",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "thermal_process_folder",
			Description: "Process every thermal image directly inside a folder with the current settings. Saves <name>_processed.jpg overlays (and optional masks) plus report.json, and returns the report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input": map[string]interface{}{
						"type":        "string",
						"description": "Folder containing the images",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Output folder. Default <input>/processed",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Images analyzed concurrently. Default 1",
						"default":     1,
					},
					"save_masks": map[string]interface{}{
						"type":        "boolean",
						"description": "Also save each hotspot mask as <name>_mask.png",
						"default":     false,
					},
				},
				"required": []string{"input"},
			},
		},

		// Configuration
		{
			Name:        "thermal_get_config",
			Description: "Return the current detection settings.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "thermal_update_config",
			Description: "Change detection settings for later calls. Only the provided fields change; every value is clamped into range. Returns the new settings.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": configProperties(),
			},
		},
		{
			Name:        "thermal_palette",
			Description: "Return the 256-entry false-color palette as hex strings, from coldest to hottest.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "thermal_cache_clear",
			Description: "Drop decoded images from the cache. With a path, only that image is dropped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Image to drop. Default: all",
					},
				},
			},
		},

		// Tabular data
		{
			Name:        "thermal_baseline",
			Description: "Flag CSV temperature readings that exceed the mean of the preceding window readings by at least the threshold. The CSV needs a 'temperature' column.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input": map[string]interface{}{
						"type":        "string",
						"description": "Path to the CSV file",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Temperature rise above the baseline considered anomalous. Default 3.0",
						"default":     3.0,
					},
					"window": map[string]interface{}{
						"type":        "integer",
						"description": "Readings in the rolling baseline. Default 10",
						"default":     10,
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Where flagged readings are saved as CSV. Default <input>_delam_candidates.csv; nothing is written when no reading is flagged",
					},
				},
				"required": []string{"input"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
