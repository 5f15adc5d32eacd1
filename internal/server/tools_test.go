package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"thermal_analyze",
		"thermal_process_folder",
		"thermal_get_config",
		"thermal_update_config",
		"thermal_palette",
		"thermal_cache_clear",
		"thermal_baseline",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Tool %s defined twice", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

func TestToolDefinitions_RequiredArguments(t *testing.T) {
	tests := []struct {
		tool     string
		required string
	}{
		{"thermal_analyze", "path"},
		{"thermal_process_folder", "input"},
		{"thermal_baseline", "input"},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			required, ok := toolMap[tt.tool].InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}
			found := false
			for _, r := range required {
				if r == tt.required {
					found = true
				}
			}
			if !found {
				t.Errorf("%s should require %s", tt.tool, tt.required)
			}
		})
	}
}

func TestToolDefinitions_ConfigProperties(t *testing.T) {
	keys := []string{"hotspot_percentile", "min_cluster_size", "opening_iterations", "closing_iterations", "kernel_size"}

	for _, name := range []string{"thermal_analyze", "thermal_update_config"} {
		for _, tool := range GetToolDefinitions() {
			if tool.Name != name {
				continue
			}
			props := tool.InputSchema["properties"].(map[string]interface{})
			for _, k := range keys {
				if _, ok := props[k]; !ok {
					t.Errorf("%s: missing property %s", name, k)
				}
			}
		}
	}
}
