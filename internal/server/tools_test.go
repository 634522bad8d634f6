package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"color_parse",
		"color_distance",
		"color_presets",
		"image_load",
		"image_dimensions",
		"image_sample_color",
		"image_sample_colors_multi",
		"image_dominant_colors",
		"workspace_add_image",
		"workspace_remove_image",
		"workspace_set_rules",
		"workspace_status",
		"workspace_preview",
		"workspace_export",
		"workspace_reset",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
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
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema missing 'properties' map")
			}

			// every required argument must be declared
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, name := range required {
					if _, ok := props[name]; !ok {
						t.Errorf("required %q not in properties", name)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := map[string][]string{
		"color_parse":            {"color"},
		"color_distance":         {"color_a", "color_b"},
		"image_load":             {"path"},
		"image_sample_color":     {"path", "x", "y"},
		"workspace_add_image":    {"path"},
		"workspace_remove_image": {"id"},
		"workspace_preview":      {"id"},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := toolMap[name].InputSchema["required"].([]string)
			if !ok {
				t.Fatal("missing required list")
			}
			if len(got) != len(want) {
				t.Fatalf("required: got %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("required[%d]: got %s, want %s", i, got[i], want[i])
				}
			}
		})
	}
}

func TestToolDefinitions_PresetEnum(t *testing.T) {
	var setRules Tool
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "workspace_set_rules" {
			setRules = tool
		}
	}

	props := setRules.InputSchema["properties"].(map[string]interface{})
	preset := props["preset"].(map[string]interface{})
	enum, ok := preset["enum"].([]string)
	if !ok || len(enum) != 3 {
		t.Fatalf("preset enum: got %v", preset["enum"])
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
