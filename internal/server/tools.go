package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema for an absolute image path argument.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// timeoutProperty bounds how long a tool waits for outstanding processing.
var timeoutProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Seconds to wait for processing to finish. Default 60",
	"default":     defaultWaitSeconds,
}

// ruleSchema describes one color replacement rule.
var ruleSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"source_color": map[string]interface{}{
			"type":        "string",
			"description": "Color to match: #RRGGBB or 'transparent'",
		},
		"target_color": map[string]interface{}{
			"type":        "string",
			"description": "Replacement color: #RRGGBB or 'transparent'",
		},
		"tolerance": map[string]interface{}{
			"type":        "integer",
			"description": "Match tolerance 0-100. 0 matches only the exact color",
			"minimum":     0,
			"maximum":     100,
		},
	},
	"required": []string{"source_color", "target_color", "tolerance"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Colors
		{
			Name:        "color_parse",
			Description: "Parse a color spec (#RRGGBB, RRGGBB, or 'transparent') and return its normalized form and RGBA channels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Color spec to parse",
					},
				},
				"required": []string{"color"},
			},
		},
		{
			Name:        "color_distance",
			Description: "Compute the perceptual distance (0 = identical) between two colors. With a tolerance, also report whether a rule with that tolerance would match.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"color_a": map[string]interface{}{
						"type":        "string",
						"description": "First color spec",
					},
					"color_b": map[string]interface{}{
						"type":        "string",
						"description": "Second color spec",
					},
					"tolerance": map[string]interface{}{
						"type":        "integer",
						"description": "Optional tolerance 0-100 to test a match against",
					},
				},
				"required": []string{"color_a", "color_b"},
			},
		},
		{
			Name:        "color_presets",
			Description: "List the named rule presets (logo-recolor, icon-recolor, remove-background) and their rules.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Source Images
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and whether it has transparency.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact color at a pixel. Use it as an eyedropper to pick a rule's source color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_sample_colors_multi",
			Description: "Sample colors at multiple points in one call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Points to sample",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"path", "points"},
			},
		},
		{
			Name:        "image_dominant_colors",
			Description: "Extract the most common colors in an image or region. Transparent pixels are reported as 'transparent'.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return. Default 5",
						"default":     5,
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional region to analyze",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
					},
				},
				"required": []string{"path"},
			},
		},

		// Workspace
		{
			Name:        "workspace_add_image",
			Description: "Add an image to the workspace. It is processed in the background with the current rules.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Display name. Defaults to the file name",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "workspace_remove_image",
			Description: "Remove an image from the workspace by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Image ID returned by workspace_add_image",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "workspace_set_rules",
			Description: "Replace the rule set and reprocess every image from its original pixels. The first matching rule wins.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"rules": map[string]interface{}{
						"type":        "array",
						"description": "Ordered replacement rules",
						"items":       ruleSchema,
					},
					"preset": map[string]interface{}{
						"type":        "string",
						"description": "Use a named preset instead of rules",
						"enum":        []string{"logo-recolor", "icon-recolor", "remove-background"},
					},
				},
			},
		},
		{
			Name:        "workspace_status",
			Description: "Report the rules and each image's processing state.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"wait": map[string]interface{}{
						"type":        "boolean",
						"description": "Wait for outstanding processing first",
						"default":     false,
					},
					"timeout_seconds": timeoutProperty,
				},
			},
		},
		{
			Name:        "workspace_preview",
			Description: "Return a processed image scaled to fit the given bounds as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Image ID",
					},
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum preview width. Default 512",
						"default":     512,
					},
					"max_height": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum preview height. Default 512",
						"default":     512,
					},
					"timeout_seconds": timeoutProperty,
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "workspace_export",
			Description: "Export processed images: one image as PNG, several as a zip archive. Writes to output_path if given, otherwise returns base64 data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "File or directory to write the export to",
					},
					"timeout_seconds": timeoutProperty,
				},
			},
		},
		{
			Name:        "workspace_reset",
			Description: "Remove every image and restore the default rule.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
